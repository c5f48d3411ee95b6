package replay

import (
	"sync"

	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/editor/form"
	"github.com/debemdeboas/inkwell/internal/editor/media"
	"github.com/debemdeboas/inkwell/internal/model"
)

// Host records the UI effects of a replayed session and logs them.
type Host struct {
	mu       sync.Mutex
	restore  bool
	alerts   []string
	statuses []draft.Indicator
}

func NewHost(restore bool) *Host {
	return &Host{restore: restore}
}

func (h *Host) Alert(message string) {
	h.mu.Lock()
	h.alerts = append(h.alerts, message)
	h.mu.Unlock()
	replayLogger.Warn().Str("alert", message).Msg("Editor alert")
}

func (h *Host) ObjectURL(f media.File) string {
	return "blob:replay/" + f.Name
}

func (h *Host) ShowSaveStatus(i draft.Indicator) {
	h.mu.Lock()
	h.statuses = append(h.statuses, i)
	h.mu.Unlock()
	replayLogger.Debug().Str("status", string(i)).Msg("Save status")
}

func (h *Host) ConfirmRestore(snap model.DraftSnapshot) bool {
	replayLogger.Info().
		Time("saved_at", snap.Timestamp).
		Bool("restore", h.restore).
		Msg("Stored draft offered")
	return h.restore
}

func (h *Host) HighlightValidation(problems []form.Problem) {
	for _, p := range problems {
		replayLogger.Info().Str("field", string(p.Field)).Str("problem", p.Message).Msg("Validation failed")
	}
}

func (h *Host) AdjustHeights() {}

func (h *Host) Alerts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.alerts...)
}

func (h *Host) Statuses() []draft.Indicator {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]draft.Indicator(nil), h.statuses...)
}
