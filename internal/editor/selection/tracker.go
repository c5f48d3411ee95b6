package selection

import (
	"time"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/schedule"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

var selectionLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	selectionLogger = l
}

// DefaultDebounce is the quiet period applied to selection change notifications.
const DefaultDebounce = 100 * time.Millisecond

// Focus names the control that currently holds input focus.
type Focus int

const (
	FocusNone Focus = iota
	FocusBody
	FocusTitle
	FocusSubtitle
	FocusToolbar
	FocusColorPicker
	FocusLinkForm
)

// Floating reports whether f is one of the controls that operate on the cached selection.
func (f Focus) Floating() bool {
	return f == FocusToolbar || f == FocusColorPicker || f == FocusLinkForm
}

func (f Focus) String() string {
	return [...]string{"none", "body", "title", "subtitle", "toolbar", "color-picker", "link-form"}[f]
}

// Tracker is not safe for concurrent use. Its owner serialises calls and provides exec, which
// wraps the debounced capture so it runs under the same serialisation.
type Tracker struct {
	body   *html.Node
	live   Range
	cached Range
	has    bool
	focus  Focus
	task   *schedule.Task
	exec   func(func())
}

// NewTracker creates a tracker for body. exec may be nil, in which case the debounced capture runs
// directly on the clock's goroutine.
func NewTracker(body *html.Node, clock schedule.Clock, debounce time.Duration, exec func(func())) *Tracker {
	if exec == nil {
		exec = func(f func()) { f() }
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	t := &Tracker{body: body, exec: exec}
	t.task = schedule.NewTask(clock, debounce, func() { t.exec(t.capture) })
	return t
}

// SelectionChanged records the live selection and schedules a debounced capture.
func (t *Tracker) SelectionChanged(r Range) {
	t.live = r
	t.task.Schedule()
}

// SetLive moves the live selection without scheduling a capture.
func (t *Tracker) SetLive(r Range) {
	t.live = r
}

func (t *Tracker) Live() Range {
	return t.live
}

// Cached returns the retained range, if any.
func (t *Tracker) Cached() (Range, bool) {
	return t.cached, t.has
}

func (t *Tracker) SetFocus(f Focus) {
	t.focus = f
}

func (t *Tracker) Focus() Focus {
	return t.focus
}

// Commit captures the live selection immediately, dropping any pending debounced capture.
func (t *Tracker) Commit() {
	t.task.Cancel()
	t.capture()
}

func (t *Tracker) capture() {
	r := t.live
	switch {
	case !r.IsZero() && !r.Collapsed() && r.Within(t.body):
		t.cached = r
		t.has = true
	case t.focus.Floating():
	default:
		t.Invalidate()
	}
}

// Reselect replaces the live selection after a command rewrote the tree, keeping the cache in
// step with it.
func (t *Tracker) Reselect(r Range) {
	t.live = r
	if !r.IsZero() && !r.Collapsed() && r.Within(t.body) {
		t.cached = r
		t.has = true
		return
	}
	t.Invalidate()
}

// Invalidate discards the cached range. Owners call it after structural mutations outside the
// tracked range.
func (t *Tracker) Invalidate() {
	t.cached = Range{}
	t.has = false
}

// Restore focuses the body and makes the cached range live. When nothing is cached the live
// selection is kept if it is inside the body. A stale cache is discarded, the caret collapses to
// the end of the body and false is returned.
func (t *Tracker) Restore() bool {
	t.focus = FocusBody
	if t.has {
		if t.cached.Within(t.body) {
			t.live = t.cached
			return true
		}
		selectionLogger.Debug().Msg("Cached selection is stale, collapsing to end of body")
		t.Invalidate()
		t.live = Caret(t.endOfBody())
		return false
	}
	if t.live.Within(t.body) {
		return true
	}
	t.live = Caret(t.endOfBody())
	return false
}

func (t *Tracker) endOfBody() dom.Position {
	texts := dom.TextNodes(t.body)
	if len(texts) > 0 {
		return dom.End(texts[len(texts)-1])
	}
	return dom.End(t.body)
}

// Dispose cancels the pending capture.
func (t *Tracker) Dispose() {
	t.task.Stop()
}
