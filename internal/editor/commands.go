package editor

import (
	"errors"
	"strings"

	"github.com/debemdeboas/inkwell/internal/editor/format"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"github.com/debemdeboas/inkwell/internal/model"
)

const selectTextMessage = "Please select some text first."

// Key is a key press with its modifiers. Key holds the lower case key name.
type Key struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
}

var shortcuts = map[Key]format.Kind{
	{Key: "b", Ctrl: true}:            format.Bold,
	{Key: "i", Ctrl: true}:            format.Italic,
	{Key: "1", Ctrl: true, Alt: true}: format.Heading1,
	{Key: "2", Ctrl: true, Alt: true}: format.Heading2,
}

// commandError alerts the writer about err and returns it.
func (s *Session) commandError(err error) error {
	switch {
	case errors.Is(err, format.ErrNoSelection):
		s.deps.Host.Alert(selectTextMessage)
	case errors.Is(err, format.ErrEmptyURL):
		s.deps.Host.Alert("Please enter a URL.")
	default:
		s.deps.Host.Alert(err.Error())
	}
	editorLogger.Debug().Err(err).Msg("Command rejected")
	return err
}

func (s *Session) apply(fn func() error) error {
	return s.do(func() error {
		if err := fn(); err != nil {
			return s.commandError(err)
		}
		s.mutated()
		return nil
	})
}

// Format toggles an inline or block format on the tracked selection.
func (s *Session) Format(kind format.Kind) error {
	return s.apply(func() error {
		switch kind {
		case format.Bold, format.Italic, format.Underline, format.Strikethrough:
			return s.format.ApplyInline(kind)
		case format.InlineCode:
			return s.format.InsertInlineCode()
		}
		return s.format.ApplyBlock(kind)
	})
}

func (s *Session) Link(url string) error {
	return s.apply(func() error { return s.format.ApplyLink(url) })
}

func (s *Session) Unlink() error {
	return s.apply(s.format.RemoveLink)
}

func (s *Session) Highlight(color string) error {
	return s.apply(func() error { return s.format.ApplyHighlight(color) })
}

func (s *Session) RemoveHighlight() error {
	return s.apply(s.format.RemoveHighlight)
}

func (s *Session) ClearFormatting() error {
	return s.apply(s.format.RemoveFormat)
}

// ActiveCommands reports the formats in effect at the live selection, for the toolbar state.
func (s *Session) ActiveCommands() format.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format.ActiveCommands()
}

// KeyShortcut runs the command bound to k. It reports whether k was bound. Ctrl+K opens the link
// form, which only moves focus.
func (s *Session) KeyShortcut(k Key) (bool, error) {
	k.Key = strings.ToLower(k.Key)
	if k == (Key{Key: "k", Ctrl: true}) {
		s.Focus(selection.FocusLinkForm)
		return true, nil
	}
	kind, ok := shortcuts[k]
	if !ok {
		return false, nil
	}
	return true, s.Format(kind)
}

func tagID(s string) model.TagID {
	return model.TagID(strings.TrimSpace(s))
}

// ToggleTag flips a tag checkbox and returns its new state.
func (s *Session) ToggleTag(id string) (bool, error) {
	var on bool
	err := s.do(func() error {
		var err error
		if on, err = s.tags.Toggle(tagID(id)); err != nil {
			return err
		}
		s.mutated()
		return nil
	})
	return on, err
}

// Tags returns the tags the writer can pick from, in display order.
func (s *Session) Tags() []model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags.Available()
}

// SetURL pins the post's slug. An empty slug derives it from the title again.
func (s *Session) SetURL(slug string) error {
	return s.do(func() error {
		s.form.SetURL(slug)
		return nil
	})
}

// TagStatus is the hint shown under the tag cloud.
func (s *Session) TagStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags.Status()
}
