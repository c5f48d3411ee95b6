package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"golang.org/x/net/html"
)

// blankBlock reports whether b holds nothing but line breaks and whitespace.
func blankBlock(b *html.Node) bool {
	if b == nil || !dom.IsBlock(b) {
		return false
	}
	for c := b.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case dom.IsText(c) && strings.TrimSpace(c.Data) == "":
		case dom.IsElement(c, "br"):
		default:
			return false
		}
	}
	return true
}

// insertText types text at the end of the live selection and leaves the caret after it. A caret
// between top level blocks types into the blank paragraph before it, or into a new one.
func (s *Session) insertText(text string) {
	if !s.tracker.Live().Within(s.body) {
		s.tracker.Restore()
	}
	p := s.tracker.Live().End()

	if !dom.IsText(p.Node) {
		block := p.Node
		if block == s.body {
			if prev := dom.ChildAt(s.body, p.Offset-1); blankBlock(prev) {
				block = prev
			} else {
				block = dom.Element("p")
				dom.InsertAt(p, block)
			}
			p = dom.Position{Node: block}
		}
		if blankBlock(block) {
			dom.RemoveChildren(block)
			p = dom.Position{Node: block}
		}
		t := dom.Text("")
		dom.InsertAt(p, t)
		p = dom.Position{Node: t}
	}

	t := p.Node
	t.Data = dom.SliceText(t.Data, 0, p.Offset) + text + dom.SliceText(t.Data, p.Offset, utf8.RuneCountInString(t.Data))
	s.tracker.SelectionChanged(selection.Caret(dom.Position{Node: t, Offset: p.Offset + utf8.RuneCountInString(text)}))
}
