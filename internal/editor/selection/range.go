// Package selection tracks the caret and selection inside the body region and keeps a copy of the
// last meaningful range so commands can restore it after a floating control stole focus.
package selection

import (
	"github.com/debemdeboas/inkwell/internal/dom"
	"golang.org/x/net/html"
)

// Range is a selection in tree coordinates. Anchor is where the selection started and Focus where
// it ends; Focus may precede Anchor.
type Range struct {
	Anchor dom.Position
	Focus  dom.Position
}

// Caret returns a collapsed range at p.
func Caret(p dom.Position) Range {
	return Range{Anchor: p, Focus: p}
}

// Span returns a forward range from start to end.
func Span(start, end dom.Position) Range {
	return Range{Anchor: start, Focus: end}
}

func (r Range) IsZero() bool {
	return r.Anchor.Node == nil && r.Focus.Node == nil
}

func (r Range) Collapsed() bool {
	return r.Anchor == r.Focus
}

// Start is the earlier boundary in document order.
func (r Range) Start() dom.Position {
	if dom.Compare(r.Anchor, r.Focus) <= 0 {
		return r.Anchor
	}
	return r.Focus
}

func (r Range) End() dom.Position {
	if dom.Compare(r.Anchor, r.Focus) <= 0 {
		return r.Focus
	}
	return r.Anchor
}

// Normalize returns the range with Anchor at Start.
func (r Range) Normalize() Range {
	return Range{Anchor: r.Start(), Focus: r.End()}
}

func (r Range) CommonAncestor() *html.Node {
	if r.IsZero() {
		return nil
	}
	return dom.CommonAncestor(r.Anchor.Node, r.Focus.Node)
}

// Within reports whether both boundaries are valid positions inside root.
func (r Range) Within(root *html.Node) bool {
	return !r.IsZero() && r.Anchor.Valid(root) && r.Focus.Valid(root)
}

// Offsets flattens the range into text offsets relative to root.
func (r Range) Offsets(root *html.Node) (start, end int) {
	return dom.TextOffset(root, r.Start()), dom.TextOffset(root, r.End())
}

// FromOffsets rebuilds a range from text offsets relative to root. It is used to carry a selection
// across structural mutations that replace the text nodes it referenced.
func FromOffsets(root *html.Node, start, end int) Range {
	if start == end {
		return Caret(dom.PositionAtTextOffset(root, start, true))
	}
	return Span(dom.PositionAtTextOffset(root, start, true), dom.PositionAtTextOffset(root, end, false))
}
