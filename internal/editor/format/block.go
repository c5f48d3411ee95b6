package format

import (
	"fmt"
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"golang.org/x/net/html"
)

var blockTargets = map[Kind]string{
	Heading1:      "h1",
	Heading2:      "h2",
	Heading3:      "h3",
	Blockquote:    "blockquote",
	OrderedList:   "ol",
	UnorderedList: "ul",
}

func isTextBlock(n *html.Node) bool {
	return dom.IsElement(n, "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "li", "pre")
}

func isList(n *html.Node) bool {
	return dom.IsElement(n, "ul", "ol")
}

// blocks returns the text blocks the selection touches, nearest block of the common ancestor first.
func (c *Controller) blocks(r selection.Range) []*html.Node {
	if ca := r.CommonAncestor(); ca != nil {
		if b := dom.NearestAncestorMatching(ca, isTextBlock, c.body); b != nil {
			return []*html.Node{b}
		}
	}
	s, e := r.Start(), r.End()
	var out []*html.Node
	seen := map[*html.Node]bool{}
	for _, t := range dom.TextNodes(c.body) {
		if c.ignorable(t) {
			continue
		}
		if dom.Compare(dom.End(t), s) <= 0 || dom.Compare(dom.Position{Node: t}, e) >= 0 {
			continue
		}
		b := dom.NearestAncestorMatching(t, isTextBlock, c.body)
		if b != nil && !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

func (c *Controller) blockActive(kind Kind, b *html.Node) bool {
	switch kind {
	case OrderedList, UnorderedList:
		li := dom.NearestAncestorMatching(b, tagIn("li"), c.body)
		return li != nil && dom.IsElement(li.Parent, blockTargets[kind])
	case Blockquote:
		return dom.NearestAncestorMatching(b, tagIn("blockquote"), c.body) != nil
	default:
		return dom.Tag(b) == blockTargets[kind]
	}
}

// ApplyBlock toggles a block format on every block the selection touches.
//
// A heading or quote that is already active turns back into a paragraph. Converting a list item
// into a heading or quote lifts it out of its list, splitting the list around it. A list of the
// other type is switched as a whole; an item of the same type is lifted out into a paragraph.
// New list items join an adjacent list of the same type.
func (c *Controller) ApplyBlock(kind Kind) error {
	if _, ok := blockTargets[kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	r := c.target()
	blocks := c.blocks(r)
	if len(blocks) == 0 {
		return ErrNoBlock
	}
	active := true
	for _, b := range blocks {
		if !c.blockActive(kind, b) {
			active = false
			break
		}
	}
	moved := map[*html.Node]*html.Node{}
	var first *html.Node
	for _, b := range blocks {
		var out *html.Node
		if active {
			out = c.unsetBlock(kind, b, moved)
		} else {
			out = c.setBlock(kind, b, moved)
		}
		if first == nil {
			first = out
		}
	}
	c.reselect(r, moved, first)
	formatLogger.Debug().Str("kind", string(kind)).Bool("removed", active).Int("blocks", len(blocks)).Msg("Applied block format")
	return nil
}

// SetBlock applies kind to the block at the selection without toggling.
func (c *Controller) SetBlock(kind Kind) error {
	if _, ok := blockTargets[kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	r := c.target()
	blocks := c.blocks(r)
	if len(blocks) == 0 {
		return ErrNoBlock
	}
	moved := map[*html.Node]*html.Node{}
	var first *html.Node
	for _, b := range blocks {
		if c.blockActive(kind, b) {
			continue
		}
		out := c.setBlock(kind, b, moved)
		if first == nil {
			first = out
		}
	}
	c.reselect(r, moved, first)
	return nil
}

func (c *Controller) setBlock(kind Kind, b *html.Node, moved map[*html.Node]*html.Node) *html.Node {
	tag := blockTargets[kind]
	li := dom.NearestAncestorMatching(b, tagIn("li"), c.body)

	switch kind {
	case OrderedList, UnorderedList:
		if li != nil {
			list := li.Parent
			dom.Rename(list, tag)
			mergeAdjacentLists(list)
			return b
		}
		item := dom.Element("li")
		dom.MoveChildren(b, item)
		moved[b] = item
		if prev := prevElement(b); dom.IsElement(prev, tag) {
			prev.AppendChild(item)
			dom.Remove(b)
			mergeAdjacentLists(prev)
			return item
		}
		list := dom.Element(tag)
		dom.Replace(b, list)
		list.AppendChild(item)
		mergeAdjacentLists(list)
		return item
	}

	if li != nil {
		b = liftListItem(li, moved)
	}
	dom.Rename(b, tag)
	return b
}

func (c *Controller) unsetBlock(kind Kind, b *html.Node, moved map[*html.Node]*html.Node) *html.Node {
	switch kind {
	case OrderedList, UnorderedList:
		li := dom.NearestAncestorMatching(b, tagIn("li"), c.body)
		return liftListItem(li, moved)
	case Blockquote:
		bq := dom.NearestAncestorMatching(b, tagIn("blockquote"), c.body)
		if bq == b {
			dom.Rename(b, "p")
			return b
		}
		isolated := dom.Isolate(bq, b)
		dom.Unwrap(isolated)
		pruneEmpty(bq)
		return b
	default:
		dom.Rename(b, "p")
		return b
	}
}

// liftListItem moves li out of its list, splitting the list around it, and returns the block that
// now holds its content.
func liftListItem(li *html.Node, moved map[*html.Node]*html.Node) *html.Node {
	list := li.Parent
	if next := li.NextSibling; next != nil {
		tail := dom.ShallowClone(list)
		for s := next; s != nil; {
			n := s.NextSibling
			list.RemoveChild(s)
			tail.AppendChild(s)
			s = n
		}
		dom.InsertAfter(list, tail)
		pruneEmpty(tail)
	}

	var block *html.Node
	if startsWithBlock(li) {
		anchor := list
		for ch := li.FirstChild; ch != nil; ch = li.FirstChild {
			dom.InsertAfter(anchor, ch)
			anchor = ch
			if block == nil && isTextBlock(ch) {
				block = ch
			}
		}
	} else {
		block = dom.Element("p")
		dom.MoveChildren(li, block)
		if block.FirstChild == nil {
			block.AppendChild(dom.Element("br"))
		}
		dom.InsertAfter(list, block)
		moved[li] = block
	}
	dom.Remove(li)
	pruneEmpty(list)
	return block
}

func startsWithBlock(n *html.Node) bool {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.TextNode && strings.TrimSpace(ch.Data) == "" {
			continue
		}
		return isTextBlock(ch)
	}
	return false
}

// pruneEmpty removes n when it holds nothing but whitespace.
func pruneEmpty(n *html.Node) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type != html.TextNode || strings.TrimSpace(ch.Data) != "" {
			return
		}
	}
	dom.Remove(n)
}

func prevElement(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if p.Type == html.ElementNode {
			return p
		}
		if strings.TrimSpace(p.Data) != "" {
			return nil
		}
	}
	return nil
}

func nextElement(n *html.Node) *html.Node {
	for p := n.NextSibling; p != nil; p = p.NextSibling {
		if p.Type == html.ElementNode {
			return p
		}
		if strings.TrimSpace(p.Data) != "" {
			return nil
		}
	}
	return nil
}

// mergeAdjacentLists folds neighbouring lists of the same type into list.
func mergeAdjacentLists(list *html.Node) {
	if !isList(list) {
		return
	}
	for next := nextElement(list); next != nil && dom.Tag(next) == dom.Tag(list); next = nextElement(list) {
		dom.MoveChildren(next, list)
		dom.Remove(next)
	}
	if prev := prevElement(list); prev != nil && dom.Tag(prev) == dom.Tag(list) {
		dom.MoveChildren(list, prev)
		dom.Remove(list)
	}
}

// reselect carries the selection across a block mutation. Element boundaries whose container
// moved follow it; anything else that became invalid collapses into the first touched block.
func (c *Controller) reselect(r selection.Range, moved map[*html.Node]*html.Node, first *html.Node) {
	remap := func(p dom.Position) dom.Position {
		if to, ok := moved[p.Node]; ok {
			p.Node = to
		}
		return p
	}
	next := selection.Range{Anchor: remap(r.Anchor), Focus: remap(r.Focus)}
	if !next.Within(c.body) && first != nil && dom.IsAttached(first, c.body) {
		next = selection.Caret(dom.Position{Node: first})
	}
	c.tracker.Reselect(next)
}
