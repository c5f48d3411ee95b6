package dom

import (
	"slices"

	"golang.org/x/net/html"
)

// Inline wrappers that Normalize may merge when adjacent and drop when empty.
var mergeable = map[string]bool{
	"strong": true, "b": true, "em": true, "i": true, "u": true, "s": true, "strike": true,
	"del": true, "span": true, "code": true, "a": true, "mark": true,
}

// Remove detaches n from its parent. Detached nodes are left untouched.
func Remove(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// InsertAfter places n right after ref in ref's parent.
func InsertAfter(ref, n *html.Node) {
	Remove(n)
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// InsertAt places n at the boundary point p. A text position is split first.
func InsertAt(p Position, n *html.Node) {
	Remove(n)
	if p.Node.Type == html.TextNode {
		right := SplitText(p.Node, p.Offset)
		p.Node.Parent.InsertBefore(n, right)
		return
	}
	p.Node.InsertBefore(n, ChildAt(p.Node, p.Offset))
}

// MoveChildren appends every child of from to to, preserving order.
func MoveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; c = from.FirstChild {
		from.RemoveChild(c)
		to.AppendChild(c)
	}
}

// Unwrap hoists the children of n into its parent in place of n and deletes n.
func Unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
}

// Wrap inserts wrapper in n's place and moves n into it.
func Wrap(n, wrapper *html.Node) {
	n.Parent.InsertBefore(wrapper, n)
	n.Parent.RemoveChild(n)
	wrapper.AppendChild(n)
}

// Replace swaps old for n in the tree.
func Replace(old, n *html.Node) {
	old.Parent.InsertBefore(n, old)
	old.Parent.RemoveChild(old)
}

// SplitText cuts the text node t at rune offset off and returns the new right-hand node, which is
// inserted right after t. Either half may be empty.
func SplitText(t *html.Node, off int) *html.Node {
	i := byteIndex(t.Data, off)
	right := Text(t.Data[i:])
	t.Data = t.Data[:i]
	if t.Parent != nil {
		t.Parent.InsertBefore(right, t.NextSibling)
	}
	return right
}

// SplitBefore splits every element from node's parent up to and including ancestor so that node
// and everything after it inside ancestor move to a shallow clone of ancestor placed right after
// it. node must be a strict descendant of ancestor and ancestor must have a parent. The clone is
// returned; the original ancestor may be left empty.
func SplitBefore(ancestor, node *html.Node) *html.Node {
	if ancestor.Parent == nil || node == ancestor || !IsAttached(node, ancestor) {
		return nil
	}
	child := node
	start := node
	for {
		parent := child.Parent
		clone := ShallowClone(parent)
		for s := start; s != nil; {
			next := s.NextSibling
			parent.RemoveChild(s)
			clone.AppendChild(s)
			s = next
		}
		parent.Parent.InsertBefore(clone, parent.NextSibling)
		if parent == ancestor {
			return clone
		}
		start = clone
		child = parent
	}
}

// Isolate splits ancestor around node so that node ends up alone inside a copy of ancestor. The
// copy is returned. Empty shells left behind are removed by Normalize.
func Isolate(ancestor, node *html.Node) *html.Node {
	isolated := SplitBefore(ancestor, node)
	if isolated == nil {
		return nil
	}
	for cur := node; cur != isolated; cur = cur.Parent {
		if cur.NextSibling != nil {
			SplitBefore(isolated, cur.NextSibling)
			break
		}
	}
	return isolated
}

func sameAttrs(a, b *html.Node) bool {
	if len(a.Attr) != len(b.Attr) {
		return false
	}
	for _, attr := range a.Attr {
		v, ok := Attr(b, attr.Key)
		if !ok || v != attr.Val {
			return false
		}
	}
	return true
}

// SameWrapper reports whether two elements carry the same tag and attributes.
func SameWrapper(a, b *html.Node) bool {
	return a != nil && b != nil && Tag(a) != "" && Tag(a) == Tag(b) && sameAttrs(a, b)
}

// Normalize merges adjacent text nodes and adjacent identical inline wrappers under root, and
// removes empty text nodes and empty inline wrappers. root itself is never removed.
func Normalize(root *html.Node) {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		Normalize(c)
		if c.Type == html.TextNode && c.Data == "" {
			root.RemoveChild(c)
		} else if mergeable[Tag(c)] && c.FirstChild == nil {
			root.RemoveChild(c)
		}
		c = next
	}
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		if next == nil {
			break
		}
		switch {
		case c.Type == html.TextNode && next.Type == html.TextNode:
			c.Data += next.Data
			root.RemoveChild(next)
			continue
		case mergeable[Tag(c)] && SameWrapper(c, next):
			MoveChildren(next, c)
			root.RemoveChild(next)
			Normalize(c)
			continue
		}
		c = next
	}
}

// Ancestors returns n's ancestors, nearest first, stopping before boundary.
func Ancestors(n, boundary *html.Node) []*html.Node {
	var out []*html.Node
	for cur := n.Parent; cur != nil && cur != boundary; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// CommonAncestor returns the deepest node containing both a and b, or nil when they live in
// different trees.
func CommonAncestor(a, b *html.Node) *html.Node {
	var chain []*html.Node
	for cur := a; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for cur := b; cur != nil; cur = cur.Parent {
		if slices.Contains(chain, cur) {
			return cur
		}
	}
	return nil
}
