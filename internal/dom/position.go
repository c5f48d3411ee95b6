package dom

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Position is a boundary point in a tree. For text nodes Offset counts runes, for elements it
// counts children.
type Position struct {
	Node   *html.Node
	Offset int
}

// MaxOffset is the largest valid offset inside n.
func MaxOffset(n *html.Node) int {
	if n.Type == html.TextNode {
		return utf8.RuneCountInString(n.Data)
	}
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		i++
	}
	return i
}

// Valid reports whether the position refers to a node attached under root with an in-range offset.
func (p Position) Valid(root *html.Node) bool {
	if p.Node == nil || !IsAttached(p.Node, root) {
		return false
	}
	return p.Offset >= 0 && p.Offset <= MaxOffset(p.Node)
}

// Before returns the position right before n in its parent.
func Before(n *html.Node) Position {
	return Position{Node: n.Parent, Offset: ChildIndex(n)}
}

// After returns the position right after n in its parent.
func After(n *html.Node) Position {
	return Position{Node: n.Parent, Offset: ChildIndex(n) + 1}
}

// End returns the position after the last child (or last rune) of n.
func End(n *html.Node) Position {
	return Position{Node: n, Offset: MaxOffset(n)}
}

func path(n *html.Node) []int {
	var rev []int
	for cur := n; cur.Parent != nil; cur = cur.Parent {
		rev = append(rev, ChildIndex(cur))
	}
	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}

// Compare orders two positions in document order, returning -1, 0 or 1.
func Compare(a, b Position) int {
	pa := append(path(a.Node), a.Offset)
	pb := append(path(b.Node), b.Offset)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	}
	return 0
}

// TextOffset converts p into the number of runes of text under root that precede it.
func TextOffset(root *html.Node, p Position) int {
	off := 0
	for _, t := range TextNodes(root) {
		if t == p.Node {
			return off + p.Offset
		}
		l := utf8.RuneCountInString(t.Data)
		if Compare(Position{Node: t, Offset: l}, p) > 0 {
			break
		}
		off += l
	}
	return off
}

// PositionAtTextOffset is the inverse of TextOffset. When the offset falls on the boundary between
// two text nodes, forward selects the start of the later node and !forward the end of the earlier.
func PositionAtTextOffset(root *html.Node, off int, forward bool) Position {
	texts := TextNodes(root)
	if len(texts) == 0 {
		return End(root)
	}
	for _, t := range texts {
		l := utf8.RuneCountInString(t.Data)
		if (forward && off < l) || (!forward && off <= l) {
			if off < 0 {
				off = 0
			}
			return Position{Node: t, Offset: off}
		}
		off -= l
	}
	last := texts[len(texts)-1]
	return End(last)
}

func byteIndex(s string, runeOff int) int {
	if runeOff <= 0 {
		return 0
	}
	i := 0
	for pos := range s {
		if i == runeOff {
			return pos
		}
		i++
	}
	return len(s)
}

// SliceText returns the runes [from, to) of a text node's data.
func SliceText(s string, from, to int) string {
	return s[byteIndex(s, from):byteIndex(s, to)]
}
