// Package dom provides helpers over golang.org/x/net/html trees: queries that never mutate, and the
// handful of structural mutations the editor commands are built from.
package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "li": true, "pre": true, "figure": true, "ul": true, "ol": true, "hr": true,
}

// Element creates a detached element. attrs are key/value pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Tag returns the lower-case tag name of an element, or "" for any other node type.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// IsElement reports whether n is an element with one of the given tags.
// With no tags it reports whether n is an element at all.
func IsElement(n *html.Node, tags ...string) bool {
	t := Tag(n)
	if t == "" {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

func IsBlock(n *html.Node) bool {
	return blockTags[Tag(n)]
}

// Rename changes an element's tag in place, keeping attributes and children.
func Rename(n *html.Node, tag string) {
	n.Data = tag
	n.DataAtom = atom.Lookup([]byte(tag))
}

func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// ClassWithPrefix returns the first class of n starting with prefix.
func ClassWithPrefix(n *html.Node, prefix string) (string, bool) {
	for _, c := range Classes(n) {
		if strings.HasPrefix(c, prefix) {
			return c, true
		}
	}
	return "", false
}

func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	SetAttr(n, "class", strings.TrimSpace(strings.Join(append(Classes(n), class), " ")))
}

func RemoveClass(n *html.Node, classes ...string) {
	drop := make(map[string]bool, len(classes))
	for _, c := range classes {
		drop[c] = true
	}
	kept := make([]string, 0)
	for _, c := range Classes(n) {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Walk visits n and its descendants in document order. Returning false from fn skips the
// children of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// TextNodes returns every text node under root in document order.
func TextNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			out = append(out, n)
		}
		return true
	})
	return out
}

func TextContent(n *html.Node) string {
	var b strings.Builder
	for _, t := range TextNodes(n) {
		b.WriteString(t.Data)
	}
	return b.String()
}

func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func ChildIndex(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

// ChildAt returns the i-th child of n or nil when out of range.
func ChildAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// NearestAncestorMatching walks from n (inclusive) towards the root and returns the first node
// satisfying pred. The walk stops before boundary; boundary itself is never returned.
func NearestAncestorMatching(n *html.Node, pred func(*html.Node) bool, boundary *html.Node) *html.Node {
	for cur := n; cur != nil && cur != boundary; cur = cur.Parent {
		if pred(cur) {
			return cur
		}
	}
	return nil
}

// IsAttached reports whether n is root or one of its descendants.
func IsAttached(n, root *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
	}
	return false
}

// FindByAttr returns the first element under root whose attribute key equals val.
func FindByAttr(root *html.Node, key, val string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, ok := Attr(n, key); ok && v == val {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

func FindByID(root *html.Node, id string) *html.Node {
	return FindByAttr(root, "id", id)
}

// FindAll returns every element under root (excluding root) matching pred.
func FindAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, func(n *html.Node) bool {
			if n.Type == html.ElementNode && pred(n) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

// InnerHTML serialises the children of n.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			domLogger.Error().Err(err).Msg("Failed to render node")
		}
	}
	return buf.String()
}

// OuterHTML serialises n itself.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		domLogger.Error().Err(err).Msg("Failed to render node")
	}
	return buf.String()
}

// ParseFragment parses src as the content of a <div>.
func ParseFragment(src string) ([]*html.Node, error) {
	ctx := Element("div")
	return html.ParseFragment(strings.NewReader(src), ctx)
}

// SetInnerHTML replaces every child of n with the parsed fragment.
func SetInnerHTML(n *html.Node, src string) error {
	nodes, err := ParseFragment(src)
	if err != nil {
		return err
	}
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// Clone returns a detached deep copy of n.
func Clone(n *html.Node) *html.Node {
	c := ShallowClone(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// ShallowClone copies n's type, tag, data and attributes but none of its children.
func ShallowClone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	return c
}

// IsEmpty reports whether n has no text and no void content such as images or line breaks.
func IsEmpty(n *html.Node) bool {
	empty := true
	Walk(n, func(c *html.Node) bool {
		if !empty {
			return false
		}
		switch {
		case c.Type == html.TextNode && c.Data != "":
			empty = false
		case IsElement(c, "img", "br", "hr", "iframe", "video", "input"):
			empty = false
		}
		return true
	})
	return empty
}
