package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"golang.org/x/net/html"
)

var inlineWrappers = map[Kind]string{
	Bold:          "strong",
	Italic:        "em",
	Underline:     "u",
	Strikethrough: "s",
}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// Every inline wrapper RemoveFormat strips. Links survive.
var formatting = tagIn("strong", "b", "em", "i", "u", "s", "strike", "del", "code", "mark")

// splitRange splits the boundary text nodes of r and returns every non-empty text node that now
// lies wholly inside it, in document order.
func (c *Controller) splitRange(r selection.Range) []*html.Node {
	s, e := r.Start(), r.End()
	endNode := e.Node
	if dom.IsText(e.Node) {
		dom.SplitText(e.Node, e.Offset)
	}
	startPos := s
	if dom.IsText(s.Node) {
		right := dom.SplitText(s.Node, s.Offset)
		if s.Node == e.Node {
			endNode = right
		}
		startPos = dom.Position{Node: right}
	}
	endPos := e
	if dom.IsText(endNode) {
		endPos = dom.End(endNode)
	}

	var out []*html.Node
	for _, t := range dom.TextNodes(c.body) {
		if t.Data == "" || c.ignorable(t) {
			continue
		}
		if dom.Compare(dom.Position{Node: t}, startPos) >= 0 && dom.Compare(dom.End(t), endPos) <= 0 {
			out = append(out, t)
		}
	}
	return out
}

// ignorable reports inter-block whitespace that no inline format should wrap.
func (c *Controller) ignorable(t *html.Node) bool {
	if strings.TrimSpace(t.Data) != "" {
		return false
	}
	return t.Parent == c.body || dom.IsElement(t.Parent, "ul", "ol", "blockquote")
}

// selectedTexts restores the selection and splits it. It fails when nothing textual is selected.
func (c *Controller) selectedTexts() ([]*html.Node, int, int, error) {
	r := c.target()
	if r.Collapsed() {
		return nil, 0, 0, ErrNoSelection
	}
	start, end := r.Offsets(c.body)
	texts := c.splitRange(r)
	if len(texts) == 0 {
		dom.Normalize(c.body)
		c.restore(start, end)
		return nil, 0, 0, ErrNoSelection
	}
	return texts, start, end, nil
}

func (c *Controller) strip(t *html.Node, pred func(*html.Node) bool) {
	for {
		a := dom.NearestAncestorMatching(t, pred, c.body)
		if a == nil {
			return
		}
		dom.Unwrap(dom.Isolate(a, t))
	}
}

func (c *Controller) wrapAll(texts []*html.Node, pred func(*html.Node) bool, wrapper func() *html.Node) {
	for _, t := range texts {
		if pred != nil && dom.NearestAncestorMatching(t, pred, c.body) != nil {
			continue
		}
		dom.Wrap(t, wrapper())
	}
}

// ApplyInline toggles an inline format. The format counts as active when every selected text node
// already carries it; an active format is removed, otherwise it is applied to the whole selection.
func (c *Controller) ApplyInline(kind Kind) error {
	tag, ok := inlineWrappers[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	texts, start, end, err := c.selectedTexts()
	if err != nil {
		return err
	}
	pred := predicates[kind]
	active := true
	for _, t := range texts {
		if dom.NearestAncestorMatching(t, pred, c.body) == nil {
			active = false
			break
		}
	}
	if active {
		for _, t := range texts {
			c.strip(t, pred)
		}
	} else {
		c.wrapAll(texts, pred, func() *html.Node { return dom.Element(tag) })
	}
	dom.Normalize(c.body)
	c.restore(start, end)
	formatLogger.Debug().Str("kind", string(kind)).Bool("removed", active).Int("nodes", len(texts)).Msg("Applied inline format")
	return nil
}

// NormalizeURL trims url and prefixes https:// unless it already has an http(s) scheme.
func NormalizeURL(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrEmptyURL
	}
	if !schemeRe.MatchString(url) {
		url = "https://" + url
	}
	return url, nil
}

// ApplyLink wraps the selection in an anchor opening in a new tab. Links already inside the
// selection are replaced.
func (c *Controller) ApplyLink(url string) error {
	href, err := NormalizeURL(url)
	if err != nil {
		return err
	}
	texts, start, end, err := c.selectedTexts()
	if err != nil {
		return err
	}
	for _, t := range texts {
		c.strip(t, predicates[Link])
	}
	c.wrapAll(texts, nil, func() *html.Node {
		return dom.Element("a", "href", href, "target", "_blank", "rel", "noopener")
	})
	dom.Normalize(c.body)
	c.restore(start, end)
	return nil
}

// RemoveLink unwraps the link around the caret, or every link touching the selection.
func (c *Controller) RemoveLink() error {
	r := c.target()
	if r.Collapsed() {
		a := dom.NearestAncestorMatching(r.Anchor.Node, predicates[Link], c.body)
		if a == nil {
			return ErrNoSelection
		}
		start, end := r.Offsets(c.body)
		dom.Unwrap(a)
		dom.Normalize(c.body)
		c.restore(start, end)
		return nil
	}
	texts, start, end, err := c.selectedTexts()
	if err != nil {
		return err
	}
	for _, t := range texts {
		c.strip(t, predicates[Link])
	}
	dom.Normalize(c.body)
	c.restore(start, end)
	return nil
}

// ApplyHighlight wraps the selection in a span carrying the color class, replacing any other
// highlight inside it.
func (c *Controller) ApplyHighlight(color string) error {
	color = strings.TrimSpace(color)
	if color == "" {
		return ErrEmptyColor
	}
	texts, start, end, err := c.selectedTexts()
	if err != nil {
		return err
	}
	for _, t := range texts {
		c.strip(t, isHighlight)
	}
	c.wrapAll(texts, nil, func() *html.Node {
		return dom.Element("span", "class", HighlightPrefix+color)
	})
	dom.Normalize(c.body)
	c.restore(start, end)
	return nil
}

// RemoveHighlight unwraps the nearest highlight span enclosing the selection. Without one it falls
// back to RemoveFormat.
func (c *Controller) RemoveHighlight() error {
	r := c.target()
	if r.Collapsed() {
		return ErrNoSelection
	}
	if span := dom.NearestAncestorMatching(r.CommonAncestor(), isHighlight, c.body); span != nil {
		start, end := r.Offsets(c.body)
		dom.Unwrap(span)
		dom.Normalize(c.body)
		c.restore(start, end)
		return nil
	}
	return c.RemoveFormat()
}

// RemoveFormat strips every inline format and highlight from the selection.
func (c *Controller) RemoveFormat() error {
	texts, start, end, err := c.selectedTexts()
	if err != nil {
		return err
	}
	for _, t := range texts {
		c.strip(t, func(n *html.Node) bool { return formatting(n) || isHighlight(n) })
	}
	dom.Normalize(c.body)
	c.restore(start, end)
	return nil
}

// InsertInlineCode replaces the selection with its plain text inside a code element. Markup in
// the text is escaped when the body is serialised. A selection spanning blocks gets one code
// element per block so no text leaves its block.
func (c *Controller) InsertInlineCode() error {
	texts, start, end, err := c.selectedTexts()
	if err != nil {
		return err
	}
	var run []*html.Node
	var block *html.Node
	for _, t := range texts {
		b := dom.NearestAncestorMatching(t, isTextBlock, c.body)
		if len(run) > 0 && b != block {
			wrapCode(run)
			run = nil
		}
		block = b
		run = append(run, t)
	}
	wrapCode(run)
	dom.Normalize(c.body)
	c.restore(start, end)
	return nil
}

// wrapCode moves the text of run into one code element placed where its first node was.
func wrapCode(run []*html.Node) {
	var b strings.Builder
	for _, t := range run {
		b.WriteString(t.Data)
	}
	code := dom.Element("code")
	code.AppendChild(dom.Text(b.String()))
	run[0].Parent.InsertBefore(code, run[0])
	for _, t := range run {
		dom.Remove(t)
	}
}
