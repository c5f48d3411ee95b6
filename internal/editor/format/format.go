// Package format applies inline and block formatting to the tracked selection as explicit tree
// mutations, and answers which formats are active at the caret.
package format

import (
	"errors"
	"sort"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

var formatLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	formatLogger = l
}

type Kind string

const (
	Bold          Kind = "bold"
	Italic        Kind = "italic"
	Underline     Kind = "underline"
	Strikethrough Kind = "strikethrough"
	Heading1      Kind = "h1"
	Heading2      Kind = "h2"
	Heading3      Kind = "h3"
	Blockquote    Kind = "blockquote"
	OrderedList   Kind = "orderedList"
	UnorderedList Kind = "unorderedList"
	Link          Kind = "link"
	Highlight     Kind = "highlight"
	InlineCode    Kind = "inlineCode"
)

var (
	ErrNoSelection = errors.New("nothing is selected")
	ErrEmptyURL    = errors.New("link url is empty")
	ErrEmptyColor  = errors.New("highlight color is empty")
	ErrNoBlock     = errors.New("no enclosing block")
	ErrUnsupported = errors.New("unsupported format")
)

// HighlightPrefix starts the class of every highlight span.
const HighlightPrefix = "highlight-"

// Set is a set of active formats.
type Set map[Kind]bool

func (s Set) Has(k Kind) bool {
	return s[k]
}

// Kinds returns the members of s in a stable order.
func (s Set) Kinds() []Kind {
	out := make([]Kind, 0, len(s))
	for k, ok := range s {
		if ok {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Controller mutates body at the selection held by tracker. It shares the tracker's serialisation
// requirements.
type Controller struct {
	body    *html.Node
	tracker *selection.Tracker
}

func NewController(body *html.Node, tracker *selection.Tracker) *Controller {
	return &Controller{body: body, tracker: tracker}
}

// target restores the cached selection and returns it.
func (c *Controller) target() selection.Range {
	if !c.tracker.Restore() {
		formatLogger.Debug().Msg("Selection restore failed, using caret at end of body")
	}
	return c.tracker.Live()
}

var predicates = map[Kind]func(*html.Node) bool{
	Bold:          tagIn("strong", "b"),
	Italic:        tagIn("em", "i"),
	Underline:     tagIn("u"),
	Strikethrough: tagIn("s", "strike", "del"),
	Heading1:      tagIn("h1"),
	Heading2:      tagIn("h2"),
	Heading3:      tagIn("h3"),
	Blockquote:    tagIn("blockquote"),
	OrderedList:   listItemOf("ol"),
	UnorderedList: listItemOf("ul"),
	Link:          tagIn("a"),
	Highlight:     isHighlight,
	InlineCode:    tagIn("code"),
}

func tagIn(tags ...string) func(*html.Node) bool {
	return func(n *html.Node) bool { return dom.IsElement(n, tags...) }
}

func listItemOf(list string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return dom.IsElement(n, "li") && dom.IsElement(n.Parent, list)
	}
}

func isHighlight(n *html.Node) bool {
	if !dom.IsElement(n, "span") {
		return false
	}
	_, ok := dom.ClassWithPrefix(n, HighlightPrefix)
	return ok
}

// ActiveCommands walks from the common ancestor of the live selection to the body and reports
// every format found on the way. It never mutates anything.
func (c *Controller) ActiveCommands() Set {
	set := Set{}
	ca := c.tracker.Live().CommonAncestor()
	if ca == nil || !dom.IsAttached(ca, c.body) {
		return set
	}
	for k, pred := range predicates {
		if dom.NearestAncestorMatching(ca, pred, c.body) != nil {
			set[k] = true
		}
	}
	return set
}

// LinkAt returns the href of the link enclosing the live selection.
func (c *Controller) LinkAt() (string, bool) {
	ca := c.tracker.Live().CommonAncestor()
	if ca == nil {
		return "", false
	}
	a := dom.NearestAncestorMatching(ca, predicates[Link], c.body)
	if a == nil {
		return "", false
	}
	return dom.Attr(a, "href")
}

// restore re-establishes the selection after a mutation that kept the text intact.
func (c *Controller) restore(start, end int) {
	c.tracker.Reselect(selection.FromOffsets(c.body, start, end))
}
