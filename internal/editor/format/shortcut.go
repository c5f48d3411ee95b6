package format

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
)

var orderedPrefixRe = regexp.MustCompile(`^\d+\.$`)

func shortcutKind(prefix string) (Kind, bool) {
	switch prefix {
	case "#":
		return Heading1, true
	case "##":
		return Heading2, true
	case "###":
		return Heading3, true
	case ">":
		return Blockquote, true
	case "*", "-":
		return UnorderedList, true
	}
	if orderedPrefixRe.MatchString(prefix) {
		return OrderedList, true
	}
	return "", false
}

// HandleSpaceShortcut converts a Markdown-style prefix typed at the start of a block into the
// matching block format. It runs right after a space was typed: the prefix before the caret is
// deleted, the space stays, and the block format is set. It returns the applied kind, or "" when
// the text before the caret is not a shortcut. ErrNoBlock is returned when the caret is not inside
// a block element.
func (c *Controller) HandleSpaceShortcut() (Kind, error) {
	r := c.tracker.Live()
	if r.IsZero() || !r.Collapsed() || !dom.IsText(r.Anchor.Node) || r.Anchor.Offset == 0 {
		return "", nil
	}
	text := r.Anchor.Node
	typed := dom.SliceText(text.Data, 0, r.Anchor.Offset)
	if !strings.HasSuffix(typed, " ") {
		return "", nil
	}
	prefix := strings.TrimSpace(typed)
	kind, ok := shortcutKind(prefix)
	if !ok {
		return "", nil
	}

	block := dom.NearestAncestorMatching(text, isTextBlock, c.body)
	if block == nil || !dom.IsAttached(text, c.body) {
		formatLogger.Debug().Str("prefix", prefix).Msg("Skipping shortcut without an enclosing block")
		return "", ErrNoBlock
	}
	if dom.TextOffset(block, dom.Position{Node: text}) != 0 {
		return "", nil
	}

	lead := len(typed) - len(strings.TrimLeft(typed, " "))
	cut := utf8.RuneCountInString(typed[:lead]) + utf8.RuneCountInString(prefix)
	text.Data = dom.SliceText(text.Data, 0, cut-utf8.RuneCountInString(prefix)) + dom.SliceText(text.Data, cut, utf8.RuneCountInString(text.Data))
	caret := selection.Caret(dom.Position{Node: text, Offset: r.Anchor.Offset - utf8.RuneCountInString(prefix)})
	c.tracker.Reselect(caret)

	if err := c.SetBlock(kind); err != nil {
		return "", err
	}
	c.tracker.Reselect(caret)
	formatLogger.Debug().Str("kind", string(kind)).Msg("Applied block shortcut")
	return kind, nil
}
