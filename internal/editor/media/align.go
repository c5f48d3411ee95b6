package media

import (
	"fmt"

	"github.com/debemdeboas/inkwell/internal/dom"
	"golang.org/x/net/html"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

const alignPrefix = "img-align-"

func ParseAlignment(s string) (Alignment, error) {
	switch a := Alignment(s); a {
	case AlignLeft, AlignCenter, AlignRight:
		return a, nil
	case "":
		return AlignCenter, nil
	}
	return "", fmt.Errorf("unknown alignment %q", s)
}

// AlignmentOf reads the alignment of a figure or gallery. No alignment class and an explicit
// centre class both mean centre.
func AlignmentOf(n *html.Node) Alignment {
	switch {
	case dom.HasClass(n, alignPrefix+string(AlignLeft)):
		return AlignLeft
	case dom.HasClass(n, alignPrefix+string(AlignRight)):
		return AlignRight
	}
	return AlignCenter
}

// SetAlignment replaces any alignment class of n. Centre is stored as the absence of a class.
func SetAlignment(n *html.Node, a Alignment) {
	dom.RemoveClass(n,
		alignPrefix+string(AlignLeft),
		alignPrefix+string(AlignCenter),
		alignPrefix+string(AlignRight),
	)
	if a == AlignLeft || a == AlignRight {
		dom.AddClass(n, alignPrefix+string(a))
	}
}

// NormalizeAlignment rewrites every non-canonical alignment under root and reports how many
// elements changed.
func NormalizeAlignment(root *html.Node) int {
	changed := 0
	for _, n := range dom.FindAll(root, func(n *html.Node) bool {
		return dom.HasClass(n, alignPrefix+string(AlignCenter)) ||
			(dom.HasClass(n, alignPrefix+string(AlignLeft)) && dom.HasClass(n, alignPrefix+string(AlignRight)))
	}) {
		SetAlignment(n, AlignmentOf(n))
		changed++
	}
	return changed
}

func alignable(n *html.Node) bool {
	return dom.IsElement(n, "figure") || (dom.IsElement(n, "div") && dom.HasClass(n, "gallery-container"))
}

// Align sets the alignment of the figure or gallery identified by mediaID.
func (i *Inserter) Align(mediaID string, a Alignment) error {
	n := dom.FindByMediaID(i.body, mediaID)
	if n == nil || !alignable(n) {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, mediaID)
	}
	if AlignmentOf(n) == a && !dom.HasClass(n, alignPrefix+string(AlignCenter)) {
		return nil
	}
	SetAlignment(n, a)
	i.opts.Changed()
	return nil
}
