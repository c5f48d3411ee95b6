package media

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"golang.org/x/net/html"
)

// MinWidth is the narrowest an image can be dragged to, in pixels.
const MinWidth = 50.0

var ErrBadCorner = errors.New("unknown resize corner")

// Resize is one drag of a corner handle. Only the resulting inline size of the image is kept in
// the body.
type Resize struct {
	ins    *Inserter
	fig    *html.Node
	img    *html.Node
	corner Corner
	startW float64
	ratio  float64
}

// BeginResize starts dragging corner of the figure identified by mediaID. width and height are
// the rendered size of its image when the drag starts.
func (i *Inserter) BeginResize(mediaID string, corner Corner, width, height float64) (*Resize, error) {
	fig := dom.FindByMediaID(i.body, mediaID)
	if !dom.IsElement(fig, "figure") {
		return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, mediaID)
	}
	var img *html.Node
	for c := fig.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c, "img") {
			img = c
			break
		}
	}
	if img == nil {
		return nil, fmt.Errorf("%w: %s has no image", ErrMediaNotFound, mediaID)
	}
	known := false
	for _, c := range corners {
		known = known || c == corner
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrBadCorner, corner)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid start size %vx%v", width, height)
	}

	if i.resize != nil {
		i.resize.End()
	}
	dom.AddClass(fig, "resizing")
	i.resize = &Resize{
		ins:    i,
		fig:    fig,
		img:    img,
		corner: corner,
		startW: width,
		ratio:  width / height,
	}
	return i.resize, nil
}

// Resizing returns the drag in progress, if any.
func (i *Inserter) Resizing() *Resize {
	return i.resize
}

// Move applies a horizontal pointer delta measured from the start of the drag and returns the new
// size. Right-hand handles grow with the pointer, left-hand handles shrink.
func (r *Resize) Move(dx float64) (width, height float64) {
	width = r.startW + dx
	if r.corner == TopLeft || r.corner == BottomLeft {
		width = r.startW - dx
	}
	width = math.Max(MinWidth, width)
	height = width / r.ratio
	setSize(r.img, width, height)
	return width, height
}

// End finishes the drag.
func (r *Resize) End() {
	if r.ins.resize != r {
		return
	}
	r.ins.resize = nil
	dom.RemoveClass(r.fig, "resizing")
	r.ins.opts.Changed()
}

func px(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}

// setSize rewrites the width and height declarations of n's inline style, keeping the others.
func setSize(n *html.Node, width, height float64) {
	style, _ := dom.Attr(n, "style")
	var decls []string
	for _, d := range strings.Split(style, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		prop, _, _ := strings.Cut(d, ":")
		switch strings.ToLower(strings.TrimSpace(prop)) {
		case "width", "height":
			continue
		}
		decls = append(decls, d)
	}
	decls = append(decls, "width: "+px(width), "height: "+px(height))
	dom.SetAttr(n, "style", strings.Join(decls, "; ")+";")
}
