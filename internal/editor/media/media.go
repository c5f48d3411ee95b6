// Package media inserts images, videos, embeds, code blocks, dividers and galleries into the
// editor body at the tracked caret.
package media

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

var mediaLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	mediaLogger = l
}

var (
	ErrNotImage         = errors.New("file is not an image")
	ErrUnsupportedType  = errors.New("file type is not allowed")
	ErrEmptyURL         = errors.New("url is empty")
	ErrUnsupportedVideo = errors.New("unsupported video url")
	ErrEmptyEmbed       = errors.New("embed code is empty")
	ErrEmptyCode        = errors.New("code is empty")
	ErrNoImages         = errors.New("no image files selected")
	ErrEmptyGallery     = errors.New("no images staged for the gallery")
	ErrStagedIndex      = errors.New("staged image index out of range")
	ErrMediaNotFound    = errors.New("media block not found")
	ErrNotCarousel      = errors.New("gallery has no carousel")
	ErrNoUploader       = errors.New("no uploader configured")
	ErrEmptyPaste       = errors.New("nothing to paste")
)

var alerts = []struct {
	err error
	msg string
}{
	{ErrNotImage, "Please select an image file."},
	{ErrUnsupportedType, "This file type is not supported."},
	{ErrEmptyURL, "Please enter a URL."},
	{ErrUnsupportedVideo, "Unsupported video URL. Please use YouTube or Vimeo links."},
	{ErrEmptyEmbed, "Please enter embed code."},
	{ErrEmptyCode, "Please enter some code."},
	{ErrNoImages, "Please select only image files."},
	{ErrEmptyGallery, "Please add at least one image to the gallery."},
}

// AlertText returns the message shown to the writer for an error returned by an Inserter.
func AlertText(err error) string {
	for _, a := range alerts {
		if errors.Is(err, a.err) {
			return a.msg
		}
	}
	return err.Error()
}

// File is a file picked or dropped by the writer.
type File struct {
	Name string
	// Type is the MIME type declared by the picker. It may be empty.
	Type string
	Data []byte
}

// Uploader sends one file to the media endpoint.
type Uploader interface {
	Upload(ctx context.Context, f File, kind model.MediaKind) (model.UploadResponse, error)
}

// Effects are the UI side effects the inserter needs from its host.
type Effects interface {
	Alert(message string)
	// ObjectURL returns a local preview URL for f.
	ObjectURL(f File) string
}

type Options struct {
	Uploader Uploader
	Effects  Effects
	// Exec wraps upload completions so they run under the owner's serialisation.
	Exec func(func())
	// Changed is called after every mutation of the body.
	Changed func()
	// Referral is the utm_source added to photo attribution links.
	Referral string
}

// Inserter shares the tracker's serialisation requirements. Upload completions re-enter through
// Options.Exec.
type Inserter struct {
	ctx     context.Context
	cancel  context.CancelFunc
	body    *html.Node
	tracker *selection.Tracker
	opts    Options
	wg      sync.WaitGroup

	staged []Staged
	batch  uint64
	resize *Resize
}

func NewInserter(body *html.Node, tracker *selection.Tracker, opts Options) *Inserter {
	if opts.Exec == nil {
		opts.Exec = func(f func()) { f() }
	}
	if opts.Changed == nil {
		opts.Changed = func() {}
	}
	if opts.Referral == "" {
		opts.Referral = "inkwell"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Inserter{ctx: ctx, cancel: cancel, body: body, tracker: tracker, opts: opts}
}

// Wait blocks until every in-flight upload has been applied. It must not be called while holding
// the serialisation that Options.Exec acquires.
func (i *Inserter) Wait() {
	i.wg.Wait()
}

// Dispose aborts in-flight uploads. Their placeholders are removed when the failures are applied.
func (i *Inserter) Dispose() {
	i.cancel()
}

func (i *Inserter) alert(msg string) {
	if i.opts.Effects != nil {
		i.opts.Effects.Alert(msg)
	}
}

// mediaBlock reports whether n is a block produced by the inserter. Such blocks are never split.
func mediaBlock(n *html.Node) bool {
	switch {
	case dom.IsElement(n, "figure", "hr"):
		return true
	case dom.IsElement(n, "pre") && dom.HasClass(n, "code-block"):
		return true
	case dom.IsElement(n, "div"):
		return dom.HasClass(n, "video-container") || dom.HasClass(n, "embed-container") ||
			dom.HasClass(n, "gallery-container")
	}
	return false
}

// anchor resolves where new top-level blocks go for the caret p: they are inserted into the body
// before the returned node, or appended when it is nil. reuse is the empty paragraph the caret sat
// in, which then follows the inserted blocks.
func (i *Inserter) anchor(p dom.Position) (before, reuse *html.Node) {
	if p.Node == nil || !p.Valid(i.body) {
		return nil, nil
	}
	if p.Node == i.body {
		if prev := dom.ChildAt(i.body, p.Offset-1); dom.IsElement(prev, "p") && blank(prev) {
			return prev, prev
		}
		return dom.ChildAt(i.body, p.Offset), nil
	}
	top := p.Node
	for top.Parent != i.body {
		top = top.Parent
	}
	if mediaBlock(top) {
		return top.NextSibling, nil
	}
	if dom.IsElement(top, "p") && blank(top) {
		return top, top
	}

	off := dom.TextOffset(top, p)
	total := utf8.RuneCountInString(dom.TextContent(top))
	switch {
	case off <= 0:
		return top, nil
	case off >= total:
		return top.NextSibling, nil
	}
	return splitAt(top, p), nil
}

// splitAt cuts top at p and returns the right-hand half.
func splitAt(top *html.Node, p dom.Position) *html.Node {
	if p.Node == top && top.Type == html.TextNode {
		return dom.SplitText(top, p.Offset)
	}
	var node *html.Node
	if p.Node.Type == html.TextNode {
		node = dom.SplitText(p.Node, p.Offset)
	} else if node = dom.ChildAt(p.Node, p.Offset); node == nil {
		return top.NextSibling
	}
	return dom.SplitBefore(top, node)
}

// insert restores the cached selection and places blocks at the caret, followed by an empty
// paragraph that receives the caret.
func (i *Inserter) insert(blocks ...*html.Node) {
	i.tracker.Restore()
	before, trailing := i.anchor(i.tracker.Live().End())
	for _, b := range blocks {
		i.body.InsertBefore(b, before)
	}
	if trailing == nil {
		trailing = emptyParagraph()
		i.body.InsertBefore(trailing, before)
	}
	i.tracker.Reselect(selection.Caret(dom.Position{Node: trailing, Offset: 0}))
	i.opts.Changed()
}

// blank reports whether p holds nothing but line breaks and whitespace.
func blank(p *html.Node) bool {
	if strings.TrimSpace(dom.TextContent(p)) != "" {
		return false
	}
	return len(dom.FindAll(p, func(c *html.Node) bool { return !dom.IsElement(c, "br") })) == 0
}

func emptyParagraph() *html.Node {
	p := dom.Element("p")
	p.AppendChild(dom.Element("br"))
	return p
}

func caption(placeholder string) *html.Node {
	return dom.Element("figcaption", "contenteditable", "true", "data-placeholder", placeholder)
}

// Corner names a resize handle.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

var corners = []Corner{TopLeft, TopRight, BottomLeft, BottomRight}

func appendResizeHandles(fig *html.Node) {
	for _, c := range corners {
		fig.AppendChild(dom.Element("div", "class", "resize-handle "+string(c)))
	}
}
