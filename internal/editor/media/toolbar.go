package media

import (
	"fmt"

	"github.com/debemdeboas/inkwell/internal/dom"
	"golang.org/x/net/html"
)

func figcaptionOf(fig *html.Node) *html.Node {
	for c := fig.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c, "figcaption") {
			return c
		}
	}
	return nil
}

// SetCaption replaces the caption text of the figure identified by mediaID. An empty text leaves
// the caption empty so its placeholder shows again. A figure still uploading keeps its caption
// when the upload completes.
func (i *Inserter) SetCaption(mediaID, text string) error {
	fig := dom.FindByMediaID(i.body, mediaID)
	if !dom.IsElement(fig, "figure") {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, mediaID)
	}
	figcap := figcaptionOf(fig)
	if figcap == nil {
		figcap = caption(captionPlaceholder)
		fig.AppendChild(figcap)
	} else if dom.TextContent(figcap) == text {
		return nil
	}
	dom.RemoveChildren(figcap)
	if text != "" {
		figcap.AppendChild(dom.Text(text))
	}
	i.opts.Changed()
	return nil
}

// RemoveMedia deletes the media block identified by mediaID. Removing an upload placeholder
// discards its pending result.
func (i *Inserter) RemoveMedia(mediaID string) error {
	n := dom.FindByMediaID(i.body, mediaID)
	if n == nil || !mediaBlock(n) {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, mediaID)
	}
	if i.resize != nil && i.resize.fig == n {
		i.resize.End()
	}
	dom.Remove(n)
	mediaLogger.Debug().Str("media", mediaID).Str("tag", n.Data).Msg("Media removed")
	i.opts.Changed()
	return nil
}
