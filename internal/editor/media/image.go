package media

import (
	"errors"
	"net/url"
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/model"
	"golang.org/x/net/html"
)

const (
	captionPlaceholder = "Add a caption (optional)"
	tempPrefix         = "temp-"
)

// UploadError is a failure reported by the media endpoint.
type UploadError struct {
	FileName string
	Message  string
}

func (e *UploadError) Error() string {
	if e.Message == "" {
		return "Upload failed"
	}
	return e.Message
}

func newFigure(src, alt string, figcap *html.Node) *html.Node {
	fig := dom.Element("figure", "class", "content-image")
	dom.SetMediaID(fig)
	fillFigure(fig, src, alt, figcap)
	return fig
}

func fillFigure(fig *html.Node, src, alt string, figcap *html.Node) {
	fig.AppendChild(dom.Element("img", "src", src, "alt", alt))
	if figcap == nil {
		figcap = caption(captionPlaceholder)
	}
	fig.AppendChild(figcap)
	appendResizeHandles(fig)
}

func checkURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", ErrEmptyURL
	}
	if _, err := url.Parse(u); err != nil {
		return "", err
	}
	if scriptScheme(u) {
		return "", errors.New("script urls are not allowed")
	}
	return u, nil
}

// InsertImageFromURL inserts a figure for an external image and returns its media id.
func (i *Inserter) InsertImageFromURL(raw string) (string, error) {
	src, err := checkURL(raw)
	if err != nil {
		return "", err
	}
	fig := newFigure(src, "User added image", nil)
	i.insert(fig)
	return dom.MediaID(fig), nil
}

// InsertImageFromUpload inserts a placeholder figure previewing f and uploads f in the background.
// On success the placeholder becomes the final figure, keeping its alignment; on failure it is
// removed and the writer is alerted. The media id of the placeholder is returned.
func (i *Inserter) InsertImageFromUpload(f File) (string, error) {
	if _, err := Check(f, model.MediaImage); err != nil {
		return "", err
	}
	if i.opts.Uploader == nil {
		return "", ErrNoUploader
	}

	id := dom.NewMediaID()
	tempID := tempPrefix + id
	preview := ""
	if i.opts.Effects != nil {
		preview = i.opts.Effects.ObjectURL(f)
	}
	fig := dom.Element("figure", "class", "content-image", "id", tempID, dom.MediaIDAttr, id)
	fig.AppendChild(dom.Element("img", "src", preview, "alt", "Uploading...", "style", "opacity: 0.7;"))
	status := dom.Element("div", "class", "upload-status")
	status.AppendChild(dom.Text("Uploading image..."))
	fig.AppendChild(status)
	i.insert(fig)

	mediaLogger.Debug().Str("file", f.Name).Str("placeholder", tempID).Msg("Uploading image")
	i.upload(f, model.MediaImage, func(resp model.UploadResponse, err error) {
		i.completeUpload(tempID, resp, err)
	})
	return id, nil
}

// DropFiles inserts one upload placeholder per image in files, in order. Other files are skipped.
func (i *Inserter) DropFiles(files []File) ([]string, error) {
	var ids []string
	for _, f := range files {
		id, err := i.InsertImageFromUpload(f)
		if err != nil {
			if errors.Is(err, ErrNoUploader) {
				return ids, err
			}
			mediaLogger.Debug().Err(err).Str("file", f.Name).Msg("Skipping dropped file")
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, ErrNoImages
	}
	return ids, nil
}

// upload sends f on its own goroutine and applies done through Options.Exec.
func (i *Inserter) upload(f File, kind model.MediaKind, done func(model.UploadResponse, error)) {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		resp, err := i.opts.Uploader.Upload(i.ctx, f, kind)
		if err == nil && !resp.Success {
			err = &UploadError{FileName: f.Name, Message: resp.Message}
		}
		i.opts.Exec(func() { done(resp, err) })
	}()
}

func (i *Inserter) completeUpload(tempID string, resp model.UploadResponse, err error) {
	fig := dom.FindByID(i.body, tempID)
	if fig == nil {
		mediaLogger.Warn().Str("placeholder", tempID).Msg("Placeholder removed before the upload completed")
		return
	}
	if err != nil {
		mediaLogger.Error().Err(err).Str("placeholder", tempID).Msg("Image upload failed")
		dom.Remove(fig)
		i.alert("Error uploading image: " + err.Error())
		i.opts.Changed()
		return
	}

	figcap := figcaptionOf(fig)
	dom.RemoveChildren(fig)
	fillFigure(fig, resp.MediaURL, "User uploaded image", figcap)
	dom.RemoveAttr(fig, "id")
	mediaLogger.Debug().Str("url", resp.MediaURL).Msg("Image uploaded")
	i.opts.Changed()
}

// InsertPhoto inserts a photo-search result with its attribution as the caption.
func (i *Inserter) InsertPhoto(p model.Photo) (string, error) {
	src := p.URLs.Regular
	if src == "" {
		src = p.URLs.Full
	}
	src, err := checkURL(src)
	if err != nil {
		return "", err
	}
	alt := p.Description
	if alt == "" {
		alt = "Photo by " + p.AuthorName
	}

	figcap := caption(captionPlaceholder)
	figcap.AppendChild(dom.Text("Photo by "))
	figcap.AppendChild(i.referralAnchor(p.AuthorLink, p.AuthorName))
	figcap.AppendChild(dom.Text(" on "))
	figcap.AppendChild(i.referralAnchor("https://unsplash.com/", "Unsplash"))

	fig := newFigure(src, alt, figcap)
	i.insert(fig)
	return dom.MediaID(fig), nil
}

func (i *Inserter) referralAnchor(link, text string) *html.Node {
	href := link
	if u, err := url.Parse(link); err == nil {
		q := u.Query()
		q.Set("utm_source", i.opts.Referral)
		q.Set("utm_medium", "referral")
		u.RawQuery = q.Encode()
		href = u.String()
	}
	a := dom.Element("a", "href", href, "target", "_blank", "rel", "noopener")
	a.AppendChild(dom.Text(text))
	return a
}
