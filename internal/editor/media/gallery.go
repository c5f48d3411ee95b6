package media

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

type Layout string

const (
	LayoutGrid      Layout = "grid"
	LayoutCarousel  Layout = "carousel"
	LayoutSlideshow Layout = "slideshow"
)

func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case LayoutGrid, LayoutCarousel, LayoutSlideshow:
		return l, nil
	case "":
		return LayoutGrid, nil
	}
	return "", fmt.Errorf("unknown gallery layout %q", s)
}

// galleryParallelism bounds the uploads of one staging batch.
const galleryParallelism = 4

// Staged is an uploaded image waiting to be placed in a gallery.
type Staged struct {
	URL      string
	FileName string
}

// StageGallery uploads the images among files concurrently. Once every upload has settled, the
// successful ones are appended to the staged list in submission order and done is called through
// Options.Exec with the number of staged and failed files. Non-image files are ignored.
func (i *Inserter) StageGallery(files []File, done func(staged, failed int)) error {
	var images []File
	for _, f := range files {
		if _, err := Check(f, model.MediaImage); err != nil {
			mediaLogger.Debug().Err(err).Str("file", f.Name).Msg("Skipping gallery file")
			continue
		}
		images = append(images, f)
	}
	if len(images) == 0 {
		return ErrNoImages
	}
	if i.opts.Uploader == nil {
		return ErrNoUploader
	}

	batch := i.batch
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		results := make([]model.UploadResponse, len(images))
		errs := make([]error, len(images))

		var g errgroup.Group
		g.SetLimit(galleryParallelism)
		for idx, f := range images {
			g.Go(func() error {
				resp, err := i.opts.Uploader.Upload(i.ctx, f, model.MediaImage)
				if err == nil && !resp.Success {
					err = &UploadError{FileName: f.Name, Message: resp.Message}
				}
				results[idx], errs[idx] = resp, err
				return nil
			})
		}
		_ = g.Wait()

		i.opts.Exec(func() {
			staged, failed := i.applyStaged(batch, images, results, errs)
			if done != nil {
				done(staged, failed)
			}
		})
	}()
	return nil
}

func (i *Inserter) applyStaged(batch uint64, images []File, results []model.UploadResponse, errs []error) (staged, failed int) {
	if batch != i.batch {
		mediaLogger.Debug().Int("files", len(images)).Msg("Discarding uploads of a cancelled gallery")
		return 0, 0
	}
	for idx, resp := range results {
		if errs[idx] != nil {
			mediaLogger.Warn().Err(errs[idx]).Str("file", images[idx].Name).Msg("Gallery upload failed")
			failed++
			continue
		}
		name := resp.FileName
		if name == "" {
			name = images[idx].Name
		}
		i.staged = append(i.staged, Staged{URL: resp.MediaURL, FileName: name})
		staged++
	}
	return staged, failed
}

// Staged returns a copy of the staged list.
func (i *Inserter) Staged() []Staged {
	return append([]Staged(nil), i.staged...)
}

func (i *Inserter) RemoveStaged(idx int) error {
	if idx < 0 || idx >= len(i.staged) {
		return fmt.Errorf("%w: %d", ErrStagedIndex, idx)
	}
	i.staged = append(i.staged[:idx], i.staged[idx+1:]...)
	return nil
}

// CancelGallery clears the staged list. Uploads still in flight are discarded when they settle.
func (i *Inserter) CancelGallery() {
	i.staged = nil
	i.batch++
}

// InsertGallery renders the staged images in layout and clears the staged list.
func (i *Inserter) InsertGallery(layout Layout, captionText string, align Alignment) (string, error) {
	if len(i.staged) == 0 {
		return "", ErrEmptyGallery
	}
	container := dom.Element("div", "class", "gallery-container")
	id := dom.SetMediaID(container)
	dom.SetAttr(container, "id", "gallery-"+id)
	SetAlignment(container, align)

	switch layout {
	case LayoutGrid:
		grid := dom.Element("div", "class", "gallery-grid")
		for _, s := range i.staged {
			grid.AppendChild(dom.Element("img", "src", s.URL, "alt", "Gallery image"))
		}
		container.AppendChild(grid)
	case LayoutCarousel, LayoutSlideshow:
		container.AppendChild(carousel(i.staged, layout == LayoutSlideshow))
	default:
		return "", fmt.Errorf("unknown gallery layout %q", layout)
	}
	if c := strings.TrimSpace(captionText); c != "" {
		div := dom.Element("div", "class", "gallery-caption")
		div.AppendChild(dom.Text(c))
		container.AppendChild(div)
	}

	i.insert(container)
	mediaLogger.Debug().Str("layout", string(layout)).Int("images", len(i.staged)).Msg("Gallery inserted")
	i.staged = nil
	i.batch++
	return id, nil
}

func carousel(images []Staged, slideshow bool) *html.Node {
	class := "gallery-carousel"
	if slideshow {
		class += " slideshow"
	}
	root := dom.Element("div", "class", class)
	inner := dom.Element("div", "class", "carousel-inner")
	for idx, s := range images {
		item := dom.Element("div", "class", "carousel-item", "data-index", strconv.Itoa(idx))
		if idx == 0 {
			dom.AddClass(item, "active")
		}
		item.AppendChild(dom.Element("img", "src", s.URL, "alt", "Gallery image "+strconv.Itoa(idx+1)))
		inner.AppendChild(item)
	}
	root.AppendChild(inner)
	root.AppendChild(control("prev", "Previous", "bi bi-chevron-left"))
	root.AppendChild(control("next", "Next", "bi bi-chevron-right"))
	if slideshow {
		counter := dom.Element("div", "class", "slideshow-counter")
		counter.AppendChild(dom.Text(fmt.Sprintf("1/%d", len(images))))
		root.AppendChild(counter)
	}
	return root
}

func control(dir, label, icon string) *html.Node {
	b := dom.Element("button", "type", "button", "class", "carousel-control "+dir, "aria-label", label)
	b.AppendChild(dom.Element("i", "class", icon))
	return b
}

// StepCarousel moves the carousel or slideshow of a gallery by delta slides, wrapping around at
// both ends, and returns the index of the slide now shown.
func (i *Inserter) StepCarousel(galleryID string, delta int) (int, error) {
	g := dom.FindByMediaID(i.body, galleryID)
	if g == nil || !dom.HasClass(g, "gallery-container") {
		return 0, fmt.Errorf("%w: %s", ErrMediaNotFound, galleryID)
	}
	inner := dom.FindAll(g, func(n *html.Node) bool { return dom.HasClass(n, "carousel-inner") })
	if len(inner) == 0 {
		return 0, ErrNotCarousel
	}
	var items []*html.Node
	cur := 0
	for c := inner[0].FirstChild; c != nil; c = c.NextSibling {
		if dom.HasClass(c, "carousel-item") {
			if dom.HasClass(c, "active") {
				cur = len(items)
			}
			items = append(items, c)
		}
	}
	if len(items) == 0 {
		return 0, ErrNotCarousel
	}

	next := ((cur+delta)%len(items) + len(items)) % len(items)
	for _, it := range items {
		dom.RemoveClass(it, "active")
	}
	dom.AddClass(items[next], "active")
	dom.SetAttr(inner[0], "style", fmt.Sprintf("transform: translateX(%d%%);", -next*100))
	for _, counter := range dom.FindAll(g, func(n *html.Node) bool { return dom.HasClass(n, "slideshow-counter") }) {
		dom.RemoveChildren(counter)
		counter.AppendChild(dom.Text(fmt.Sprintf("%d/%d", next+1, len(items))))
	}
	i.opts.Changed()
	return next, nil
}
