package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/debemdeboas/inkwell/internal/editor/media"
	"github.com/debemdeboas/inkwell/internal/model"
)

// ErrNoMorePhotos is returned when the last photo search has no further pages.
var ErrNoMorePhotos = errors.New("no more photos")

// mediaCommand runs fn and alerts the writer when it fails. Successful inserters notify the
// session themselves through their Changed option.
func (s *Session) mediaCommand(fn func() error) error {
	return s.do(func() error {
		if err := fn(); err != nil {
			editorLogger.Debug().Err(err).Msg("Media command rejected")
			s.deps.Host.Alert(media.AlertText(err))
			return err
		}
		return nil
	})
}

func (s *Session) InsertImageURL(url string) (id string, err error) {
	err = s.mediaCommand(func() error {
		id, err = s.media.InsertImageFromURL(url)
		return err
	})
	return id, err
}

// UploadImage inserts a placeholder for f and uploads it. The placeholder is replaced or removed
// once the upload settles.
func (s *Session) UploadImage(f media.File) (id string, err error) {
	err = s.mediaCommand(func() error {
		id, err = s.media.InsertImageFromUpload(f)
		return err
	})
	return id, err
}

// DropFiles uploads every image among files dropped onto the body.
func (s *Session) DropFiles(files []media.File) (ids []string, err error) {
	err = s.mediaCommand(func() error {
		ids, err = s.media.DropFiles(files)
		return err
	})
	return ids, err
}

func (s *Session) InsertVideo(url string) (id string, err error) {
	err = s.mediaCommand(func() error {
		id, err = s.media.InsertVideoFromURL(url)
		return err
	})
	return id, err
}

func (s *Session) InsertEmbed(code string) (id string, err error) {
	err = s.mediaCommand(func() error {
		id, err = s.media.InsertEmbed(code)
		return err
	})
	return id, err
}

func (s *Session) InsertCode(code, language string) (id string, err error) {
	err = s.mediaCommand(func() error {
		id, err = s.media.InsertCodeBlock(code, language)
		return err
	})
	return id, err
}

func (s *Session) InsertDivider() string {
	var id string
	_ = s.do(func() error {
		id = s.media.InsertDivider()
		return nil
	})
	return id
}

// PasteMarkdown converts Markdown to sanitised markup and inserts it at the caret.
func (s *Session) PasteMarkdown(src string) error {
	return s.mediaCommand(func() error { return s.media.InsertMarkdown(src) })
}

func (s *Session) Align(mediaID string, a media.Alignment) error {
	return s.mediaCommand(func() error { return s.media.Align(mediaID, a) })
}

// SetCaption writes the caption of an image figure.
func (s *Session) SetCaption(mediaID, text string) error {
	return s.mediaCommand(func() error { return s.media.SetCaption(mediaID, text) })
}

func (s *Session) RemoveMedia(mediaID string) error {
	return s.mediaCommand(func() error { return s.media.RemoveMedia(mediaID) })
}

// StageGallery uploads gallery images. done runs under the session's lock once every upload has
// settled.
func (s *Session) StageGallery(files []media.File, done func(staged, failed int)) error {
	return s.mediaCommand(func() error { return s.media.StageGallery(files, done) })
}

func (s *Session) Staged() []media.Staged {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media.Staged()
}

func (s *Session) RemoveStaged(idx int) error {
	return s.mediaCommand(func() error { return s.media.RemoveStaged(idx) })
}

func (s *Session) CancelGallery() {
	_ = s.do(func() error {
		s.media.CancelGallery()
		return nil
	})
}

func (s *Session) InsertGallery(layout media.Layout, caption string, align media.Alignment) (id string, err error) {
	err = s.mediaCommand(func() error {
		id, err = s.media.InsertGallery(layout, caption, align)
		return err
	})
	return id, err
}

func (s *Session) StepCarousel(galleryID string, delta int) (idx int, err error) {
	err = s.mediaCommand(func() error {
		idx, err = s.media.StepCarousel(galleryID, delta)
		return err
	})
	return idx, err
}

// Resize drags a corner handle of an image figure by dx pixels and releases it.
func (s *Session) Resize(mediaID string, corner media.Corner, width, height, dx float64) (w, h float64, err error) {
	err = s.mediaCommand(func() error {
		r, err := s.media.BeginResize(mediaID, corner, width, height)
		if err != nil {
			return err
		}
		w, h = r.Move(dx)
		r.End()
		return nil
	})
	return w, h, err
}

func (s *Session) InsertPhoto(p model.Photo) (id string, err error) {
	err = s.mediaCommand(func() error {
		id, err = s.media.InsertPhoto(p)
		return err
	})
	return id, err
}

// photoState is the paging state of the photo picker.
type photoState struct {
	query string
	page  int
	total int
	// done is set after an empty or failed page; only a new query resets it.
	done bool
	seq  uint64
}

// SearchPhotos starts a new photo search. An empty result list is not an error.
func (s *Session) SearchPhotos(ctx context.Context, query string) ([]model.Photo, error) {
	var seq uint64
	err := s.do(func() error {
		if s.deps.Photos == nil {
			return ErrNoSearcher
		}
		s.photos.seq++
		s.photos = photoState{query: query, seq: s.photos.seq}
		seq = s.photos.seq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.fetchPhotos(ctx, query, 1, seq)
}

// MorePhotos fetches the next page of the last search.
func (s *Session) MorePhotos(ctx context.Context) ([]model.Photo, error) {
	var (
		query string
		page  int
		seq   uint64
	)
	err := s.do(func() error {
		if s.deps.Photos == nil {
			return ErrNoSearcher
		}
		if s.photos.done || s.photos.query == "" || s.photos.page >= s.photos.total {
			return ErrNoMorePhotos
		}
		query, page, seq = s.photos.query, s.photos.page+1, s.photos.seq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.fetchPhotos(ctx, query, page, seq)
}

func (s *Session) fetchPhotos(ctx context.Context, query string, page int, seq uint64) ([]model.Photo, error) {
	resp, err := s.deps.Photos.SearchPhotos(ctx, model.PhotoSearchRequest{Query: query, Page: page})
	if err == nil && !resp.Success {
		err = fmt.Errorf("photo search failed: %s", resp.Message)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.photos.seq {
		// A newer search superseded this one.
		return nil, context.Canceled
	}
	if err != nil {
		s.photos.done = true
		editorLogger.Warn().Err(err).Str("query", query).Int("page", page).Msg("Photo search failed")
		return nil, err
	}
	s.photos.page = page
	s.photos.total = resp.TotalPages
	if len(resp.Results) == 0 {
		s.photos.done = true
	}
	return resp.Results, nil
}
