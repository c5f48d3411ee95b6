// Package repository stores posts and tags for the post endpoints.
package repository

import (
	"context"
	"errors"

	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/rs/zerolog"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

var ErrPostNotFound = errors.New("post not found")

type PostRepository interface {
	// AutoSaveDraft writes the editable fields of post without touching its publication state.
	// created reports whether a new draft was inserted.
	AutoSaveDraft(ctx context.Context, post *model.Post) (id model.PostID, created bool, err error)
	SaveDraft(ctx context.Context, post *model.Post) (model.PostID, error)
	Publish(ctx context.Context, post *model.Post) (model.PostID, error)

	GetPost(ctx context.Context, id model.PostID) (*model.Post, error)
	ListDrafts(ctx context.Context) ([]model.Post, error)
	DeletePost(ctx context.Context, id model.PostID) error

	Tags(ctx context.Context) ([]model.Tag, error)
	SaveTags(ctx context.Context, tags ...model.Tag) error
}
