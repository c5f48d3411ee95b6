package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/debemdeboas/inkwell/internal/model"
)

type FSMediaStore struct { // implements MediaStore
	root      string
	urlPrefix string
}

func NewFSMediaStore(root, urlPrefix string) *FSMediaStore {
	return &FSMediaStore{root: root, urlPrefix: urlPrefix}
}

func (s *FSMediaStore) Save(ctx context.Context, kind model.MediaKind, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(kind, name, contentType)
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("error creating upload directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing upload: %w", err)
	}

	storageLogger.Debug().Str("path", dst).Int("size", len(data)).Msg("Media stored")
	return joinURL(s.urlPrefix, key), nil
}

// Handler serves the stored files. Mount it under the URL prefix with the prefix stripped.
func (s *FSMediaStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.root))
}
