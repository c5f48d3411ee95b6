// Package storage keeps uploaded media files and hands out their public URLs.
package storage

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var storageLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storageLogger = l
}

type MediaStore interface {
	// Save stores data and returns the URL it is served from.
	Save(ctx context.Context, kind model.MediaKind, name, contentType string, data []byte) (string, error)
}

// objectKey returns "<kind>s/<uuid><ext>". The writer's file name only contributes its extension,
// and only when the content type has no known one.
func objectKey(kind model.MediaKind, name, contentType string) string {
	ext := ""
	if m := mimetype.Lookup(contentType); m != nil {
		ext = m.Extension()
	}
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filepath.Base(name)))
		if strings.ContainsAny(ext, `/\ `) || len(ext) > 8 {
			ext = ""
		}
	}
	return path.Join(string(kind)+"s", uuid.New().String()+ext)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
