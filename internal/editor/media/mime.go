package media

import (
	"fmt"
	"strings"

	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/gabriel-vasile/mimetype"
)

// ContentType returns the MIME type of f without parameters. The declared type wins; the content is
// sniffed only when nothing was declared.
func ContentType(f File) string {
	ct := f.Type
	if ct == "" && len(f.Data) > 0 {
		ct = mimetype.Detect(f.Data).String()
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Check verifies f against the allow-list of kind and returns its content type.
func Check(f File, kind model.MediaKind) (string, error) {
	ct := ContentType(f)
	if kind == model.MediaImage && !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: %q", ErrNotImage, f.Name)
	}
	if !kind.Allows(ct) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return ct, nil
}
