package model

import "fmt"

type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

func ParseMediaKind(s string) (MediaKind, error) {
	switch k := MediaKind(s); k {
	case MediaImage, MediaVideo, MediaDocument:
		return k, nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

// AllowedMIME lists the content types accepted per media kind.
var AllowedMIME = map[MediaKind][]string{
	MediaImage:    {"image/jpeg", "image/png", "image/gif", "image/webp"},
	MediaVideo:    {"video/mp4", "video/webm", "video/ogg"},
	MediaDocument: {"application/pdf", "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

// Allows reports whether mime is on the allow-list for kind.
func (k MediaKind) Allows(mime string) bool {
	for _, m := range AllowedMIME[k] {
		if m == mime {
			return true
		}
	}
	return false
}

// UploadResponse is the reply of the media upload endpoint.
type UploadResponse struct {
	Success   bool      `json:"success"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
	MediaType MediaKind `json:"mediaType,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	Message   string    `json:"message,omitempty"`
}
