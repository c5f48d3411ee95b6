package model

import (
	"strings"
	"time"
)

// DraftSnapshot is the locally persisted copy of the editable regions.
type DraftSnapshot struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	TagIDs      []TagID   `json:"tagIds"`
	Timestamp   time.Time `json:"timestamp"`
	PostID      PostID    `json:"postId,omitempty"`
}

// Fingerprint concatenates the fields whose change warrants a new save.
func (d DraftSnapshot) Fingerprint() string {
	tags := make([]string, len(d.TagIDs))
	for i, t := range d.TagIDs {
		tags[i] = string(t)
	}
	return d.Title + "\x00" + d.Description + "\x00" + d.Content + "\x00" + strings.Join(tags, ",")
}

// Blank reports whether there is nothing worth saving.
func (d DraftSnapshot) Blank() bool {
	return strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == ""
}

type AutoSaveRequest struct {
	PostID      PostID  `json:"postId,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Content     string  `json:"content"`
	URL         string  `json:"url"`
	TagIDs      []TagID `json:"tagIds"`
}

// AutoSaveResponse carries PostID only when the save created a new draft.
type AutoSaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  PostID `json:"postId,omitempty"`
}
