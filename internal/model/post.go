// Package model defines the data exchanged between the editor session and its collaborators.
package model

import (
	"strings"
	"time"
)

// PostID identifies a post. Zero means the post has not been created yet.
type PostID int64

func (id PostID) IsNew() bool {
	return id <= 0
}

type TagID string

type Tag struct {
	ID   TagID  `json:"id"`
	Name string `json:"name"`
}

type Post struct {
	ID PostID

	Title       string
	Description string
	Content     string
	URL         string
	Tags        []TagID

	// Used for cache busting and to skip rewriting unchanged content.
	ContentHash string

	IsDraft      bool
	IsPublished  bool
	CreatedDate  time.Time
	ModifiedDate time.Time
}

// Action discriminates the full-page post submission.
type Action string

const (
	ActionPublish   Action = "publish"
	ActionSaveDraft Action = "draft"
)

func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionPublish:
		return ActionPublish, true
	case ActionSaveDraft, "save":
		return ActionSaveDraft, true
	}
	return "", false
}

// Submission carries the synchronised hidden fields of the post form.
type Submission struct {
	PostID      PostID
	Title       string
	Description string
	Content     string
	URL         string
	Tags        string
	TagIDs      []TagID
	Action      Action
}
