package model

import (
	"testing"
	"time"
)

func TestPostID(t *testing.T) {
	t.Run("zero and negative ids are new", func(t *testing.T) {
		for _, id := range []PostID{0, -1} {
			if !id.IsNew() {
				t.Errorf("Expected %d to be new", id)
			}
		}
		if PostID(7).IsNew() {
			t.Error("Expected assigned id not to be new")
		}
	})
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
		ok   bool
	}{
		{"publish", ActionPublish, true},
		{" Publish ", ActionPublish, true},
		{"draft", ActionSaveDraft, true},
		{"save", ActionSaveDraft, true},
		{"delete", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAction(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseAction(%q) = %q, %v", tt.in, got, ok)
			}
		})
	}
}

func TestMediaKindAllowList(t *testing.T) {
	tests := []struct {
		kind MediaKind
		mime string
		want bool
	}{
		{MediaImage, "image/jpeg", true},
		{MediaImage, "image/webp", true},
		{MediaImage, "image/svg+xml", false},
		{MediaVideo, "video/webm", true},
		{MediaVideo, "image/png", false},
		{MediaDocument, "application/pdf", true},
		{MediaDocument, "text/html", false},
	}
	for _, tt := range tests {
		if got := tt.kind.Allows(tt.mime); got != tt.want {
			t.Errorf("%s allows %s = %v, want %v", tt.kind, tt.mime, got, tt.want)
		}
	}

	if _, err := ParseMediaKind("audio"); err == nil {
		t.Error("Expected unknown media kind to fail")
	}
}

func TestDraftSnapshot(t *testing.T) {
	a := DraftSnapshot{Title: "T", Content: "<p>x</p>", TagIDs: []TagID{"1", "2"}, Timestamp: time.Now()}
	b := a
	b.Timestamp = a.Timestamp.Add(time.Hour)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Expected timestamp to be excluded from the fingerprint")
	}
	b.TagIDs = []TagID{"1"}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("Expected tag change to alter the fingerprint")
	}

	if !(DraftSnapshot{Title: "  ", Description: "only a description"}).Blank() {
		t.Error("Expected snapshot without title and content to be blank")
	}
	if a.Blank() {
		t.Error("Expected snapshot with content not to be blank")
	}
}
