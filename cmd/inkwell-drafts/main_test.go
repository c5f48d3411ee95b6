package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/model"
)

func seeded(t *testing.T) *draft.MemoryStore {
	t.Helper()
	store := draft.NewMemoryStore()
	ctx := context.Background()
	snaps := map[string]model.DraftSnapshot{
		draft.Key(0): {Title: "", Content: "<p>one two</p>", Timestamp: time.Now()},
		draft.Key(7): {Title: "Trip notes", Content: "<p>Three <b>more</b> words</p>", TagIDs: []model.TagID{"3"}, PostID: 7, Timestamp: time.Now()},
	}
	for k, s := range snaps {
		if err := store.Put(ctx, k, s); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func TestRender(t *testing.T) {
	entries, err := load(context.Background(), seeded(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected two drafts, got %d", len(entries))
	}

	out := render(entries)
	for _, want := range []string{"KEY", "inkwell_draft_7", "Trip notes", "Untitled", "new"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected table to contain %q:\n%s", want, out)
		}
	}
	if entries[0].key != draft.Key(7) {
		t.Fatalf("Expected drafts sorted by key, got %s first", entries[0].key)
	}
	if got := words(entries[0].snap.Content); got != 3 {
		t.Errorf("Expected three words, got %d", got)
	}
}

func TestInteract(t *testing.T) {
	store := seeded(t)
	ctx := context.Background()
	var out bytes.Buffer

	in := strings.NewReader("show inkwell_draft_7\nfrobnicate 1\ndelete 9\ndelete 1\nquit\n")
	if err := interact(ctx, store, in, &out); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, want := range []string{"Three <b>more</b> words", "Unknown command: frobnicate", "No such draft: 9", "Deleted inkwell_draft_7"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out.String())
		}
	}
	keys, _ := store.Keys(ctx)
	if len(keys) != 1 || keys[0] != draft.Key(0) {
		t.Errorf("Expected only the new post draft to remain, got %v", keys)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Unexpected %q", got)
	}
	if got := truncate("a much longer title", 6); got != "a muc…" {
		t.Errorf("Unexpected %q", got)
	}
}
