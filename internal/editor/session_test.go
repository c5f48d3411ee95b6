package editor

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/editor/form"
	"github.com/debemdeboas/inkwell/internal/editor/format"
	"github.com/debemdeboas/inkwell/internal/editor/media"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/schedule"
	"github.com/rs/zerolog"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var tags = []model.Tag{{ID: "1", Name: "go"}, {ID: "2", Name: "web"}}

type fakeHost struct {
	alerts   []string
	statuses []draft.Indicator
	problems []form.Problem
	adjusted int
	restore  bool
	offered  []model.DraftSnapshot
}

func (h *fakeHost) Alert(msg string)                     { h.alerts = append(h.alerts, msg) }
func (h *fakeHost) ObjectURL(f media.File) string        { return "blob:" + f.Name }
func (h *fakeHost) ShowSaveStatus(i draft.Indicator)     { h.statuses = append(h.statuses, i) }
func (h *fakeHost) HighlightValidation(p []form.Problem) { h.problems = p }
func (h *fakeHost) AdjustHeights()                       { h.adjusted++ }

func (h *fakeHost) ConfirmRestore(snap model.DraftSnapshot) bool {
	h.offered = append(h.offered, snap)
	return h.restore
}

type fakeUploader struct {
	gate  chan struct{}
	mu    sync.Mutex
	kinds []model.MediaKind
}

func (u *fakeUploader) Upload(_ context.Context, f media.File, kind model.MediaKind) (model.UploadResponse, error) {
	if u.gate != nil {
		<-u.gate
	}
	u.mu.Lock()
	u.kinds = append(u.kinds, kind)
	u.mu.Unlock()
	return model.UploadResponse{Success: true, MediaURL: "/uploads/images/xyz.jpg", MediaType: kind, FileName: f.Name}, nil
}

type fakeSaver struct {
	mu    sync.Mutex
	calls []model.AutoSaveRequest
}

func (f *fakeSaver) AutoSave(_ context.Context, req model.AutoSaveRequest) (model.AutoSaveResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	resp := model.AutoSaveResponse{Success: true}
	if req.PostID.IsNew() {
		resp.PostID = 5
	}
	return resp, nil
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSubmitter struct {
	err  error
	subs []model.Submission
}

func (f *fakeSubmitter) Submit(_ context.Context, sub model.Submission) error {
	f.subs = append(f.subs, sub)
	return f.err
}

type fakePhotos struct {
	resp  model.PhotoSearchResponse
	err   error
	pages []int
}

func (f *fakePhotos) SearchPhotos(_ context.Context, req model.PhotoSearchRequest) (model.PhotoSearchResponse, error) {
	f.pages = append(f.pages, req.Page)
	return f.resp, f.err
}

type fixture struct {
	s      *Session
	clock  *schedule.VirtualClock
	host   *fakeHost
	store  *draft.MemoryStore
	up     *fakeUploader
	saver  *fakeSaver
	submit *fakeSubmitter
	photos *fakePhotos
}

func setup(t *testing.T, cfg Config) *fixture {
	t.Helper()
	silent := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(silent)
	draft.SetLogger(silent)
	media.SetLogger(silent)
	format.SetLogger(silent)

	f := &fixture{
		clock:  schedule.NewVirtualClock(epoch),
		host:   &fakeHost{},
		store:  draft.NewMemoryStore(),
		up:     &fakeUploader{},
		saver:  &fakeSaver{},
		submit: &fakeSubmitter{},
		photos: &fakePhotos{},
	}
	cfg.Clock = f.clock
	if cfg.Tags == nil {
		cfg.Tags = tags
	}
	s, err := New(cfg, Deps{
		Host:      f.host,
		Store:     f.store,
		Uploader:  f.up,
		AutoSaver: f.saver,
		Submitter: f.submit,
		Photos:    f.photos,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Dispose)
	f.s = s
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock.Advance(d)
	f.s.Wait()
}

func TestNew(t *testing.T) {
	if _, err := New(Config{}, Deps{}); err == nil {
		t.Error("Expected an error without a host")
	}

	f := setup(t, Config{Title: "T", Content: `<figure class="content-image img-align-center"><img src="a.png"/></figure>`})
	if got := f.s.HTML(); got != `<figure class="content-image"><img src="a.png"/></figure>` {
		t.Errorf("Expected center alignment to be stored as class absence, got %q", got)
	}
}

func TestFormatting(t *testing.T) {
	t.Run("bold toggles", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>hello</p>"})
		f.s.Select(0, 5)
		if err := f.s.Format(format.Bold); err != nil {
			t.Fatal(err)
		}
		if got := f.s.HTML(); got != "<p><strong>hello</strong></p>" {
			t.Errorf("Expected bold markup, got %q", got)
		}
		if !f.s.ActiveCommands().Has(format.Bold) {
			t.Error("Expected bold to be active")
		}
		if err := f.s.Format(format.Bold); err != nil {
			t.Fatal(err)
		}
		if got := f.s.HTML(); got != "<p>hello</p>" {
			t.Errorf("Expected the markup to be removed, got %q", got)
		}
		if got := f.s.Fields().Content; got != "<p>hello</p>" {
			t.Errorf("Expected the content field to follow, got %q", got)
		}
	})

	t.Run("hash and space make a heading", func(t *testing.T) {
		f := setup(t, Config{Content: "<p><br/></p>"})
		f.s.Select(0, 0)
		kind, err := f.s.Type("# ")
		if err != nil {
			t.Fatal(err)
		}
		if kind != format.Heading1 {
			t.Errorf("Expected a heading, got %q", kind)
		}
		got := f.s.HTML()
		if !strings.HasPrefix(got, "<h1>") || strings.Contains(got, "#") {
			t.Errorf("Expected an h1 without the prefix, got %q", got)
		}
	})

	t.Run("plain typing is not a shortcut", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>ab</p>"})
		f.s.Select(1, 1)
		if kind, err := f.s.Type("x "); err != nil || kind != "" {
			t.Fatalf("Unexpected result %q %v", kind, err)
		}
		if got := f.s.HTML(); got != "<p>ax b</p>" {
			t.Errorf("Expected the text at the caret, got %q", got)
		}
		if n := f.s.WordCount(); n != 2 {
			t.Errorf("Expected 2 words, got %d", n)
		}
	})

	t.Run("nothing selected alerts", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>hello</p>"})
		f.s.Select(2, 2)
		if err := f.s.Link("example.com"); !errors.Is(err, format.ErrNoSelection) {
			t.Fatalf("Expected ErrNoSelection, got %v", err)
		}
		if !reflect.DeepEqual(f.host.alerts, []string{"Please select some text first."}) {
			t.Errorf("Unexpected alerts %v", f.host.alerts)
		}
	})

	t.Run("keyboard shortcuts", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>hello</p>"})
		f.s.Select(0, 5)
		if ok, err := f.s.KeyShortcut(Key{Key: "B", Ctrl: true}); !ok || err != nil {
			t.Fatalf("Expected Ctrl+B to be handled, got %v %v", ok, err)
		}
		if ok, err := f.s.KeyShortcut(Key{Key: "2", Ctrl: true, Alt: true}); !ok || err != nil {
			t.Fatalf("Expected Ctrl+Alt+2 to be handled, got %v %v", ok, err)
		}
		if got := f.s.HTML(); got != "<h2><strong>hello</strong></h2>" {
			t.Errorf("Unexpected markup %q", got)
		}
		if ok, _ := f.s.KeyShortcut(Key{Key: "k", Ctrl: true}); !ok {
			t.Error("Expected Ctrl+K to open the link form")
		}
		if ok, _ := f.s.KeyShortcut(Key{Key: "q", Ctrl: true}); ok {
			t.Error("Expected Ctrl+Q to be unbound")
		}
	})
}

func TestAutosave(t *testing.T) {
	t.Run("saves two seconds after the last keystroke", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>hi</p>"})
		f.s.Select(2, 2)
		if _, err := f.s.Type("a"); err != nil {
			t.Fatal(err)
		}
		f.advance(1900 * time.Millisecond)
		if _, err := f.s.Type("b"); err != nil {
			t.Fatal(err)
		}
		f.advance(1900 * time.Millisecond)
		if n := f.saver.count(); n != 0 {
			t.Fatalf("Expected no save yet, got %d", n)
		}
		f.advance(100 * time.Millisecond)
		if n := f.saver.count(); n != 1 {
			t.Fatalf("Expected one save, got %d", n)
		}
		if got := f.saver.calls[0].Content; got != "<p>hiab</p>" {
			t.Errorf("Expected the current content, got %q", got)
		}
		if f.s.PostID() != 5 || f.s.Fields().PostID != 5 {
			t.Errorf("Expected the new post id to be adopted, got %d", f.s.PostID())
		}
		if f.s.SaveState() != draft.Clean {
			t.Errorf("Expected clean, got %v", f.s.SaveState())
		}
	})

	t.Run("tag toggles are saved", func(t *testing.T) {
		f := setup(t, Config{Title: "T"})
		on, err := f.s.ToggleTag("2")
		if err != nil || !on {
			t.Fatalf("Expected the tag to be checked, got %v %v", on, err)
		}
		if got := f.s.Fields().Tags; got != "2" {
			t.Errorf("Expected tags field 2, got %q", got)
		}
		if got := f.s.TagStatus(); got != "1 tag selected" {
			t.Errorf("Unexpected status %q", got)
		}
		f.advance(2 * time.Second)
		if n := f.saver.count(); n != 1 || !reflect.DeepEqual(f.saver.calls[0].TagIDs, []model.TagID{"2"}) {
			t.Errorf("Expected a save with the tag, got %+v", f.saver.calls)
		}
		if _, err := f.s.ToggleTag("9"); !errors.Is(err, form.ErrUnknownTag) {
			t.Errorf("Expected ErrUnknownTag, got %v", err)
		}
	})

	t.Run("title input adjusts heights", func(t *testing.T) {
		f := setup(t, Config{})
		if err := f.s.Input(RegionTitle, "A title"); err != nil {
			t.Fatal(err)
		}
		if f.host.adjusted != 1 {
			t.Errorf("Expected one height adjustment, got %d", f.host.adjusted)
		}
		f.advance(DefaultSyncDelay)
		if got := f.s.Fields().URL; got != "a-title" {
			t.Errorf("Expected the slug to follow the title, got %q", got)
		}
	})
}

func TestPublish(t *testing.T) {
	t.Run("no tag blocks publishing", func(t *testing.T) {
		f := setup(t, Config{Title: "T", Content: "<p>x</p>"})
		err := f.s.Publish(context.Background())
		var verr *form.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Expected a validation error, got %v", err)
		}
		if len(f.submit.subs) != 0 {
			t.Error("Expected the form not to be submitted")
		}
		if len(f.host.alerts) != 1 || f.host.alerts[0] != "Please select at least one tag before publishing" {
			t.Errorf("Unexpected alerts %v", f.host.alerts)
		}
		if len(f.host.problems) != 1 || f.host.problems[0].Field != form.FieldTags {
			t.Errorf("Expected the tags to be highlighted, got %v", f.host.problems)
		}
	})

	t.Run("page tag inputs and slug reach the submission", func(t *testing.T) {
		f := setup(t, Config{
			Title:     "Hello World",
			Content:   "<p>x</p>",
			Selected:  []model.TagID{"2"},
			TagInputs: []model.TagID{"1", "2", "2"},
		})
		ctx := context.Background()
		if n := len(f.s.Tags()); n != len(tags) {
			t.Errorf("Expected %d available tags, got %d", len(tags), n)
		}
		if err := f.s.SaveDraft(ctx); err != nil {
			t.Fatal(err)
		}
		sub := f.submit.subs[0]
		if !reflect.DeepEqual(sub.TagIDs, []model.TagID{"2"}) || sub.URL != "hello-world" {
			t.Errorf("Expected one tag input and the title slug, got %v %q", sub.TagIDs, sub.URL)
		}

		if err := f.s.SetURL("My Slug"); err != nil {
			t.Fatal(err)
		}
		if _, err := f.s.ToggleTag("1"); err != nil {
			t.Fatal(err)
		}
		if err := f.s.SaveDraft(ctx); err != nil {
			t.Fatal(err)
		}
		sub = f.submit.subs[1]
		if !reflect.DeepEqual(sub.TagIDs, []model.TagID{"2", "1"}) || sub.URL != "my-slug" {
			t.Errorf("Expected both tags and the pinned slug, got %v %q", sub.TagIDs, sub.URL)
		}
	})

	t.Run("publishing clears the session drafts", func(t *testing.T) {
		f := setup(t, Config{Title: "T", Content: "<p>x</p>", Selected: []model.TagID{"1"}})
		ctx := context.Background()
		f.s.Select(1, 1)
		_, _ = f.s.Type("y")
		f.advance(2 * time.Second)
		_, _ = f.s.Type("z")
		f.advance(time.Second)
		if keys, _ := f.store.Keys(ctx); len(keys) == 0 {
			t.Fatal("Expected local drafts before publishing")
		}

		if err := f.s.Publish(ctx); err != nil {
			t.Fatal(err)
		}
		if len(f.submit.subs) != 1 {
			t.Fatalf("Expected one submission, got %d", len(f.submit.subs))
		}
		sub := f.submit.subs[0]
		if sub.Action != model.ActionPublish || sub.PostID != 5 || sub.Content != "<p>xyz</p>" || !reflect.DeepEqual(sub.TagIDs, []model.TagID{"1"}) {
			t.Errorf("Unexpected submission %+v", sub)
		}
		if keys, _ := f.store.Keys(ctx); len(keys) != 0 {
			t.Errorf("Expected no local drafts, got %v", keys)
		}

		saves := f.saver.count()
		_, _ = f.s.Type("!")
		f.advance(5 * time.Second)
		if n := f.saver.count(); n != saves {
			t.Errorf("Expected no autosave after publishing, got %d", n-saves)
		}
		if keys, _ := f.store.Keys(ctx); len(keys) != 0 {
			t.Errorf("Expected no local drafts, got %v", keys)
		}
		if err := f.s.Publish(ctx); !errors.Is(err, draft.ErrPublished) {
			t.Errorf("Expected ErrPublished, got %v", err)
		}
	})

	t.Run("a failed dispatch keeps the drafts", func(t *testing.T) {
		f := setup(t, Config{Title: "T", Content: "<p>x</p>", Selected: []model.TagID{"1"}})
		f.submit.err = errors.New("offline")
		ctx := context.Background()
		f.s.Select(1, 1)
		_, _ = f.s.Type("y")
		f.advance(time.Second)

		if err := f.s.Publish(ctx); err == nil {
			t.Fatal("Expected the dispatch error")
		}
		if keys, _ := f.store.Keys(ctx); len(keys) == 0 {
			t.Error("Expected the local draft to survive")
		}
		f.advance(2 * time.Second)
		if n := f.saver.count(); n != 1 {
			t.Errorf("Expected autosave to resume, got %d saves", n)
		}
	})

	t.Run("save draft submits without validation", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>x</p>"})
		if err := f.s.SaveDraft(context.Background()); err != nil {
			t.Fatal(err)
		}
		if len(f.submit.subs) != 1 || f.submit.subs[0].Action != model.ActionSaveDraft {
			t.Errorf("Unexpected submissions %+v", f.submit.subs)
		}
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	stored := model.DraftSnapshot{
		Title:     "Stored",
		Content:   "<p>stored body</p>",
		TagIDs:    []model.TagID{"2"},
		Timestamp: epoch.Add(-time.Hour),
	}

	t.Run("an empty editor restores the local draft", func(t *testing.T) {
		f := setup(t, Config{Content: "<p><br/></p>"})
		f.host.restore = true
		_ = f.store.Put(ctx, draft.Key(0), stored)

		restored, err := f.s.Start(ctx)
		if err != nil || !restored {
			t.Fatalf("Expected a restore, got %v %v", restored, err)
		}
		fields := f.s.Fields()
		if fields.Title != "Stored" || fields.Content != "<p>stored body</p>" || fields.Tags != "2" {
			t.Errorf("Unexpected fields %+v", fields)
		}
		if f.host.adjusted == 0 || f.host.statuses[0] != draft.IndicatorRestored {
			t.Errorf("Expected heights and status to be refreshed, got %d %v", f.host.adjusted, f.host.statuses)
		}
		if n := f.s.WordCount(); n != 2 {
			t.Errorf("Expected 2 words, got %d", n)
		}
	})

	t.Run("declining keeps the editor empty", func(t *testing.T) {
		f := setup(t, Config{})
		_ = f.store.Put(ctx, draft.Key(0), stored)
		if restored, _ := f.s.Start(ctx); restored {
			t.Error("Expected no restore")
		}
		if len(f.host.offered) != 1 || f.s.HTML() != "" {
			t.Errorf("Expected one offer and an empty body, got %d %q", len(f.host.offered), f.s.HTML())
		}
	})

	t.Run("a newer server copy is not overridden", func(t *testing.T) {
		f := setup(t, Config{PostID: 3, Title: "Server", Content: "<p>server</p>", Modified: epoch})
		f.host.restore = true
		_ = f.store.Put(ctx, draft.Key(3), stored)
		if restored, _ := f.s.Start(ctx); restored || len(f.host.offered) != 0 {
			t.Error("Expected the server copy to win")
		}
	})

	t.Run("a newer local draft is offered over the server copy", func(t *testing.T) {
		f := setup(t, Config{PostID: 3, Title: "Server", Content: "<p>server</p>", Modified: epoch.Add(-2 * time.Hour)})
		f.host.restore = true
		_ = f.store.Put(ctx, draft.Key(3), stored)
		if restored, _ := f.s.Start(ctx); !restored {
			t.Error("Expected the local draft to win")
		}
	})
}

func TestMedia(t *testing.T) {
	t.Run("upload replaces the placeholder", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>intro</p>"})
		f.up.gate = make(chan struct{})
		f.s.Select(5, 5)
		if _, err := f.s.UploadImage(media.File{Name: "photo.jpg", Type: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}); err != nil {
			t.Fatal(err)
		}
		if got := f.s.HTML(); !strings.Contains(got, "Uploading image...") || !strings.Contains(got, `src="blob:photo.jpg"`) {
			t.Errorf("Expected a placeholder, got %q", got)
		}
		close(f.up.gate)
		f.s.Wait()

		got := f.s.HTML()
		if !strings.Contains(got, `<img src="/uploads/images/xyz.jpg"`) || strings.Contains(got, "Uploading") {
			t.Errorf("Expected the uploaded image, got %q", got)
		}
		if f.s.Fields().Content != got {
			t.Error("Expected the content field to follow the upload")
		}
		if !reflect.DeepEqual(f.up.kinds, []model.MediaKind{model.MediaImage}) {
			t.Errorf("Expected an image upload, got %v", f.up.kinds)
		}
	})

	t.Run("unsupported video alerts", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>x</p>"})
		if _, err := f.s.InsertVideo("https://example.com/clip"); !errors.Is(err, media.ErrUnsupportedVideo) {
			t.Fatalf("Expected ErrUnsupportedVideo, got %v", err)
		}
		if !reflect.DeepEqual(f.host.alerts, []string{"Unsupported video URL. Please use YouTube or Vimeo links."}) {
			t.Errorf("Unexpected alerts %v", f.host.alerts)
		}
		if f.s.HTML() != "<p>x</p>" {
			t.Error("Expected no partial mutation")
		}
	})

	t.Run("captions and removal reach the saved content", func(t *testing.T) {
		f := setup(t, Config{Title: "T", Content: "<p>x</p>"})
		f.s.Select(1, 1)
		id, err := f.s.InsertImageURL("https://example.com/a.png")
		if err != nil {
			t.Fatal(err)
		}
		if err := f.s.SetCaption(id, "A cat"); err != nil {
			t.Fatal(err)
		}
		if got := f.s.Fields().Content; !strings.Contains(got, ">A cat</figcaption>") {
			t.Errorf("Expected the caption in the content field, got %q", got)
		}
		f.advance(2 * time.Second)
		if n := f.saver.count(); n != 1 || !strings.Contains(f.saver.calls[0].Content, "A cat") {
			t.Errorf("Expected the caption to be saved, got %d saves", n)
		}

		if err := f.s.RemoveMedia(id); err != nil {
			t.Fatal(err)
		}
		if got := f.s.HTML(); strings.Contains(got, "<figure") {
			t.Errorf("Expected the figure to be gone, got %q", got)
		}
		if err := f.s.RemoveMedia(id); !errors.Is(err, media.ErrMediaNotFound) {
			t.Errorf("Expected ErrMediaNotFound, got %v", err)
		}
		if len(f.host.alerts) != 1 {
			t.Errorf("Expected one alert, got %v", f.host.alerts)
		}
	})

	t.Run("removing an uploading image drops its result", func(t *testing.T) {
		f := setup(t, Config{Content: "<p>intro</p>"})
		f.up.gate = make(chan struct{})
		f.s.Select(5, 5)
		id, err := f.s.UploadImage(media.File{Name: "photo.jpg", Type: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}})
		if err != nil {
			t.Fatal(err)
		}
		if err := f.s.RemoveMedia(id); err != nil {
			t.Fatal(err)
		}
		close(f.up.gate)
		f.s.Wait()

		if got := f.s.HTML(); strings.Contains(got, "<figure") || strings.Contains(got, "xyz.jpg") {
			t.Errorf("Expected no figure after removal, got %q", got)
		}
		if len(f.host.alerts) != 0 {
			t.Errorf("Expected no alerts, got %v", f.host.alerts)
		}
	})

	t.Run("insertions schedule an autosave", func(t *testing.T) {
		f := setup(t, Config{Title: "T", Content: "<p>x</p>"})
		f.s.Select(1, 1)
		if id := f.s.InsertDivider(); id == "" {
			t.Fatal("Expected a divider id")
		}
		f.advance(2 * time.Second)
		if n := f.saver.count(); n != 1 || !strings.Contains(f.saver.calls[0].Content, "content-divider") {
			t.Errorf("Expected the divider to be saved, got %d", n)
		}
	})
}

func TestPhotos(t *testing.T) {
	ctx := context.Background()

	t.Run("pages until the last one", func(t *testing.T) {
		f := setup(t, Config{})
		f.photos.resp = model.PhotoSearchResponse{Success: true, Results: []model.Photo{{ID: "a"}}, TotalPages: 2}
		if got, err := f.s.SearchPhotos(ctx, "cats"); err != nil || len(got) != 1 {
			t.Fatalf("Unexpected result %v %v", got, err)
		}
		if _, err := f.s.MorePhotos(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := f.s.MorePhotos(ctx); !errors.Is(err, ErrNoMorePhotos) {
			t.Errorf("Expected ErrNoMorePhotos, got %v", err)
		}
		if !reflect.DeepEqual(f.photos.pages, []int{1, 2}) {
			t.Errorf("Unexpected pages %v", f.photos.pages)
		}
	})

	t.Run("empty and failed searches stop paging", func(t *testing.T) {
		f := setup(t, Config{})
		f.photos.resp = model.PhotoSearchResponse{Success: true, TotalPages: 3}
		if got, err := f.s.SearchPhotos(ctx, "nothing"); err != nil || len(got) != 0 {
			t.Fatalf("Expected an empty result, got %v %v", got, err)
		}
		if _, err := f.s.MorePhotos(ctx); !errors.Is(err, ErrNoMorePhotos) {
			t.Errorf("Expected ErrNoMorePhotos, got %v", err)
		}

		f.photos.resp = model.PhotoSearchResponse{Success: false, Message: "rate limited"}
		if _, err := f.s.SearchPhotos(ctx, "dogs"); err == nil {
			t.Error("Expected an error")
		}
		if _, err := f.s.MorePhotos(ctx); !errors.Is(err, ErrNoMorePhotos) {
			t.Errorf("Expected ErrNoMorePhotos, got %v", err)
		}
	})
}

func TestDispose(t *testing.T) {
	f := setup(t, Config{Content: "<p>hello</p>"})
	f.s.Select(0, 5)
	_, _ = f.s.Type("x")
	f.s.Dispose()
	if n := f.clock.Pending(); n != 0 {
		t.Errorf("Expected no pending timers, got %d", n)
	}
	if err := f.s.Format(format.Bold); !errors.Is(err, ErrDisposed) {
		t.Errorf("Expected ErrDisposed, got %v", err)
	}
	f.advance(5 * time.Second)
	if n := f.saver.count(); n != 0 {
		t.Errorf("Expected no saves after dispose, got %d", n)
	}
}
