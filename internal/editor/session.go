// Package editor ties the selection tracker, formatting, media insertion, form synchronisation and
// autosave together into one Session per page view.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/editor/form"
	"github.com/debemdeboas/inkwell/internal/editor/format"
	"github.com/debemdeboas/inkwell/internal/editor/media"
	"github.com/debemdeboas/inkwell/internal/editor/selection"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/schedule"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

// DefaultSyncDelay is the quiet period after typing before the hidden fields are refreshed.
const DefaultSyncDelay = 300 * time.Millisecond

var (
	ErrDisposed   = errors.New("editor session disposed")
	ErrNoSubmit   = errors.New("no submitter configured")
	ErrNoSearcher = errors.New("no photo searcher configured")
)

// Region is one of the editable areas of the page.
type Region int

const (
	RegionTitle Region = iota
	RegionSubtitle
	RegionBody
)

func (r Region) String() string {
	return [...]string{"title", "subtitle", "body"}[r]
}

// Host receives the UI effects of a session. Its methods are called under the session's lock and
// must not call back into the session.
type Host interface {
	Alert(message string)
	ObjectURL(f media.File) string
	ShowSaveStatus(i draft.Indicator)
	// ConfirmRestore asks the writer whether a stored draft should replace the editor's content.
	ConfirmRestore(snap model.DraftSnapshot) bool
	HighlightValidation(problems []form.Problem)
	// AdjustHeights resizes the auto-growing title and subtitle fields.
	AdjustHeights()
}

// Submitter dispatches the full page post form.
type Submitter interface {
	Submit(ctx context.Context, sub model.Submission) error
}

type PhotoSearcher interface {
	SearchPhotos(ctx context.Context, req model.PhotoSearchRequest) (model.PhotoSearchResponse, error)
}

type Config struct {
	PostID model.PostID
	// Title, Subtitle and Content are the region contents the page was loaded with.
	Title    string
	Subtitle string
	Content  string
	// URL is the slug the post was loaded with. Empty derives it from the title.
	URL string
	// Modified is when the loaded content was last saved on the server.
	Modified time.Time

	Tags     []model.Tag
	Selected []model.TagID
	// TagInputs are the hidden tagIds inputs already present in the page.
	TagInputs []model.TagID
	Token     string
	Referral  string

	Clock             schedule.Clock
	SelectionDebounce time.Duration
	SyncDelay         time.Duration
	LocalDelay        time.Duration
	RemoteDelay       time.Duration
}

type Deps struct {
	Host      Host
	Store     draft.LocalStore
	Uploader  media.Uploader
	AutoSaver draft.AutoSaver
	Submitter Submitter
	Photos    PhotoSearcher
}

// Session is safe for concurrent use. Every entry point takes the session's lock, and timers and
// network completions re-enter through the same lock.
type Session struct {
	mu       sync.Mutex
	disposed bool

	cfg  Config
	deps Deps

	title    *html.Node
	subtitle *html.Node
	body     *html.Node

	tracker *selection.Tracker
	format  *format.Controller
	media   *media.Inserter
	tags    *form.TagSet
	form    *form.Synchronizer
	drafts  *draft.Manager
	sync    *schedule.Task

	photos photoState
}

func region(src string) (*html.Node, error) {
	n := dom.Element("div")
	if err := dom.SetInnerHTML(n, src); err != nil {
		return nil, err
	}
	return n, nil
}

// New builds a session for one page view.
func New(cfg Config, deps Deps) (*Session, error) {
	if deps.Host == nil {
		return nil, errors.New("editor host is required")
	}
	if deps.Store == nil {
		deps.Store = draft.NewMemoryStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = schedule.RealClock{}
	}
	if cfg.SyncDelay <= 0 {
		cfg.SyncDelay = DefaultSyncDelay
	}

	s := &Session{cfg: cfg, deps: deps}
	var err error
	if s.title, err = region(cfg.Title); err != nil {
		return nil, fmt.Errorf("failed to parse title: %w", err)
	}
	if s.subtitle, err = region(cfg.Subtitle); err != nil {
		return nil, fmt.Errorf("failed to parse subtitle: %w", err)
	}
	if s.body, err = region(cfg.Content); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	if n := media.NormalizeAlignment(s.body); n > 0 {
		editorLogger.Debug().Int("blocks", n).Msg("Normalized media alignment")
	}

	s.tracker = selection.NewTracker(s.body, cfg.Clock, cfg.SelectionDebounce, s.exec)
	s.format = format.NewController(s.body, s.tracker)
	s.media = media.NewInserter(s.body, s.tracker, media.Options{
		Uploader: deps.Uploader,
		Effects:  deps.Host,
		Exec:     s.exec,
		Changed:  s.mutated,
		Referral: cfg.Referral,
	})
	s.tags = form.NewTagSet(cfg.Tags, cfg.Selected...)
	s.form = form.New(form.Regions{Title: s.title, Subtitle: s.subtitle, Body: s.body}, s.tags, cfg.Token)
	s.form.SetPostID(cfg.PostID)
	s.form.SetURL(cfg.URL)
	s.form.AddTagInputs(cfg.TagInputs...)
	s.drafts = draft.NewManager(deps.Store, deps.AutoSaver, s.snapshot, draft.Options{
		Clock:       cfg.Clock,
		LocalDelay:  cfg.LocalDelay,
		RemoteDelay: cfg.RemoteDelay,
		PostID:      cfg.PostID,
		Exec:        s.exec,
		Status:      deps.Host.ShowSaveStatus,
		OnPostID:    s.form.SetPostID,
	})
	s.sync = schedule.NewTask(cfg.Clock, cfg.SyncDelay, func() { s.exec(s.form.Sync) })

	editorLogger.Debug().Int64("post_id", int64(cfg.PostID)).Msg("Editor session created")
	return s, nil
}

// exec runs f under the session's lock. Callbacks arriving after Dispose are dropped.
func (s *Session) exec(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	f()
}

// do runs f under the lock unless the session was disposed.
func (s *Session) do(f func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	return f()
}

func (s *Session) snapshot() model.AutoSaveRequest {
	s.form.Sync()
	f := s.form.Fields()
	return model.AutoSaveRequest{
		PostID:      f.PostID,
		Title:       f.Title,
		Description: f.Description,
		Content:     f.Content,
		URL:         f.URL,
		TagIDs:      s.tags.Selected(),
	}
}

// mutated follows every command that changed the body or the tag selection.
func (s *Session) mutated() {
	s.sync.Cancel()
	s.form.Sync()
	s.drafts.Changed()
}

// typed follows free text input. The fields are refreshed once typing pauses.
func (s *Session) typed() {
	s.sync.Schedule()
	s.drafts.Changed()
}

func (s *Session) regionNode(r Region) *html.Node {
	switch r {
	case RegionTitle:
		return s.title
	case RegionSubtitle:
		return s.subtitle
	}
	return s.body
}

// Input replaces the content of a region with what the writer typed.
func (s *Session) Input(r Region, src string) error {
	return s.do(func() error {
		n := s.regionNode(r)
		if err := dom.SetInnerHTML(n, src); err != nil {
			return err
		}
		if r == RegionBody {
			s.tracker.Invalidate()
			s.tracker.SetLive(selection.Caret(dom.End(s.body)))
		} else {
			s.deps.Host.AdjustHeights()
		}
		s.typed()
		return nil
	})
}

// Select moves the selection to the text offsets [start, end) of the body.
func (s *Session) Select(start, end int) {
	s.SelectRange(selection.FromOffsets(s.body, start, end))
}

func (s *Session) SelectRange(r selection.Range) {
	_ = s.do(func() error {
		s.tracker.SetFocus(selection.FocusBody)
		s.tracker.SelectionChanged(r)
		return nil
	})
}

// Focus records which control holds focus. Moving focus to a floating control commits the
// selection so commands issued from it apply where the writer left off.
func (s *Session) Focus(f selection.Focus) {
	_ = s.do(func() error {
		if f.Floating() {
			s.tracker.Commit()
		}
		s.tracker.SetFocus(f)
		return nil
	})
}

// Type inserts text at the caret. A space completing a Markdown prefix at the start of a block
// converts the block.
func (s *Session) Type(text string) (format.Kind, error) {
	var kind format.Kind
	err := s.do(func() error {
		if text == "" {
			return nil
		}
		s.insertText(text)
		if strings.HasSuffix(text, " ") {
			k, err := s.format.HandleSpaceShortcut()
			if err != nil && !errors.Is(err, format.ErrNoBlock) {
				return err
			}
			if k != "" {
				kind = k
				s.mutated()
				return nil
			}
		}
		s.typed()
		return nil
	})
	return kind, err
}

// Fields returns the hidden form fields after synchronising them.
func (s *Session) Fields() form.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Sync()
	return s.form.Fields()
}

// HTML returns the serialised body.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dom.InnerHTML(s.body)
}

func (s *Session) WordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return util.WordCount(dom.TextContent(s.body))
}

func (s *Session) SaveState() draft.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts.State()
}

func (s *Session) PostID() model.PostID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts.PostID()
}

// Dispose cancels every timer and in-flight request and waits for them to wind down.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.tracker.Dispose()
	s.sync.Stop()
	s.drafts.Dispose()
	s.media.Dispose()
	s.mu.Unlock()

	s.Wait()
	editorLogger.Debug().Msg("Editor session disposed")
}

// Wait blocks until in-flight uploads and saves have been applied.
func (s *Session) Wait() {
	s.media.Wait()
	s.drafts.Wait()
}
