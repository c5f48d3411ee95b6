// Package draft persists the editor's content locally after a short quiet period and on the server
// after a longer one, and decides whether a stored draft should be offered for restoration.
package draft

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/schedule"
	"github.com/rs/zerolog"
)

var draftLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	draftLogger = l
}

type State int

const (
	Clean State = iota
	PendingLocal
	PendingRemote
	Saving
	Saved
	Error
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case PendingLocal:
		return "pending-local"
	case PendingRemote:
		return "pending-remote"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Error:
		return "error"
	}
	return "unknown"
}

// Indicator is what the save status badge shows.
type Indicator string

const (
	IndicatorSaving   Indicator = "saving"
	IndicatorSaved    Indicator = "saved"
	IndicatorError    Indicator = "error"
	IndicatorRestored Indicator = "restored"
)

const (
	DefaultLocalDelay    = 1 * time.Second
	DefaultRemoteDelay   = 2 * time.Second
	DefaultRetryDelay    = 5 * time.Second
	DefaultMaxRetryDelay = time.Minute
)

var ErrPublished = errors.New("post already published")

// SaveError is returned when the server answered an autosave without success.
type SaveError struct {
	Message string
}

func (e *SaveError) Error() string {
	if e.Message == "" {
		return "autosave rejected"
	}
	return "autosave rejected: " + e.Message
}

type AutoSaver interface {
	AutoSave(ctx context.Context, req model.AutoSaveRequest) (model.AutoSaveResponse, error)
}

type Options struct {
	Clock         schedule.Clock
	LocalDelay    time.Duration
	RemoteDelay   time.Duration
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// PostID is the post being edited, zero for a new one.
	PostID model.PostID

	// Exec runs timer callbacks and save completions. The editor session passes a function that
	// takes its lock.
	Exec func(func())

	Status   func(Indicator)
	OnState  func(State)
	OnPostID func(model.PostID)
}

// Manager is not safe for concurrent use. Its methods must be called, and its callbacks run,
// under Options.Exec.
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	store LocalStore
	saver AutoSaver
	read  func() model.AutoSaveRequest
	opts  Options

	local  *schedule.Task
	remote *schedule.Task
	retry  *schedule.Task

	state     State
	postID    model.PostID
	lastSaved string
	// gen counts mutations so a completing save can tell whether it is still current.
	gen       uint64
	queued    bool
	failures  int
	published bool
	disposed  bool
	keys      map[string]bool
}

// NewManager returns a manager that snapshots the content returned by read.
func NewManager(store LocalStore, saver AutoSaver, read func() model.AutoSaveRequest, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = schedule.RealClock{}
	}
	if opts.LocalDelay <= 0 {
		opts.LocalDelay = DefaultLocalDelay
	}
	if opts.RemoteDelay <= 0 {
		opts.RemoteDelay = DefaultRemoteDelay
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.MaxRetryDelay < opts.RetryDelay {
		opts.MaxRetryDelay = max(DefaultMaxRetryDelay, opts.RetryDelay)
	}
	if opts.Exec == nil {
		opts.Exec = func(f func()) { f() }
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		ctx:    ctx,
		cancel: cancel,
		store:  store,
		saver:  saver,
		read:   read,
		opts:   opts,
		postID: opts.PostID,
		keys:   make(map[string]bool),
	}
	m.local = schedule.NewTask(opts.Clock, opts.LocalDelay, func() { opts.Exec(m.saveLocal) })
	m.remote = schedule.NewTask(opts.Clock, opts.RemoteDelay, func() { opts.Exec(m.saveRemote) })
	m.retry = schedule.NewTask(opts.Clock, opts.RetryDelay, func() { opts.Exec(m.saveRemote) })
	return m
}

func (m *Manager) State() State {
	return m.state
}

func (m *Manager) PostID() model.PostID {
	return m.postID
}

func (m *Manager) Published() bool {
	return m.published
}

func (m *Manager) setState(s State) {
	if m.state == s {
		return
	}
	draftLogger.Debug().Stringer("from", m.state).Stringer("to", s).Msg("Autosave state")
	m.state = s
	if m.opts.OnState != nil {
		m.opts.OnState(s)
	}
}

func (m *Manager) status(i Indicator) {
	if m.opts.Status != nil {
		m.opts.Status(i)
	}
}

// Changed restarts both quiet periods. An in-flight save is left alone.
func (m *Manager) Changed() {
	if m.published || m.disposed {
		return
	}
	m.gen++
	m.retry.Cancel()
	m.local.Schedule()
	m.remote.Schedule()
	if m.state != Saving {
		m.setState(PendingLocal)
	}
}

func (m *Manager) snapshot() model.DraftSnapshot {
	req := m.read()
	return model.DraftSnapshot{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		TagIDs:      append([]model.TagID(nil), req.TagIDs...),
		Timestamp:   m.opts.Clock.Now(),
		PostID:      m.postID,
	}
}

func (m *Manager) saveLocal() {
	if m.published || m.disposed {
		return
	}
	key := Key(m.postID)
	snap := m.snapshot()
	if snap.Blank() {
		// An emptied editor must not bring back older content on the next visit.
		if err := m.store.Delete(m.ctx, key); err != nil {
			draftLogger.Warn().Err(err).Str("key", key).Msg("Failed to delete blank draft")
		}
	} else if err := m.store.Put(m.ctx, key, snap); err != nil {
		draftLogger.Warn().Err(err).Str("key", key).Msg("Failed to save local draft")
	} else {
		m.keys[key] = true
		draftLogger.Debug().Str("key", key).Msg("Local draft saved")
	}
	if m.state != Saving {
		m.setState(PendingRemote)
	}
}

func (m *Manager) saveRemote() {
	if m.published || m.disposed {
		return
	}
	if m.state == Saving {
		m.queued = true
		return
	}
	req := m.read()
	req.PostID = m.postID
	req.TagIDs = append([]model.TagID(nil), req.TagIDs...)
	snap := model.DraftSnapshot{Title: req.Title, Description: req.Description, Content: req.Content, TagIDs: req.TagIDs}
	fp := snap.Fingerprint()
	if fp == m.lastSaved {
		draftLogger.Debug().Msg("Content unchanged since last save")
		m.setState(m.pending())
		return
	}
	if m.saver == nil {
		m.setState(m.pending())
		return
	}

	m.setState(Saving)
	m.status(IndicatorSaving)
	gen := m.gen
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		resp, err := m.saver.AutoSave(m.ctx, req)
		if err == nil && !resp.Success {
			err = &SaveError{Message: resp.Message}
		}
		m.opts.Exec(func() { m.complete(req, fp, gen, resp, err) })
	}()
}

func (m *Manager) complete(req model.AutoSaveRequest, fp string, gen uint64, resp model.AutoSaveResponse, err error) {
	if m.disposed {
		return
	}
	if err != nil {
		draftLogger.Warn().Err(err).Int64("post_id", int64(req.PostID)).Msg("Autosave failed")
		m.failures++
		m.setState(Error)
		m.status(IndicatorError)
		if !m.published {
			m.scheduleRetry()
		}
		m.queued = false
		return
	}

	m.failures = 0
	m.lastSaved = fp
	if req.PostID.IsNew() && !resp.PostID.IsNew() {
		m.adopt(resp.PostID)
	}
	m.setState(Saved)
	m.status(IndicatorSaved)
	draftLogger.Debug().Int64("post_id", int64(m.postID)).Msg("Autosaved")

	if m.published {
		m.setState(Clean)
		return
	}
	if gen == m.gen {
		m.setState(Clean)
	} else {
		m.setState(m.pending())
	}
	if m.queued {
		m.queued = false
		m.saveRemote()
	}
}

func (m *Manager) pending() State {
	switch {
	case m.local.State() == schedule.Scheduled:
		return PendingLocal
	case m.remote.State() == schedule.Scheduled || m.queued:
		return PendingRemote
	}
	return Clean
}

func (m *Manager) scheduleRetry() {
	d := m.opts.RetryDelay
	for i := 1; i < m.failures && d < m.opts.MaxRetryDelay; i++ {
		d *= 2
	}
	d = min(d, m.opts.MaxRetryDelay)
	m.retry.SetDelay(d)
	m.retry.Schedule()
	draftLogger.Debug().Dur("delay", d).Int("failures", m.failures).Msg("Autosave retry scheduled")
}

// adopt switches the session to the id the server assigned and moves the draft saved under the
// "new" key to the new id's key.
func (m *Manager) adopt(id model.PostID) {
	from, to := Key(m.postID), Key(id)
	m.postID = id
	if !m.published {
		snap, ok, err := m.store.Get(m.ctx, from)
		if err != nil {
			draftLogger.Warn().Err(err).Str("key", from).Msg("Failed to read draft to move")
		} else if ok {
			snap.PostID = id
			if err := m.store.Put(m.ctx, to, snap); err != nil {
				draftLogger.Warn().Err(err).Str("key", to).Msg("Failed to move draft")
			} else {
				m.keys[to] = true
				if err := m.store.Delete(m.ctx, from); err != nil {
					draftLogger.Warn().Err(err).Str("key", from).Msg("Failed to delete moved draft")
				}
			}
		}
	}
	draftLogger.Info().Int64("post_id", int64(id)).Msg("Draft created on server")
	if m.opts.OnPostID != nil {
		m.opts.OnPostID(id)
	}
}

// FlushLocal writes a pending local snapshot now. It reports whether one was written.
func (m *Manager) FlushLocal() bool {
	if !m.local.Cancel() {
		return false
	}
	m.saveLocal()
	return true
}

// MarkPublished stops every pending save so nothing written after the publish submission can
// bring the draft back. A save already in flight completes without touching local storage.
func (m *Manager) MarkPublished() {
	m.published = true
	m.local.Cancel()
	m.remote.Cancel()
	m.retry.Cancel()
	m.queued = false
	if m.state != Saving {
		m.setState(Clean)
	}
}

// Reopen undoes MarkPublished after a submission that could not be dispatched and schedules a
// save of the current content.
func (m *Manager) Reopen() {
	if !m.published {
		return
	}
	m.published = false
	m.Changed()
}

// ClearSessionDrafts deletes every local draft written during the session as well as the drafts
// of the current post and of the "new" key.
func (m *Manager) ClearSessionDrafts(ctx context.Context) error {
	m.keys[Key(m.postID)] = true
	m.keys[Key(0)] = true
	keys := make([]string, 0, len(m.keys))
	for k := range m.keys {
		keys = append(keys, k)
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		return err
	}
	draftLogger.Debug().Strs("keys", keys).Msg("Session drafts cleared")
	m.keys = make(map[string]bool)
	return nil
}

// Candidate returns the local draft to offer for restoration. server is the copy the page was
// loaded with, nil when the editor started empty. When both exist the most recent one wins.
func (m *Manager) Candidate(ctx context.Context, server *model.DraftSnapshot) (model.DraftSnapshot, bool, error) {
	local, ok, err := m.store.Get(ctx, Key(m.postID))
	if err != nil || !ok || local.Blank() {
		return model.DraftSnapshot{}, false, err
	}
	if server != nil && !server.Blank() {
		if !local.Timestamp.After(server.Timestamp) || local.Fingerprint() == server.Fingerprint() {
			return model.DraftSnapshot{}, false, nil
		}
	}
	return local, true, nil
}

// Restored records that snap was put back into the editor and schedules saving it.
func (m *Manager) Restored(snap model.DraftSnapshot) {
	m.keys[Key(m.postID)] = true
	if m.postID.IsNew() && !snap.PostID.IsNew() {
		m.postID = snap.PostID
		if m.opts.OnPostID != nil {
			m.opts.OnPostID(snap.PostID)
		}
	}
	m.status(IndicatorRestored)
	m.Changed()
}

// Dispose cancels pending timers and in-flight saves.
func (m *Manager) Dispose() {
	m.disposed = true
	m.local.Stop()
	m.remote.Stop()
	m.retry.Stop()
	m.cancel()
}

// Wait blocks until in-flight saves have completed. It must not be called under Options.Exec.
func (m *Manager) Wait() {
	m.wg.Wait()
}
