package editor

import (
	"context"
	"errors"
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/editor/form"
	"github.com/debemdeboas/inkwell/internal/model"
	"golang.org/x/net/html"
)

// Publish validates the post and dispatches it with the publish action. Pending autosaves are
// stopped before the dispatch and every local draft of the session is deleted after it.
func (s *Session) Publish(ctx context.Context) error {
	var sub model.Submission
	err := s.do(func() error {
		if s.deps.Submitter == nil {
			return ErrNoSubmit
		}
		if s.drafts.Published() {
			return draft.ErrPublished
		}
		if err := s.form.ValidatePublish(); err != nil {
			var verr *form.ValidationError
			if errors.As(err, &verr) {
				s.deps.Host.HighlightValidation(verr.Problems)
				s.deps.Host.Alert(verr.Problems[0].Message)
			}
			return err
		}
		sub = s.form.PrepareSubmission(model.ActionPublish)
		s.drafts.MarkPublished()
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.deps.Submitter.Submit(ctx, sub); err != nil {
		editorLogger.Error().Err(err).Int64("post_id", int64(sub.PostID)).Msg("Failed to dispatch publish")
		_ = s.do(func() error {
			s.deps.Host.Alert("Could not publish your story. Please try again.")
			s.drafts.Reopen()
			return nil
		})
		return err
	}

	return s.do(func() error {
		if err := s.drafts.ClearSessionDrafts(ctx); err != nil {
			editorLogger.Warn().Err(err).Msg("Failed to clear session drafts")
			return err
		}
		editorLogger.Info().Int64("post_id", int64(sub.PostID)).Msg("Post published")
		return nil
	})
}

// SaveDraft writes the pending local snapshot and dispatches the form with the draft action.
func (s *Session) SaveDraft(ctx context.Context) error {
	var sub model.Submission
	err := s.do(func() error {
		if s.deps.Submitter == nil {
			return ErrNoSubmit
		}
		s.drafts.FlushLocal()
		sub = s.form.PrepareSubmission(model.ActionSaveDraft)
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.deps.Submitter.Submit(ctx, sub); err != nil {
		editorLogger.Error().Err(err).Msg("Failed to dispatch draft")
		_ = s.do(func() error {
			s.deps.Host.Alert("Could not save your draft. Please try again.")
			return nil
		})
		return err
	}
	return nil
}

func (s *Session) regionsEmpty() bool {
	if strings.TrimSpace(dom.TextContent(s.title)) != "" || strings.TrimSpace(dom.TextContent(s.body)) != "" {
		return false
	}
	return len(dom.FindAll(s.body, func(n *html.Node) bool {
		return dom.IsElement(n, "img", "iframe", "video", "hr")
	})) == 0
}

// Start offers to restore a stored draft. A draft is offered when the editor is empty, or when it
// is newer than the content the page was loaded with. It reports whether a draft was restored.
func (s *Session) Start(ctx context.Context) (bool, error) {
	var restored bool
	err := s.do(func() error {
		var server *model.DraftSnapshot
		if !s.regionsEmpty() {
			if s.cfg.Modified.IsZero() {
				return nil
			}
			cur := s.snapshot()
			server = &model.DraftSnapshot{
				Title:       cur.Title,
				Description: cur.Description,
				Content:     cur.Content,
				TagIDs:      cur.TagIDs,
				Timestamp:   s.cfg.Modified,
			}
		}
		snap, ok, err := s.drafts.Candidate(ctx, server)
		if err != nil {
			editorLogger.Warn().Err(err).Msg("Failed to read local draft")
			return err
		}
		if !ok || !s.deps.Host.ConfirmRestore(snap) {
			return nil
		}
		if err := s.restore(snap); err != nil {
			return err
		}
		restored = true
		return nil
	})
	return restored, err
}

func (s *Session) restore(snap model.DraftSnapshot) error {
	dom.RemoveChildren(s.title)
	s.title.AppendChild(dom.Text(snap.Title))
	dom.RemoveChildren(s.subtitle)
	s.subtitle.AppendChild(dom.Text(snap.Description))
	if err := dom.SetInnerHTML(s.body, snap.Content); err != nil {
		return err
	}
	s.tracker.Invalidate()
	s.tags.Replace(snap.TagIDs)
	s.form.Sync()
	s.deps.Host.AdjustHeights()
	s.drafts.Restored(snap)
	editorLogger.Info().Time("saved_at", snap.Timestamp).Msg("Draft restored")
	return nil
}
