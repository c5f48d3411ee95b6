package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/editor"
	"github.com/debemdeboas/inkwell/internal/editor/draft"
	"github.com/debemdeboas/inkwell/internal/editor/form"
	"github.com/debemdeboas/inkwell/internal/editor/format"
	"github.com/debemdeboas/inkwell/internal/editor/media"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/schedule"
	"github.com/rs/zerolog"
)

var replayLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	replayLogger = l
}

type Options struct {
	Tags      []model.Tag
	Store     draft.LocalStore
	Uploader  media.Uploader
	AutoSaver draft.AutoSaver
	Submitter editor.Submitter
	Photos    editor.PhotoSearcher
	Token     string
	Referral  string
	Editor    config.EditorConfig
	Clock     schedule.Clock
	// Sleep carries out wait steps. It defaults to a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// StepError reports a step the editor rejected. Replay goes on after it.
type StepError struct {
	Step   int
	Action string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type Report struct {
	PostID   model.PostID
	Restored bool
	HTML     string
	Fields   form.Fields
	Words    int
	State    draft.State
	Alerts   []string
	Statuses []draft.Indicator
	Failures []*StepError
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run replays script on a fresh session and reports the final editor state. Only failures to set
// up the session or a cancelled ctx end the replay early.
func Run(ctx context.Context, script *Script, opts Options) (*Report, error) {
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	host := NewHost(script.Restore)

	s, err := editor.New(editor.Config{
		PostID:            script.PostID,
		Title:             script.Title,
		Subtitle:          script.Subtitle,
		Content:           script.Content,
		URL:               script.URL,
		Tags:              opts.Tags,
		Selected:          script.Tags,
		Token:             opts.Token,
		Referral:          opts.Referral,
		Clock:             opts.Clock,
		SelectionDebounce: opts.Editor.SelectionDebounce,
		SyncDelay:         opts.Editor.SyncDelay,
		LocalDelay:        opts.Editor.LocalDelay,
		RemoteDelay:       opts.Editor.RemoteDelay,
	}, editor.Deps{
		Host:      host,
		Store:     opts.Store,
		Uploader:  opts.Uploader,
		AutoSaver: opts.AutoSaver,
		Submitter: opts.Submitter,
		Photos:    opts.Photos,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start editor: %w", err)
	}
	defer s.Dispose()

	report := &Report{}
	if report.Restored, err = s.Start(ctx); err != nil {
		replayLogger.Warn().Err(err).Msg("Draft restore failed")
	}

	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		action, _ := step.Action()
		l := replayLogger.With().Int("step", i+1).Str("action", action).Logger()
		l.Debug().Msg("Replaying step")

		if err := runStep(ctx, s, script, opts, step, action); err != nil {
			l.Warn().Err(err).Msg("Step rejected")
			report.Failures = append(report.Failures, &StepError{Step: i + 1, Action: action, Err: err})
		}
	}
	s.Wait()

	report.PostID = s.PostID()
	report.HTML = s.HTML()
	report.Fields = s.Fields()
	report.Words = s.WordCount()
	report.State = s.SaveState()
	report.Alerts = host.Alerts()
	report.Statuses = host.Statuses()
	return report, nil
}

func parseRegion(name string) (editor.Region, error) {
	switch strings.ToLower(name) {
	case "title":
		return editor.RegionTitle, nil
	case "subtitle", "description":
		return editor.RegionSubtitle, nil
	case "body", "content", "":
		return editor.RegionBody, nil
	}
	return 0, fmt.Errorf("unknown region %q", name)
}

func readFile(script *Script, name string) (media.File, error) {
	data, err := os.ReadFile(script.path(name))
	if err != nil {
		return media.File{}, err
	}
	return media.File{Name: filepath.Base(name), Data: data}, nil
}

func runStep(ctx context.Context, s *editor.Session, script *Script, opts Options, step Step, action string) error {
	var err error
	switch action {
	case "input":
		var r editor.Region
		if r, err = parseRegion(step.Input.Region); err == nil {
			err = s.Input(r, step.Input.Text)
		}
	case "select":
		s.Select(step.Select[0], step.Select[1])
	case "format":
		err = s.Format(format.Kind(step.Format))
	case "type":
		_, err = s.Type(step.Type)
	case "link":
		err = s.Link(step.Link)
	case "unlink":
		err = s.Unlink()
	case "highlight":
		err = s.Highlight(step.Highlight)
	case "clear":
		err = s.ClearFormatting()
	case "tag":
		_, err = s.ToggleTag(step.Tag)
	case "image_url":
		_, err = s.InsertImageURL(step.ImageURL)
	case "upload":
		var f media.File
		if f, err = readFile(script, step.Upload); err == nil {
			_, err = s.UploadImage(f)
			s.Wait()
		}
	case "video":
		_, err = s.InsertVideo(step.Video)
	case "embed":
		_, err = s.InsertEmbed(step.Embed)
	case "code":
		_, err = s.InsertCode(step.Code.Text, step.Code.Language)
	case "divider":
		s.InsertDivider()
	case "markdown":
		err = s.PasteMarkdown(step.Markdown)
	case "gallery":
		err = runGallery(s, script, step.Gallery)
	case "photo":
		var photos []model.Photo
		if photos, err = s.SearchPhotos(ctx, step.Photo); err == nil {
			if len(photos) == 0 {
				return fmt.Errorf("no photos found for %q", step.Photo)
			}
			_, err = s.InsertPhoto(photos[0])
		}
	case "wait":
		// In-flight saves started by the elapsed time settle before the next step.
		if err = opts.Sleep(ctx, step.Wait); err == nil {
			s.Wait()
		}
	case "save_draft":
		err = s.SaveDraft(ctx)
	case "publish":
		err = s.Publish(ctx)
	default:
		err = fmt.Errorf("unknown action %q", action)
	}
	return err
}

func runGallery(s *editor.Session, script *Script, g *GalleryStep) error {
	layout, err := media.ParseLayout(g.Layout)
	if err != nil {
		return err
	}
	align, err := media.ParseAlignment(g.Align)
	if err != nil {
		return err
	}
	files := make([]media.File, 0, len(g.Files))
	for _, name := range g.Files {
		f, err := readFile(script, name)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	var failed int
	if err := s.StageGallery(files, func(_, f int) { failed = f }); err != nil {
		return err
	}
	s.Wait()
	if failed > 0 {
		replayLogger.Warn().Int("failed", failed).Msg("Some gallery uploads failed")
	}
	_, err = s.InsertGallery(layout, g.Caption, align)
	return err
}
