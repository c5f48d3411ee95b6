// Package replay drives an editor session from a recorded script of writer actions.
package replay

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/debemdeboas/inkwell/internal/model"
	"gopkg.in/yaml.v3"
)

// Script is a replayable editing session.
type Script struct {
	PostID   model.PostID `yaml:"post_id"`
	Title    string       `yaml:"title"`
	Subtitle string       `yaml:"subtitle"`
	Content  string       `yaml:"content"`
	URL      string       `yaml:"url"`
	// Tags selected when the page loads.
	Tags []model.TagID `yaml:"tags"`
	// Restore answers the restore prompt when a stored draft is offered.
	Restore bool   `yaml:"restore"`
	Steps   []Step `yaml:"steps"`

	dir string
}

// Step holds exactly one action.
type Step struct {
	Input     *InputStep    `yaml:"input,omitempty"`
	Select    []int         `yaml:"select,omitempty"`
	Format    string        `yaml:"format,omitempty"`
	Type      string        `yaml:"type,omitempty"`
	Link      string        `yaml:"link,omitempty"`
	Unlink    bool          `yaml:"unlink,omitempty"`
	Highlight string        `yaml:"highlight,omitempty"`
	Clear     bool          `yaml:"clear,omitempty"`
	Tag       string        `yaml:"tag,omitempty"`
	ImageURL  string        `yaml:"image_url,omitempty"`
	Upload    string        `yaml:"upload,omitempty"`
	Video     string        `yaml:"video,omitempty"`
	Embed     string        `yaml:"embed,omitempty"`
	Code      *CodeStep     `yaml:"code,omitempty"`
	Divider   bool          `yaml:"divider,omitempty"`
	Markdown  string        `yaml:"markdown,omitempty"`
	Gallery   *GalleryStep  `yaml:"gallery,omitempty"`
	Photo     string        `yaml:"photo,omitempty"`
	Wait      time.Duration `yaml:"wait,omitempty"`
	SaveDraft bool          `yaml:"save_draft,omitempty"`
	Publish   bool          `yaml:"publish,omitempty"`
}

type InputStep struct {
	// Region is title, subtitle or body.
	Region string `yaml:"region"`
	Text   string `yaml:"text"`
}

type CodeStep struct {
	Language string `yaml:"language"`
	Text     string `yaml:"text"`
}

type GalleryStep struct {
	Files   []string `yaml:"files"`
	Layout  string   `yaml:"layout"`
	Caption string   `yaml:"caption"`
	Align   string   `yaml:"align"`
}

// Action names the action a step holds, or returns an error when it holds none or several.
func (s Step) Action() (string, error) {
	set := map[string]bool{
		"input":      s.Input != nil,
		"select":     s.Select != nil,
		"format":     s.Format != "",
		"type":       s.Type != "",
		"link":       s.Link != "",
		"unlink":     s.Unlink,
		"highlight":  s.Highlight != "",
		"clear":      s.Clear,
		"tag":        s.Tag != "",
		"image_url":  s.ImageURL != "",
		"upload":     s.Upload != "",
		"video":      s.Video != "",
		"embed":      s.Embed != "",
		"code":       s.Code != nil,
		"divider":    s.Divider,
		"markdown":   s.Markdown != "",
		"gallery":    s.Gallery != nil,
		"photo":      s.Photo != "",
		"wait":       s.Wait > 0,
		"save_draft": s.SaveDraft,
		"publish":    s.Publish,
	}
	var found string
	for name, ok := range set {
		if !ok {
			continue
		}
		if found != "" {
			return "", fmt.Errorf("step has more than one action")
		}
		found = name
	}
	if found == "" {
		return "", fmt.Errorf("step has no action")
	}
	return found, nil
}

// Parse decodes a script. Relative file paths in steps are resolved against dir.
func Parse(data []byte, dir string) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, step := range s.Steps {
		if _, err := step.Action(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Select != nil && len(step.Select) != 2 {
			return nil, fmt.Errorf("step %d: select takes a start and an end offset", i+1)
		}
	}
	s.dir = dir
	return &s, nil
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Dir(path))
}

func (s *Script) path(name string) string {
	if filepath.IsAbs(name) || s.dir == "" {
		return name
	}
	return filepath.Join(s.dir, name)
}
