// Package form mirrors the editable regions and the tag selection into the hidden fields of the
// post form and validates a publish request.
package form

import (
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

var formLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	formLogger = l
}

type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldContent     Field = "content"
	FieldTags        Field = "tags"
)

const (
	NoTagsMessage    = "Please select at least one tag before publishing"
	NoTitleMessage   = "Please enter a title before publishing"
	NoContentMessage = "Please write some content before publishing"
)

type Problem struct {
	Field   Field
	Message string
}

// ValidationError lists every problem that blocks a publish, most important first.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Has(f Field) bool {
	for _, p := range e.Problems {
		if p.Field == f {
			return true
		}
	}
	return false
}

// Regions are the editable areas mirrored into the form.
type Regions struct {
	Title    *html.Node
	Subtitle *html.Node
	Body     *html.Node
}

// Fields are the hidden inputs of the post form.
type Fields struct {
	PostID      model.PostID
	Title       string
	Description string
	Content     string
	URL         string
	// Tags is the comma joined list of selected tag ids.
	Tags string
	// TagInputs holds one hidden tagIds input per selected tag.
	TagInputs []model.TagID
	Action    model.Action
	Token     string
}

// Synchronizer is not safe for concurrent use; it runs under the editor session's serialisation.
type Synchronizer struct {
	regions   Regions
	tags      *TagSet
	fields    Fields
	customURL bool
}

func New(regions Regions, tags *TagSet, token string) *Synchronizer {
	s := &Synchronizer{regions: regions, tags: tags, fields: Fields{Token: token}}
	s.Sync()
	return s
}

// text is the text content of n without its leading and trailing whitespace, which editable
// regions pick up from line breaks typed at their edges. Inner whitespace is kept.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(dom.TextContent(n))
}

// Sync copies the regions and the tag selection into the fields. Title and description hold the
// trimmed text of their regions; content holds the body markup unchanged.
func (s *Synchronizer) Sync() {
	s.fields.Title = text(s.regions.Title)
	s.fields.Description = text(s.regions.Subtitle)
	if s.regions.Body != nil {
		s.fields.Content = dom.InnerHTML(s.regions.Body)
	}
	selected := s.tags.Selected()
	ids := make([]string, len(selected))
	for i, id := range selected {
		ids[i] = string(id)
	}
	s.fields.Tags = strings.Join(ids, ",")
	if !s.customURL {
		s.fields.URL = util.Slugify(s.fields.Title)
	}
}

func (s *Synchronizer) Fields() Fields {
	f := s.fields
	f.TagInputs = append([]model.TagID(nil), s.fields.TagInputs...)
	return f
}

func (s *Synchronizer) SetPostID(id model.PostID) {
	s.fields.PostID = id
}

// SetURL pins the slug. An empty slug goes back to deriving it from the title.
func (s *Synchronizer) SetURL(slug string) {
	s.customURL = strings.TrimSpace(slug) != ""
	if s.customURL {
		s.fields.URL = util.Slugify(slug)
		return
	}
	s.fields.URL = util.Slugify(s.fields.Title)
}

// AddTagInputs records hidden tag inputs that already exist in the page.
func (s *Synchronizer) AddTagInputs(ids ...model.TagID) {
	s.fields.TagInputs = append(s.fields.TagInputs, ids...)
}

// PrepareSubmission synchronises the fields, keeps exactly one hidden input per selected tag and
// returns what the form submits.
func (s *Synchronizer) PrepareSubmission(action model.Action) model.Submission {
	s.Sync()
	s.fields.Action = action

	selected := s.tags.Selected()
	want := make(map[model.TagID]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	seen := make(map[model.TagID]bool, len(selected))
	var inputs []model.TagID
	candidates := append(append([]model.TagID(nil), s.fields.TagInputs...), selected...)
	for _, id := range candidates {
		if want[id] && !seen[id] {
			seen[id] = true
			inputs = append(inputs, id)
		}
	}
	formLogger.Debug().Int("before", len(s.fields.TagInputs)).Int("after", len(inputs)).Msg("Tag inputs prepared")
	s.fields.TagInputs = inputs

	return model.Submission{
		PostID:      s.fields.PostID,
		Title:       s.fields.Title,
		Description: s.fields.Description,
		Content:     s.fields.Content,
		URL:         s.fields.URL,
		Tags:        s.fields.Tags,
		TagIDs:      append([]model.TagID(nil), inputs...),
		Action:      action,
	}
}

func hasContent(body *html.Node) bool {
	if body == nil {
		return false
	}
	if strings.TrimSpace(dom.TextContent(body)) != "" {
		return true
	}
	return len(dom.FindAll(body, func(n *html.Node) bool {
		return dom.IsElement(n, "img", "iframe", "video", "hr")
	})) > 0
}

// ValidatePublish synchronises the fields and returns a *ValidationError when the post cannot be
// published.
func (s *Synchronizer) ValidatePublish() error {
	s.Sync()
	var problems []Problem
	if len(s.tags.Selected()) == 0 {
		problems = append(problems, Problem{Field: FieldTags, Message: NoTagsMessage})
	}
	if s.fields.Title == "" {
		problems = append(problems, Problem{Field: FieldTitle, Message: NoTitleMessage})
	}
	if !hasContent(s.regions.Body) {
		problems = append(problems, Problem{Field: FieldContent, Message: NoContentMessage})
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
