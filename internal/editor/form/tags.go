package form

import (
	"errors"
	"fmt"

	"github.com/debemdeboas/inkwell/internal/model"
)

var ErrUnknownTag = errors.New("unknown tag")

// TagSet is the set of tag checkboxes shown next to the editor.
type TagSet struct {
	available []model.Tag
	selected  map[model.TagID]bool
}

func NewTagSet(available []model.Tag, selected ...model.TagID) *TagSet {
	t := &TagSet{available: available, selected: make(map[model.TagID]bool)}
	t.Replace(selected)
	return t
}

func (t *TagSet) known(id model.TagID) bool {
	for _, tag := range t.available {
		if tag.ID == id {
			return true
		}
	}
	return false
}

// Toggle flips the checkbox of id and returns its new state.
func (t *TagSet) Toggle(id model.TagID) (bool, error) {
	if !t.known(id) {
		return false, fmt.Errorf("%w: %s", ErrUnknownTag, id)
	}
	t.selected[id] = !t.selected[id]
	return t.selected[id], nil
}

func (t *TagSet) Set(id model.TagID, on bool) error {
	if !t.known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownTag, id)
	}
	t.selected[id] = on
	return nil
}

// Replace checks exactly the known tags among ids.
func (t *TagSet) Replace(ids []model.TagID) {
	t.selected = make(map[model.TagID]bool, len(ids))
	for _, id := range ids {
		if t.known(id) {
			t.selected[id] = true
		}
	}
}

// Selected returns the checked tags in display order.
func (t *TagSet) Selected() []model.TagID {
	var out []model.TagID
	for _, tag := range t.available {
		if t.selected[tag.ID] {
			out = append(out, tag.ID)
		}
	}
	return out
}

func (t *TagSet) Available() []model.Tag {
	return append([]model.Tag(nil), t.available...)
}

// Status is the hint shown under the tag cloud.
func (t *TagSet) Status() string {
	switch n := len(t.Selected()); n {
	case 0:
		return "Add at least one tag to publish your story"
	case 1:
		return "1 tag selected"
	default:
		return fmt.Sprintf("%d tags selected", n)
	}
}
