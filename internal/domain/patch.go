package domain

import "slices"

// Optional distinguishes "not supplied" from any supplied value, including
// the zero value.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

type NotePatch struct {
	Title Optional[string]
	Text  Optional[string]
	Tags  Optional[[]Tag]
}

func (p NotePatch) Empty() bool {
	return !p.Title.IsSet() && !p.Text.IsSet() && !p.Tags.IsSet()
}

// MergeNote returns note with every field set in patch overwritten. Unset
// fields keep their current value; a set Tags replaces the whole list. ID and
// CreatedAt are never touched.
func MergeNote(note Note, patch NotePatch) Note {
	merged := note
	merged.Tags = slices.Clone(note.Tags)

	if title, ok := patch.Title.Get(); ok {
		merged.Title = title
	}
	if text, ok := patch.Text.Get(); ok {
		merged.Text = text
	}
	if tags, ok := patch.Tags.Get(); ok {
		merged.Tags = slices.Clone(tags)
		if merged.Tags == nil {
			merged.Tags = []Tag{}
		}
	}

	return merged
}
