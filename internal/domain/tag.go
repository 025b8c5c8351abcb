package domain

import (
	"fmt"
	"strings"
)

type Tag string

const (
	TagBusiness  Tag = "BUSINESS"
	TagPersonal  Tag = "PERSONAL"
	TagImportant Tag = "IMPORTANT"
)

// AllTags lists the closed set of tags in declaration order.
var AllTags = []Tag{TagBusiness, TagPersonal, TagImportant}

func (t Tag) Valid() bool {
	switch t {
	case TagBusiness, TagPersonal, TagImportant:
		return true
	}
	return false
}

func ParseTag(s string) (Tag, error) {
	t := Tag(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tag %q", s)
	}
	return t, nil
}

// TagNames renders the allowed values for error messages.
func TagNames() string {
	names := make([]string, len(AllTags))
	for i, t := range AllTags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// TagFilter selects notes carrying at least one of its tags. An empty filter
// selects every note.
type TagFilter []Tag

func (f TagFilter) Matches(tags []Tag) bool {
	if len(f) == 0 {
		return true
	}
	for _, want := range f {
		for _, have := range tags {
			if want == have {
				return true
			}
		}
	}
	return false
}
