// Package filter decides whether a raw playlist item satisfies a keyword query.
package filter

import (
	"strings"

	"github.com/ytget/ytplfilter/query"
	"github.com/ytget/ytplfilter/types"
)

// fieldSeparator joins the enabled fields. query.Parse turns line breaks into
// spaces, so no parsed term contains it and no term can match across two fields.
const fieldSeparator = "\n"

// Fields selects which item fields are searched.
type Fields struct {
	Title       bool
	Description bool
	Channel     bool
}

// AllFields enables every searchable field.
var AllFields = Fields{Title: true, Description: true, Channel: true}

// None reports whether no field is enabled.
func (f Fields) None() bool {
	return !f.Title && !f.Description && !f.Channel
}

// SearchText returns the case-folded text of the enabled fields of item.
// It is empty when no field is enabled.
func SearchText(item types.PlaylistItem, fields Fields) string {
	parts := make([]string, 0, 3)
	if fields.Title {
		parts = append(parts, item.Snippet.Title)
	}
	if fields.Description {
		parts = append(parts, item.Snippet.Description)
	}
	if fields.Channel {
		parts = append(parts, item.Snippet.VideoOwnerChannelTitle)
	}
	return query.Fold(strings.Join(parts, fieldSeparator))
}

// Match reports whether item satisfies every term over the enabled fields.
// Disabling all fields does not mean "match everything": plain terms then fail.
func Match(item types.PlaylistItem, fields Fields, terms []query.Term) bool {
	text := SearchText(item, fields)
	for _, t := range terms {
		if !t.Satisfied(text) {
			return false
		}
	}
	return true
}
