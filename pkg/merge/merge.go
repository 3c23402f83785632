package merge

import (
	"github.com/goliatone/go-cardgen/pkg/card"
)

// Merge folds an incoming (possibly partial) card update into the current
// state and reports whether anything changed.
//
// Sections are matched by ID; sections without IDs pair up positionally
// among themselves. A matched section with an equal content hash carries the
// current section value into the result, backing slices included, so
// downstream caches keyed on identity or hash stay warm. A matched section
// with a different hash is replaced by a deep copy of the incoming one.
// Incoming-only sections are appended in their own order; current-only
// sections stay where they were, because a partial update says nothing about
// them.
//
// Top-level scalars follow non-zero-wins: an empty incoming title leaves the
// current title alone. Metadata merges shallowly with incoming keys
// overwriting. A non-nil incoming Actions slice replaces the current one
// wholesale.
//
// When nothing changed the returned pointer is current itself and the
// second return is false. Neither argument is ever mutated.
func Merge(current, incoming *card.Card) (*card.Card, bool) {
	if incoming == nil {
		return current, false
	}
	if current == nil {
		return incoming.Clone(), true
	}

	result := *current
	changed := false

	if incoming.ID != "" && incoming.ID != result.ID {
		result.ID = incoming.ID
		changed = true
	}
	if incoming.Title != "" && incoming.Title != result.Title {
		result.Title = incoming.Title
		changed = true
	}
	if incoming.Subtitle != "" && incoming.Subtitle != result.Subtitle {
		result.Subtitle = incoming.Subtitle
		changed = true
	}
	if incoming.Type != "" && incoming.Type != result.Type {
		result.Type = incoming.Type
		changed = true
	}

	if md, mdChanged := mergeMetadata(current.Metadata, incoming.Metadata); mdChanged {
		result.Metadata = md
		changed = true
	}

	if incoming.Actions != nil && !equalActions(current.Actions, incoming.Actions) {
		result.Actions = append([]card.Action(nil), incoming.Actions...)
		changed = true
	}

	sections, sectionsChanged := mergeSections(current.Sections, incoming.Sections)
	if sectionsChanged {
		result.Sections = sections
		changed = true
	}

	if !changed {
		return current, false
	}

	// Bookkeeping: a real change may carry a fresher stamp.
	if !incoming.UpdatedAt.IsZero() {
		result.UpdatedAt = incoming.UpdatedAt
	}
	if incoming.SchemaVersion != "" {
		result.SchemaVersion = incoming.SchemaVersion
	}
	return &result, true
}

func mergeSections(current, incoming []card.Section) ([]card.Section, bool) {
	if len(incoming) == 0 {
		return current, false
	}

	byID := make(map[string]int, len(current))
	var anonymous []int
	for i := range current {
		if id := current[i].ID; id != "" {
			byID[id] = i
		} else {
			anonymous = append(anonymous, i)
		}
	}

	out := make([]card.Section, len(current))
	copy(out, current)
	changed := false
	anonCursor := 0

	for i := range incoming {
		in := incoming[i]

		idx := -1
		if in.ID != "" {
			if at, ok := byID[in.ID]; ok {
				idx = at
			}
		} else if anonCursor < len(anonymous) {
			idx = anonymous[anonCursor]
			anonCursor++
		}

		if idx < 0 {
			out = append(out, in.Clone())
			changed = true
			continue
		}
		if SectionHash(current[idx]) == SectionHash(in) {
			continue
		}
		out[idx] = in.Clone()
		changed = true
	}

	if !changed {
		return current, false
	}
	return out, true
}

func mergeMetadata(current, incoming map[string]string) (map[string]string, bool) {
	if len(incoming) == 0 {
		return current, false
	}

	changed := false
	for k, v := range incoming {
		if existing, ok := current[k]; !ok || existing != v {
			changed = true
			break
		}
	}
	if !changed {
		return current, false
	}

	out := make(map[string]string, len(current)+len(incoming))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out, true
}

func equalActions(a, b []card.Action) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
