package render

import (
	"strings"

	"github.com/goliatone/go-cardgen/pkg/model"
)

// SectionSubset restricts rendering to sections matching any of the listed
// component types or section IDs. An empty subset matches everything.
type SectionSubset struct {
	Types []string
	IDs   []string
}

// Empty reports whether the subset applies no filtering.
func (s SectionSubset) Empty() bool {
	return len(s.Types) == 0 && len(s.IDs) == 0
}

// ApplySubset removes sections that do not match the supplied filters. A
// section survives when its component type is in Types or its ID is in
// IDs. When subset is empty or card is nil, the model is left unchanged.
func ApplySubset(card *model.CardModel, subset SectionSubset) {
	if card == nil {
		return
	}

	matcher := newSubsetMatcher(subset)
	if matcher.empty() {
		return
	}

	filtered := make([]model.SectionModel, 0, len(card.Sections))
	for _, section := range card.Sections {
		if matcher.matches(section) {
			filtered = append(filtered, section)
		}
	}
	card.Sections = filtered
	if len(card.Sections) == 0 {
		card.Sections = nil
	}
}

type subsetMatcher struct {
	types map[string]struct{}
	ids   map[string]struct{}
}

func newSubsetMatcher(subset SectionSubset) subsetMatcher {
	return subsetMatcher{
		types: normaliseTokens(subset.Types),
		ids:   normaliseTokens(subset.IDs),
	}
}

func (m subsetMatcher) empty() bool {
	return len(m.types) == 0 && len(m.ids) == 0
}

func (m subsetMatcher) matches(section model.SectionModel) bool {
	if len(m.types) > 0 {
		// Both the canonical component and the raw designation count, so
		// filters written against either spelling work.
		if _, ok := m.types[normaliseToken(section.Component)]; ok {
			return true
		}
		if _, ok := m.types[normaliseToken(section.Raw)]; ok {
			return true
		}
	}
	if len(m.ids) > 0 {
		if _, ok := m.ids[normaliseToken(section.ID)]; ok {
			return true
		}
	}
	return false
}

func normaliseTokens(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := normaliseToken(value)
		if token == "" {
			continue
		}
		result[token] = struct{}{}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
