package catalog

import (
	"sort"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/sections"
)

// Entry is the JSON projection of one section definition.
type Entry struct {
	Type        string   `json:"type"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Palette     string   `json:"palette,omitempty"`
	Span        int      `json:"span"`
	Priority    int      `json:"priority"`
	Fallback    bool     `json:"fallback,omitempty"`
}

// Search filters definitions on a case-insensitive substring of the type,
// an alias, or the description. Matches whose type starts with the query
// sort first, then alphabetically. An empty query returns the definitions
// in their given order, clamped to the limit.
func Search(defs []sections.Definition, query string, limit int, opts Options) []sections.Definition {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if len(defs) <= limit {
			return append([]sections.Definition{}, defs...)
		}
		return append([]sections.Definition{}, defs[:limit]...)
	}

	q := strings.ToLower(query)
	matches := make([]matchedDefinition, 0, 16)
	for _, def := range defs {
		if !definitionMatches(def, q) {
			continue
		}
		matches = append(matches, matchedDefinition{
			def:      def,
			isPrefix: strings.HasPrefix(strings.ToLower(def.Type), q),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].def.Type < matches[j].def.Type
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]sections.Definition, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.def)
	}
	return out
}

// SearchEntries runs Search and projects the results into Entry values.
func SearchEntries(defs []sections.Definition, query string, limit int, opts Options) []Entry {
	results := Search(defs, query, limit, opts)
	if len(results) == 0 {
		return nil
	}

	out := make([]Entry, 0, len(results))
	for _, def := range results {
		out = append(out, Entry{
			Type:        def.Type,
			Aliases:     append([]string{}, def.Aliases...),
			Description: def.Description,
			Icon:        def.Icon,
			Palette:     def.Palette,
			Span:        def.Span,
			Priority:    def.Priority,
			Fallback:    def.Type == sections.Fallback,
		})
	}
	return out
}

func definitionMatches(def sections.Definition, q string) bool {
	if strings.Contains(strings.ToLower(def.Type), q) {
		return true
	}
	for _, alias := range def.Aliases {
		if strings.Contains(strings.ToLower(alias), q) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(def.Description), q)
}

type matchedDefinition struct {
	def      sections.Definition
	isPrefix bool
}
