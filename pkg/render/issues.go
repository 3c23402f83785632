package render

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/model"
	"github.com/goliatone/go-cardgen/pkg/schema"
)

// IssueMapping splits validation findings into per-section and card-level
// messages so renderers can annotate the affected section instead of
// dumping every finding at the top of the document.
type IssueMapping struct {
	// Sections is keyed by section ID, falling back to the positional
	// "sections.N" token for sections without one.
	Sections map[string][]string
	// Card holds findings that do not target a section.
	Card []string
}

// MapIssuePayload resolves each issue's dotted path against the card model.
// Paths of the form "sections.N..." attach to section N; everything else is
// card-level. The remainder of a section path is kept as a prefix so the
// message still says which part of the payload it refers to.
func MapIssuePayload(card model.CardModel, issues []schema.Issue) IssueMapping {
	mapping := IssueMapping{}
	if len(issues) == 0 {
		return mapping
	}

	for _, issue := range issues {
		message := strings.TrimSpace(issue.Message)
		if message == "" {
			continue
		}

		index, rest, ok := splitSectionPath(issue.Path)
		if !ok {
			mapping.Card = append(mapping.Card, joinIssueMessage(issue.Path, message))
			continue
		}

		key := sectionKey(card, index)
		if mapping.Sections == nil {
			mapping.Sections = make(map[string][]string)
		}
		mapping.Sections[key] = append(mapping.Sections[key], joinIssueMessage(rest, message))
	}

	for key, messages := range mapping.Sections {
		mapping.Sections[key] = normalizeMessages(messages)
	}
	mapping.Card = normalizeMessages(mapping.Card)
	return mapping
}

// MergeCardMessages concatenates and normalises message slices, trimming
// whitespace and removing duplicates while preserving order.
func MergeCardMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// SectionAnnotations returns the messages attached to a section, matched by
// ID first and positional key second.
func (m IssueMapping) SectionAnnotations(section model.SectionModel, position int) []string {
	if len(m.Sections) == 0 {
		return nil
	}
	if section.ID != "" {
		if messages, ok := m.Sections[section.ID]; ok {
			return messages
		}
	}
	if messages, ok := m.Sections[positionalKey(position)]; ok {
		return messages
	}
	return nil
}

// splitSectionPath recognises "sections.N" prefixes and returns the index
// plus the remaining path.
func splitSectionPath(path string) (int, string, bool) {
	trimmed := strings.TrimSpace(path)
	if !strings.HasPrefix(trimmed, "sections.") {
		return 0, "", false
	}
	rest := strings.TrimPrefix(trimmed, "sections.")
	head, tail, _ := strings.Cut(rest, ".")
	index, err := strconv.Atoi(head)
	if err != nil || index < 0 {
		return 0, "", false
	}
	return index, tail, true
}

func sectionKey(card model.CardModel, index int) string {
	if index < len(card.Sections) {
		if id := strings.TrimSpace(card.Sections[index].ID); id != "" {
			return id
		}
	}
	return positionalKey(index)
}

func positionalKey(index int) string {
	return "sections." + strconv.Itoa(index)
}

func joinIssueMessage(path, message string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == "document" {
		return message
	}
	return path + ": " + message
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
