package overlay

import (
	"strings"

	"github.com/goliatone/go-cardgen/pkg/card"
)

// Match selects the cards an overlay applies to. CardID takes precedence over
// CardType when both could match a card; an overlay must set at least one.
type Match struct {
	CardType string `json:"cardType,omitempty" yaml:"cardType,omitempty"`
	CardID   string `json:"cardId,omitempty" yaml:"cardId,omitempty"`
}

// Empty reports whether the match selects nothing.
func (m Match) Empty() bool {
	return strings.TrimSpace(m.CardType) == "" && strings.TrimSpace(m.CardID) == ""
}

// Overlay is one presentation override document. Section references in
// HideSections, Order, Retitle, and Sections accept a canonical section type,
// the document's raw designation, or a section ID; unknown references are
// ignored at apply time.
type Overlay struct {
	Name         string                    `json:"name" yaml:"name"`
	Source       string                    `json:"-" yaml:"-"`
	Match        Match                     `json:"match" yaml:"match"`
	When         string                    `json:"when,omitempty" yaml:"when,omitempty"`
	Palette      string                    `json:"palette,omitempty" yaml:"palette,omitempty"`
	Columns      int                       `json:"columns,omitempty" yaml:"columns,omitempty"`
	HideSections []string                  `json:"hideSections,omitempty" yaml:"hideSections,omitempty"`
	Order        []string                  `json:"order,omitempty" yaml:"order,omitempty"`
	Retitle      map[string]string         `json:"retitle,omitempty" yaml:"retitle,omitempty"`
	Actions      []card.Action             `json:"actions,omitempty" yaml:"actions,omitempty"`
	Sections     map[string]SectionOverlay `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// SectionOverlay overrides presentation hints for the sections its key
// matches. A zero Span leaves the resolved span untouched; Collapsed is a
// pointer so overlays can force either state.
type SectionOverlay struct {
	Palette   string `json:"palette,omitempty" yaml:"palette,omitempty"`
	Span      int    `json:"span,omitempty" yaml:"span,omitempty"`
	Collapsed *bool  `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	HideWhen  string `json:"hideWhen,omitempty" yaml:"hideWhen,omitempty"`
}

// normalizeRef flattens a section reference for comparison: lowercase with
// underscores and spaces folded to dashes, matching the section registry's
// alias normalization.
func normalizeRef(ref string) string {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return ""
	}
	ref = strings.ReplaceAll(ref, "_", "-")
	ref = strings.ReplaceAll(ref, " ", "-")
	for strings.Contains(ref, "--") {
		ref = strings.ReplaceAll(ref, "--", "-")
	}
	return strings.Trim(ref, "-")
}
