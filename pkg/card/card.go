package card

import (
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is the document schema revision this package parses and the
// store stamps on persisted envelopes.
const SchemaVersion = "2.1"

// CardType describes the overall presentation intent of a card.
type CardType string

const (
	TypeStandard  CardType = "standard"
	TypeDashboard CardType = "dashboard"
	TypeReport    CardType = "report"
	TypeCompact   CardType = "compact"
)

// Valid reports whether the type is one of the known values. The empty string
// is valid and treated as TypeStandard.
func (t CardType) Valid() bool {
	switch t {
	case "", TypeStandard, TypeDashboard, TypeReport, TypeCompact:
		return true
	}
	return false
}

// Normalize maps the zero value to TypeStandard and leaves everything else
// untouched.
func (t CardType) Normalize() CardType {
	if t == "" {
		return TypeStandard
	}
	return t
}

// Card is the root document. Section order is meaningful and preserved
// through parsing and normalization.
type Card struct {
	ID            string            `json:"id,omitempty"`
	Title         string            `json:"title"`
	Subtitle      string            `json:"subtitle,omitempty"`
	Type          CardType          `json:"type,omitempty"`
	Sections      []Section         `json:"sections"`
	Actions       []Action          `json:"actions,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	SchemaVersion string            `json:"schemaVersion,omitempty"`
	UpdatedAt     time.Time         `json:"updatedAt,omitempty"`
}

// Section is one block of card content. Type is the raw designation as it
// appeared in the document; alias resolution happens during normalization,
// never here.
type Section struct {
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"type"`
	Title    string            `json:"title,omitempty"`
	Fields   []Field           `json:"fields,omitempty"`
	Items    []Item            `json:"items,omitempty"`
	Chart    *ChartData        `json:"chart,omitempty"`
	Table    *TableData        `json:"table,omitempty"`
	Map      *MapData          `json:"map,omitempty"`
	Media    []MediaItem       `json:"media,omitempty"`
	Text     string            `json:"text,omitempty"`
	Layout   *LayoutHints      `json:"layout,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Action is a card-level affordance (link or command) rendered alongside the
// sections.
type Action struct {
	ID      string `json:"id,omitempty"`
	Label   string `json:"label"`
	Href    string `json:"href,omitempty"`
	Icon    string `json:"icon,omitempty"`
	Style   string `json:"style,omitempty"`
	Confirm string `json:"confirm,omitempty"`
}

// Action styles understood by the built-in renderers. Anything else renders
// as StylePlain.
const (
	StylePrimary   = "primary"
	StyleSecondary = "secondary"
	StyleDanger    = "danger"
	StylePlain     = "link"
)

// LayoutHints carries explicit placement overrides. Zero values mean "unset"
// and inherit the section definition's defaults during normalization.
type LayoutHints struct {
	Span      int  `json:"span,omitempty"`
	Priority  int  `json:"priority,omitempty"`
	Collapsed bool `json:"collapsed,omitempty"`
}

// Validate performs structural sanity checks on the document. It stops at the
// first problem and reports it with a section-relative prefix. Deeper schema
// validation lives in the schema package.
func (c *Card) Validate() error {
	if c == nil {
		return fmt.Errorf("card: document is nil")
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("card: title is required")
	}
	if !c.Type.Valid() {
		return fmt.Errorf("card: unknown card type %q", c.Type)
	}
	for i := range c.Sections {
		if err := c.Sections[i].validate(); err != nil {
			return fmt.Errorf("card: section %d (%s): %w", i, c.Sections[i].Type, err)
		}
	}
	for i, action := range c.Actions {
		if strings.TrimSpace(action.Label) == "" {
			return fmt.Errorf("card: action %d: label is required", i)
		}
	}
	return nil
}

func (s *Section) validate() error {
	if s.Chart != nil {
		if err := s.Chart.validate(); err != nil {
			return err
		}
	}
	if s.Table != nil {
		if err := s.Table.validate(); err != nil {
			return err
		}
	}
	if s.Map != nil {
		if err := s.Map.validate(); err != nil {
			return err
		}
	}
	if s.Layout != nil && s.Layout.Span < 0 {
		return fmt.Errorf("layout span must not be negative")
	}
	return nil
}

// Clone returns a deep copy. Mergers and decorators rely on this to keep the
// originals untouched.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	clone := *c
	if len(c.Sections) > 0 {
		clone.Sections = make([]Section, len(c.Sections))
		for i := range c.Sections {
			clone.Sections[i] = c.Sections[i].Clone()
		}
	}
	if len(c.Actions) > 0 {
		clone.Actions = append([]Action(nil), c.Actions...)
	}
	clone.Metadata = cloneStringMap(c.Metadata)
	return &clone
}

// Clone returns a deep copy of the section and its payloads.
func (s Section) Clone() Section {
	clone := s
	if len(s.Fields) > 0 {
		clone.Fields = append([]Field(nil), s.Fields...)
	}
	if len(s.Items) > 0 {
		clone.Items = make([]Item, len(s.Items))
		for i := range s.Items {
			clone.Items[i] = s.Items[i].clone()
		}
	}
	if s.Chart != nil {
		chart := s.Chart.Clone()
		clone.Chart = &chart
	}
	if s.Table != nil {
		table := s.Table.Clone()
		clone.Table = &table
	}
	if s.Map != nil {
		m := s.Map.Clone()
		clone.Map = &m
	}
	if len(s.Media) > 0 {
		clone.Media = append([]MediaItem(nil), s.Media...)
	}
	if s.Layout != nil {
		layout := *s.Layout
		clone.Layout = &layout
	}
	clone.Metadata = cloneStringMap(s.Metadata)
	return clone
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
