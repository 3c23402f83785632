// Package model defines the renderer-facing card model: the document joined
// with resolved section types, effective layout hints, and palette names.
// Renderers consume CardModel and never look at raw documents.
package model

import (
	"time"

	"github.com/goliatone/go-cardgen/pkg/card"
)

// CardModel is the fully resolved card handed to renderers.
type CardModel struct {
	ID            string
	Title         string
	Subtitle      string
	Type          string
	Palette       string
	Columns       int
	Sections      []SectionModel
	Actions       []card.Action
	Meta          map[string]string
	UpdatedAt     time.Time
	SchemaVersion string
}

// SectionModel is one resolved section. Component names the canonical type
// the component registry dispatches on; Raw keeps the document's original
// designation for diagnostics.
type SectionModel struct {
	ID        string
	Component string
	Raw       string
	Fallback  bool
	Title     string
	Palette   string
	Span      int
	Priority  int
	Collapsed bool
	Kind      card.PayloadKind
	Fields    []card.Field
	Items     []card.Item
	Chart     *card.ChartData
	Table     *card.TableData
	Map       *card.MapData
	Media     []card.MediaItem
	Text      string
	Metadata  map[string]string
}

// HasPayload reports whether the section carries anything renderable.
func (s SectionModel) HasPayload() bool {
	return s.Kind != card.PayloadEmpty
}
