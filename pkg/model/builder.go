package model

import (
	"errors"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/sections"
)

const defaultColumns = 3

// Labeler turns an identifier into a display label.
type Labeler func(name string) string

type buildConfig struct {
	columns int
	palette string
	labeler Labeler
}

// Option adjusts model building.
type Option func(*buildConfig)

// WithColumns sets the card grid width. Values below 1 keep the default.
func WithColumns(columns int) Option {
	return func(cfg *buildConfig) {
		if columns >= 1 {
			cfg.columns = columns
		}
	}
}

// WithPalette sets the card-level palette name renderers fall back to when a
// section does not carry its own.
func WithPalette(palette string) Option {
	return func(cfg *buildConfig) {
		cfg.palette = palette
	}
}

// WithLabeler replaces the labeler used to title untitled sections.
func WithLabeler(labeler Labeler) Option {
	return func(cfg *buildConfig) {
		if labeler != nil {
			cfg.labeler = labeler
		}
	}
}

// Build joins a card with its resolved sections into the renderer model.
// Untitled sections get a humanized title from their canonical type, icon
// markup is sanitized, and spans are capped at the configured column count.
func Build(c *card.Card, resolved []sections.ResolvedSection, opts ...Option) (CardModel, error) {
	if c == nil {
		return CardModel{}, errors.New("model: card is required")
	}

	cfg := buildConfig{
		columns: defaultColumns,
		labeler: DefaultLabeler,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := CardModel{
		ID:            c.ID,
		Title:         c.Title,
		Subtitle:      c.Subtitle,
		Type:          string(c.Type.Normalize()),
		Palette:       cfg.palette,
		Columns:       cfg.columns,
		Meta:          cloneMeta(c.Metadata),
		UpdatedAt:     c.UpdatedAt,
		SchemaVersion: c.SchemaVersion,
	}

	if len(c.Actions) > 0 {
		out.Actions = make([]card.Action, len(c.Actions))
		for i, action := range c.Actions {
			action.Icon = card.SanitizeIcon(action.Icon)
			out.Actions[i] = action
		}
	}

	if len(resolved) > 0 {
		out.Sections = make([]SectionModel, len(resolved))
		for i, res := range resolved {
			out.Sections[i] = cfg.buildSection(res)
		}
	}
	return out, nil
}

func (cfg *buildConfig) buildSection(res sections.ResolvedSection) SectionModel {
	sec := res.Section

	out := SectionModel{
		ID:        sec.ID,
		Component: res.Canonical,
		Raw:       res.Raw,
		Fallback:  res.Fallback,
		Title:     sec.Title,
		Palette:   res.Palette,
		Span:      res.Span,
		Priority:  res.Priority,
		Collapsed: res.Collapsed,
		Kind:      sec.PayloadKind(),
		Items:     sec.Items,
		Chart:     sec.Chart,
		Table:     sec.Table,
		Map:       sec.Map,
		Media:     sec.Media,
		Text:      sec.Text,
		Metadata:  sec.Metadata,
	}

	if out.Title == "" {
		out.Title = cfg.labeler(res.Canonical)
	}
	if out.Span > cfg.columns {
		out.Span = cfg.columns
	}

	if len(sec.Fields) > 0 {
		out.Fields = make([]card.Field, len(sec.Fields))
		for i, field := range sec.Fields {
			field.Icon = card.SanitizeIcon(field.Icon)
			out.Fields[i] = field
		}
	}
	return out
}

func cloneMeta(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
