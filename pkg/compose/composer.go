// Package compose builds card documents through an interactive prompt
// session. The prompt driver is abstracted so flows can be scripted in tests;
// the default driver speaks to the terminal via survey.
package compose

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/model"
	"github.com/goliatone/go-cardgen/pkg/render"
	"github.com/goliatone/go-cardgen/pkg/renderers/text"
	"github.com/goliatone/go-cardgen/pkg/sections"
)

type Option func(*Composer)

// WithDriver replaces the terminal prompt driver.
func WithDriver(driver Driver) Option {
	return func(c *Composer) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithSections supplies the section registry whose definitions are offered
// in the section type picker.
func WithSections(registry *sections.Registry) Option {
	return func(c *Composer) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithPreview replaces the renderer used for the final preview. Nil disables
// the preview entirely.
func WithPreview(renderer render.Renderer) Option {
	return func(c *Composer) {
		c.preview = renderer
		c.previewSet = true
	}
}

// Composer drives an interactive session that assembles a card document.
type Composer struct {
	driver     Driver
	registry   *sections.Registry
	preview    render.Renderer
	previewSet bool
}

// New constructs a composer with the survey driver, the default section
// registry, and a text renderer preview.
func New(options ...Option) *Composer {
	c := &Composer{
		driver:   NewSurveyDriver(),
		registry: sections.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.preview == nil && !c.previewSet {
		c.preview = text.New()
	}
	return c
}

var cardTypes = []string{
	string(card.TypeStandard),
	string(card.TypeDashboard),
	string(card.TypeReport),
	string(card.TypeCompact),
}

// Run walks the user through the card: identity prompts, a repeated section
// loop, optional actions, then a rendered preview with a final confirmation.
// Declining the confirmation returns ErrDiscarded; Ctrl+C anywhere returns
// ErrAborted.
func (c *Composer) Run(ctx context.Context) (*card.Card, error) {
	title, err := c.driver.Input(ctx, InputConfig{
		Message:   "Card title",
		Validator: required("title"),
	})
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)

	id, err := c.driver.Input(ctx, InputConfig{
		Message: "Card ID",
		Default: slugify(title),
		Help:    "Used as the storage key",
	})
	if err != nil {
		return nil, err
	}

	subtitle, err := c.driver.Input(ctx, InputConfig{Message: "Subtitle", Help: "Leave empty to skip"})
	if err != nil {
		return nil, err
	}

	typeIdx, err := c.driver.Select(ctx, SelectConfig{
		Message: "Card type",
		Options: cardTypes,
	})
	if err != nil {
		return nil, err
	}
	if typeIdx < 0 || typeIdx >= len(cardTypes) {
		typeIdx = 0
	}

	doc := &card.Card{
		ID:            strings.TrimSpace(id),
		Title:         title,
		Subtitle:      strings.TrimSpace(subtitle),
		Type:          card.CardType(cardTypes[typeIdx]),
		SchemaVersion: card.SchemaVersion,
	}

	for {
		add, err := c.driver.Confirm(ctx, ConfirmConfig{
			Message: "Add a section?",
			Default: len(doc.Sections) == 0,
		})
		if err != nil {
			return nil, err
		}
		if !add {
			break
		}
		section, err := c.promptSection(ctx)
		if err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, section)
	}

	if err := c.promptActions(ctx, doc); err != nil {
		return nil, err
	}

	c.showPreview(ctx, doc)

	keep, err := c.driver.Confirm(ctx, ConfirmConfig{Message: "Keep this card?", Default: true})
	if err != nil {
		return nil, err
	}
	if !keep {
		return nil, ErrDiscarded
	}
	return doc, nil
}

func (c *Composer) promptSection(ctx context.Context) (card.Section, error) {
	defs := c.registry.Definitions()
	labels := make([]string, len(defs))
	for i, def := range defs {
		labels[i] = def.Type + " - " + def.Description
	}

	idx, err := c.driver.Select(ctx, SelectConfig{
		Message:  "Section type",
		Options:  labels,
		PageSize: 12,
	})
	if err != nil {
		return card.Section{}, err
	}
	if idx < 0 || idx >= len(defs) {
		idx = len(defs) - 1
	}
	def := defs[idx]

	title, err := c.driver.Input(ctx, InputConfig{Message: "Section title", Help: "Leave empty for no heading"})
	if err != nil {
		return card.Section{}, err
	}

	section := card.Section{Type: def.Type, Title: strings.TrimSpace(title)}

	switch flowFor(def.Type) {
	case card.PayloadText:
		body, err := c.driver.TextArea(ctx, TextAreaConfig{Message: "Body text"})
		if err != nil {
			return card.Section{}, err
		}
		section.Text = body
	case card.PayloadFields:
		section.Fields, err = c.promptFields(ctx)
		if err != nil {
			return card.Section{}, err
		}
	case card.PayloadChart:
		section.Chart, err = c.promptChart(ctx)
		if err != nil {
			return card.Section{}, err
		}
	case card.PayloadTable:
		section.Table, err = c.promptTable(ctx)
		if err != nil {
			return card.Section{}, err
		}
	case card.PayloadMap:
		section.Map, err = c.promptMap(ctx)
		if err != nil {
			return card.Section{}, err
		}
	case card.PayloadMedia:
		section.Media, err = c.promptMedia(ctx)
		if err != nil {
			return card.Section{}, err
		}
	default:
		trackDone := def.Type == "list" || def.Type == "progress"
		section.Items, err = c.promptItems(ctx, trackDone)
		if err != nil {
			return card.Section{}, err
		}
	}
	return section, nil
}

// flowFor picks the payload prompt flow for a canonical section type. Types
// without a dedicated flow collect items, the most generic payload.
func flowFor(sectionType string) card.PayloadKind {
	switch sectionType {
	case "chart":
		return card.PayloadChart
	case "table":
		return card.PayloadTable
	case "map":
		return card.PayloadMap
	case "gallery":
		return card.PayloadMedia
	case "overview", "quote":
		return card.PayloadText
	case "analytics", "financials", "market", "comparison", "info":
		return card.PayloadFields
	}
	return card.PayloadItems
}

func (c *Composer) promptFields(ctx context.Context) ([]card.Field, error) {
	trends := []string{"none", card.TrendUp, card.TrendDown, card.TrendFlat}
	var fields []card.Field
	for {
		label, err := c.driver.Input(ctx, InputConfig{Message: "Field label", Help: "Empty finishes the list"})
		if err != nil {
			return nil, err
		}
		label = strings.TrimSpace(label)
		if label == "" {
			return fields, nil
		}

		value, err := c.driver.Input(ctx, InputConfig{Message: label + " value"})
		if err != nil {
			return nil, err
		}

		trendIdx, err := c.driver.Select(ctx, SelectConfig{
			Message: "Trend for " + label,
			Options: trends,
		})
		if err != nil {
			return nil, err
		}

		field := card.Field{Label: label, Value: strings.TrimSpace(value)}
		if trendIdx > 0 && trendIdx < len(trends) {
			field.Trend = trends[trendIdx]
		}
		fields = append(fields, field)
	}
}

func (c *Composer) promptItems(ctx context.Context, trackDone bool) ([]card.Item, error) {
	var items []card.Item
	for {
		title, err := c.driver.Input(ctx, InputConfig{Message: "Item title", Help: "Empty finishes the list"})
		if err != nil {
			return nil, err
		}
		title = strings.TrimSpace(title)
		if title == "" {
			break
		}

		description, err := c.driver.Input(ctx, InputConfig{Message: "Description", Help: "Leave empty to skip"})
		if err != nil {
			return nil, err
		}
		value, err := c.driver.Input(ctx, InputConfig{Message: "Value", Help: "Leave empty to skip"})
		if err != nil {
			return nil, err
		}

		items = append(items, card.Item{
			Title:       title,
			Description: strings.TrimSpace(description),
			Value:       strings.TrimSpace(value),
		})
	}

	if trackDone && len(items) > 0 {
		options := make([]string, len(items))
		for i, item := range items {
			options[i] = item.Title
		}
		doneIdx, err := c.driver.MultiSelect(ctx, SelectConfig{
			Message: "Mark completed items",
			Options: options,
		})
		if err != nil {
			return nil, err
		}
		completed := make(map[int]struct{}, len(doneIdx))
		for _, idx := range doneIdx {
			completed[idx] = struct{}{}
		}
		for i := range items {
			_, done := completed[i]
			state := done
			items[i].Done = &state
		}
	}
	return items, nil
}

func (c *Composer) promptChart(ctx context.Context) (*card.ChartData, error) {
	kinds := []string{card.ChartBar, card.ChartLine, card.ChartArea, card.ChartPie, card.ChartDonut}
	kindIdx, err := c.driver.Select(ctx, SelectConfig{Message: "Chart kind", Options: kinds})
	if err != nil {
		return nil, err
	}
	if kindIdx < 0 || kindIdx >= len(kinds) {
		kindIdx = 0
	}

	labelsRaw, err := c.driver.Input(ctx, InputConfig{
		Message: "Labels",
		Help:    "Comma separated, one per data point",
	})
	if err != nil {
		return nil, err
	}

	chart := &card.ChartData{Kind: kinds[kindIdx], Labels: splitCSV(labelsRaw)}

	for {
		name, err := c.driver.Input(ctx, InputConfig{Message: "Series name", Help: "Empty finishes the list"})
		if err != nil {
			return nil, err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			if len(chart.Series) > 0 {
				break
			}
			_ = c.driver.Info(ctx, "A chart needs at least one series.")
			continue
		}

		values, err := c.promptFloats(ctx, "Values for "+name)
		if err != nil {
			return nil, err
		}
		chart.Series = append(chart.Series, card.ChartSeries{Name: name, Values: values})
	}

	unit, err := c.driver.Input(ctx, InputConfig{Message: "Unit", Help: "Leave empty to skip"})
	if err != nil {
		return nil, err
	}
	chart.Unit = strings.TrimSpace(unit)
	return chart, nil
}

func (c *Composer) promptTable(ctx context.Context) (*card.TableData, error) {
	columnsRaw, err := c.driver.Input(ctx, InputConfig{
		Message:   "Columns",
		Help:      "Comma separated header cells",
		Validator: required("columns"),
	})
	if err != nil {
		return nil, err
	}

	table := &card.TableData{Columns: splitCSV(columnsRaw)}
	for {
		rowRaw, err := c.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("Row %d", len(table.Rows)+1),
			Help:    "Comma separated cells, empty finishes the table",
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(rowRaw) == "" {
			break
		}
		table.Rows = append(table.Rows, splitCSV(rowRaw))
	}
	return table, nil
}

func (c *Composer) promptMap(ctx context.Context) (*card.MapData, error) {
	data := &card.MapData{}
	for {
		label, err := c.driver.Input(ctx, InputConfig{Message: "Marker label", Help: "Empty finishes the list"})
		if err != nil {
			return nil, err
		}
		label = strings.TrimSpace(label)
		if label == "" {
			break
		}

		lat, err := c.promptFloat(ctx, "Latitude for "+label)
		if err != nil {
			return nil, err
		}
		lng, err := c.promptFloat(ctx, "Longitude for "+label)
		if err != nil {
			return nil, err
		}
		data.Markers = append(data.Markers, card.Marker{Label: label, Lat: lat, Lng: lng})
	}
	return data, nil
}

func (c *Composer) promptMedia(ctx context.Context) ([]card.MediaItem, error) {
	var media []card.MediaItem
	for {
		url, err := c.driver.Input(ctx, InputConfig{Message: "Image URL", Help: "Empty finishes the list"})
		if err != nil {
			return nil, err
		}
		url = strings.TrimSpace(url)
		if url == "" {
			return media, nil
		}
		caption, err := c.driver.Input(ctx, InputConfig{Message: "Caption", Help: "Leave empty to skip"})
		if err != nil {
			return nil, err
		}
		media = append(media, card.MediaItem{URL: url, Caption: strings.TrimSpace(caption)})
	}
}

func (c *Composer) promptActions(ctx context.Context, doc *card.Card) error {
	add, err := c.driver.Confirm(ctx, ConfirmConfig{Message: "Add actions?", Default: false})
	if err != nil {
		return err
	}
	if !add {
		return nil
	}

	styles := []string{card.StylePrimary, card.StyleSecondary, card.StyleDanger, card.StylePlain}
	for {
		label, err := c.driver.Input(ctx, InputConfig{Message: "Action label", Help: "Empty finishes the list"})
		if err != nil {
			return err
		}
		label = strings.TrimSpace(label)
		if label == "" {
			return nil
		}

		href, err := c.driver.Input(ctx, InputConfig{Message: "Link URL", Help: "Leave empty for a plain button"})
		if err != nil {
			return err
		}

		styleIdx, err := c.driver.Select(ctx, SelectConfig{
			Message: "Style for " + label,
			Options: styles,
		})
		if err != nil {
			return err
		}
		if styleIdx < 0 || styleIdx >= len(styles) {
			styleIdx = 0
		}

		doc.Actions = append(doc.Actions, card.Action{
			ID:    slugify(label),
			Label: label,
			Href:  strings.TrimSpace(href),
			Style: styles[styleIdx],
		})
	}
}

// promptFloat asks until the answer parses. Parse failures inform and
// re-prompt instead of aborting the session.
func (c *Composer) promptFloat(ctx context.Context, message string) (float64, error) {
	for {
		raw, err := c.driver.Input(ctx, InputConfig{Message: message})
		if err != nil {
			return 0, err
		}
		value, parseErr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if parseErr != nil {
			_ = c.driver.Info(ctx, fmt.Sprintf("Not a number: %q", strings.TrimSpace(raw)))
			continue
		}
		return value, nil
	}
}

// promptFloats asks for a comma separated list until every entry parses.
func (c *Composer) promptFloats(ctx context.Context, message string) ([]float64, error) {
	for {
		raw, err := c.driver.Input(ctx, InputConfig{
			Message: message,
			Help:    "Comma separated numbers",
		})
		if err != nil {
			return nil, err
		}
		values, parseErr := parseFloats(raw)
		if parseErr != nil {
			_ = c.driver.Info(ctx, parseErr.Error())
			continue
		}
		if len(values) == 0 {
			_ = c.driver.Info(ctx, "Enter at least one number.")
			continue
		}
		return values, nil
	}
}

func (c *Composer) showPreview(ctx context.Context, doc *card.Card) {
	if c.preview == nil {
		return
	}
	resolved := sections.Normalize(doc, sections.WithRegistry(c.registry))
	m, err := model.Build(doc, resolved)
	if err != nil {
		_ = c.driver.Info(ctx, "Preview unavailable: "+err.Error())
		return
	}
	out, err := c.preview.Render(ctx, m, render.RenderOptions{})
	if err != nil {
		_ = c.driver.Info(ctx, "Preview unavailable: "+err.Error())
		return
	}
	_ = c.driver.Info(ctx, string(out))
}

func required(name string) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func slugify(raw string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseFloats(raw string) ([]float64, error) {
	parts := splitCSV(raw)
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse %q as a number", part)
		}
		out = append(out, value)
	}
	return out, nil
}
