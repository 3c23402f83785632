// Package text renders card models as readable plain text. The output is
// markdown flavoured (heading markers, list dashes) with tabwriter-aligned
// columns, suitable for terminals, logs, and compose previews.
package text

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/model"
	"github.com/goliatone/go-cardgen/pkg/render"
)

const defaultTabPadding = 2

type Option func(*Renderer)

// WithTabPadding sets the space padding between aligned columns.
func WithTabPadding(padding int) Option {
	return func(r *Renderer) {
		if padding > 0 {
			r.padding = padding
		}
	}
}

type Renderer struct {
	padding int
}

// New constructs the plain text renderer. It has no failure modes, so unlike
// its HTML sibling it returns the renderer directly.
func New(options ...Option) *Renderer {
	r := &Renderer{padding: defaultTabPadding}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

func (r *Renderer) Name() string {
	return "text"
}

func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render produces the text document. The model is treated as a value, same
// contract as the HTML renderer: the caller's card is never mutated.
func (r *Renderer) Render(_ context.Context, m model.CardModel, options render.RenderOptions) ([]byte, error) {
	m.Sections = slices.Clone(m.Sections)
	m.Actions = slices.Clone(m.Actions)
	render.LocalizeCardModel(&m, options)
	render.ApplySubset(&m, options.Subset)

	mapping := render.MapIssuePayload(m, options.Issues)

	var buf bytes.Buffer
	r.writeHeader(&buf, m, mapping.Card)

	for i, section := range m.Sections {
		buf.WriteString("\n")
		r.writeSection(&buf, section, mapping.SectionAnnotations(section, i))
	}

	if len(m.Actions) > 0 {
		buf.WriteString("\n")
		writeActions(&buf, m.Actions)
	}

	return buf.Bytes(), nil
}

func (r *Renderer) writeHeader(buf *bytes.Buffer, m model.CardModel, messages []string) {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = "Untitled card"
	}
	buf.WriteString("# " + title + "\n")

	if subtitle := strings.TrimSpace(m.Subtitle); subtitle != "" {
		buf.WriteString(subtitle + "\n")
	}

	var facts []string
	if m.Type != "" {
		facts = append(facts, m.Type)
	}
	if !m.UpdatedAt.IsZero() {
		facts = append(facts, "updated "+m.UpdatedAt.Format("Jan 2, 2006"))
	}
	if len(facts) > 0 {
		buf.WriteString(strings.Join(facts, " | ") + "\n")
	}

	writeIssueLines(buf, messages)
}

func (r *Renderer) writeSection(buf *bytes.Buffer, section model.SectionModel, annotations []string) {
	heading := strings.TrimSpace(section.Title)
	if heading == "" {
		heading = section.Component
	}
	buf.WriteString("## " + heading + "\n")
	writeIssueLines(buf, annotations)

	switch section.Kind {
	case card.PayloadFields:
		r.writeFields(buf, section.Fields)
	case card.PayloadItems:
		writeItems(buf, section.Items)
	case card.PayloadChart:
		r.writeChart(buf, section.Chart)
	case card.PayloadTable:
		r.writeTable(buf, section.Table)
	case card.PayloadMap:
		writeMap(buf, section.Map)
	case card.PayloadMedia:
		writeMedia(buf, section.Media)
	case card.PayloadText:
		writeText(buf, section.Text)
	default:
		writeMetadata(buf, section.Metadata)
	}
}

func (r *Renderer) newTabWriter(buf *bytes.Buffer) *tabwriter.Writer {
	return tabwriter.NewWriter(buf, 0, 4, r.padding, ' ', 0)
}

func (r *Renderer) writeFields(buf *bytes.Buffer, fields []card.Field) {
	if len(fields) == 0 {
		return
	}
	w := r.newTabWriter(buf)
	for _, field := range fields {
		value := field.Value
		if marker := trendMarker(field.Trend); marker != "" {
			value += " " + marker
		}
		fmt.Fprintf(w, "%s\t%s\n", field.Label, value)
	}
	w.Flush()
}

func writeItems(buf *bytes.Buffer, items []card.Item) {
	for _, item := range items {
		line := "- "
		if item.Done != nil {
			if *item.Done {
				line += "[x] "
			} else {
				line += "[ ] "
			}
		}
		line += item.Title
		if item.Description != "" {
			line += ": " + item.Description
		}
		if item.Value != "" {
			line += " (" + item.Value + ")"
		}
		if item.Link != "" {
			line += " <" + item.Link + ">"
		}
		buf.WriteString(line + "\n")
	}
}

// writeChart prints each series as an aligned row of values under the label
// row. No attempt at drawing; the numbers are the point.
func (r *Renderer) writeChart(buf *bytes.Buffer, chart *card.ChartData) {
	if chart == nil || len(chart.Series) == 0 {
		return
	}

	w := r.newTabWriter(buf)
	if len(chart.Labels) > 0 {
		fmt.Fprintf(w, "%s\t%s\n", "", strings.Join(chart.Labels, "\t"))
	}
	for _, series := range chart.Series {
		cells := make([]string, 0, len(series.Values))
		for _, value := range series.Values {
			cells = append(cells, formatNumber(value))
		}
		name := series.Name
		if name == "" {
			name = chart.Kind
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(cells, "\t"))
	}
	w.Flush()

	if chart.Unit != "" {
		buf.WriteString("unit: " + chart.Unit + "\n")
	}
}

func (r *Renderer) writeTable(buf *bytes.Buffer, table *card.TableData) {
	if table == nil {
		return
	}
	w := r.newTabWriter(buf)
	if len(table.Columns) > 0 {
		fmt.Fprintln(w, strings.Join(table.Columns, "\t"))
	}
	for _, row := range table.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if len(table.Footer) > 0 {
		fmt.Fprintln(w, strings.Join(table.Footer, "\t"))
	}
	w.Flush()
}

func writeMap(buf *bytes.Buffer, data *card.MapData) {
	if data == nil {
		return
	}
	if data.Center != nil {
		center := formatNumber(data.Center.Lat) + ", " + formatNumber(data.Center.Lng)
		if data.Zoom > 0 {
			center += " (zoom " + strconv.Itoa(data.Zoom) + ")"
		}
		buf.WriteString("center: " + center + "\n")
	}
	for _, marker := range data.Markers {
		label := marker.Label
		if label == "" {
			label = "marker"
		}
		buf.WriteString("- " + label + " (" + formatNumber(marker.Lat) + ", " + formatNumber(marker.Lng) + ")\n")
	}
}

func writeMedia(buf *bytes.Buffer, media []card.MediaItem) {
	for _, item := range media {
		caption := item.Caption
		if caption == "" {
			caption = item.Alt
		}
		if caption == "" {
			caption = "media"
		}
		buf.WriteString("- " + caption + " <" + item.URL + ">\n")
	}
}

func writeText(buf *bytes.Buffer, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	buf.WriteString(trimmed + "\n")
}

func writeMetadata(buf *bytes.Buffer, metadata map[string]string) {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		if key == "component" || key == "titleKey" {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		buf.WriteString("(nothing to show)\n")
		return
	}
	sort.Strings(keys)
	for _, key := range keys {
		buf.WriteString(key + ": " + metadata[key] + "\n")
	}
}

func writeActions(buf *bytes.Buffer, actions []card.Action) {
	buf.WriteString("Actions:\n")
	for _, action := range actions {
		line := "- " + action.Label
		if action.Href != "" {
			line += " -> " + action.Href
		}
		buf.WriteString(line + "\n")
	}
}

func writeIssueLines(buf *bytes.Buffer, messages []string) {
	for _, message := range messages {
		buf.WriteString("! " + message + "\n")
	}
}

func trendMarker(trend string) string {
	switch trend {
	case card.TrendUp:
		return "▲"
	case card.TrendDown:
		return "▼"
	case card.TrendFlat:
		return "→"
	}
	return ""
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
