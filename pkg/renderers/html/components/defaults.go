package components

import (
	"bytes"
	"html"
	"strconv"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/model"
)

// Fallback is the component every unknown section type renders through,
// mirroring the alias fallback in the sections registry.
const Fallback = "info"

// NewDefaultRegistry constructs a registry pre-populated with a component
// for every canonical section type. Each component prefers the payload its
// type implies and falls back to generic payload rendering when a document
// pairs a type with a different payload.
func NewDefaultRegistry() *Registry {
	registry := New()

	registry.MustRegister("overview", Descriptor{Renderer: overviewRenderer})
	registry.MustRegister("chart", Descriptor{Renderer: chartRenderer})
	registry.MustRegister("table", Descriptor{Renderer: tableRenderer})
	registry.MustRegister("map", Descriptor{Renderer: mapRenderer})
	registry.MustRegister("gallery", Descriptor{Renderer: galleryRenderer})
	registry.MustRegister("timeline", Descriptor{Renderer: timelineRenderer})
	registry.MustRegister("quote", Descriptor{Renderer: quoteRenderer})
	registry.MustRegister("faq", Descriptor{Renderer: faqRenderer})
	registry.MustRegister("pricing", Descriptor{Renderer: pricingRenderer})
	registry.MustRegister("progress", Descriptor{Renderer: progressRenderer})
	registry.MustRegister("comparison", Descriptor{Renderer: comparisonRenderer})
	registry.MustRegister(Fallback, Descriptor{Renderer: infoRenderer})

	for _, name := range []string{"analytics", "financials", "market"} {
		registry.MustRegister(name, Descriptor{Renderer: fieldsRenderer})
	}
	for _, name := range []string{
		"products", "solutions", "network", "team", "contact",
		"list", "news", "events", "social",
	} {
		registry.MustRegister(name, Descriptor{Renderer: itemsRenderer})
	}

	return registry
}

func overviewRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadText {
		return renderPayload(buf, section, data)
	}
	writeParagraphs(buf, section.Text, "card-text card-lede")
	return nil
}

func fieldsRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadFields {
		return renderPayload(buf, section, data)
	}
	writeFields(buf, section)
	return nil
}

func itemsRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadItems {
		return renderPayload(buf, section, data)
	}
	writeItems(buf, section)
	return nil
}

func chartRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadChart {
		return renderPayload(buf, section, data)
	}
	return writeChart(buf, section, data)
}

func tableRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadTable {
		return renderPayload(buf, section, data)
	}
	writeTable(buf, section)
	return nil
}

func mapRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadMap {
		return renderPayload(buf, section, data)
	}
	writeMap(buf, section)
	return nil
}

func galleryRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadMedia {
		return renderPayload(buf, section, data)
	}
	writeMedia(buf, section)
	return nil
}

// timelineRenderer lays items out as an ordered milestone list. An item's
// Value is the date slot.
func timelineRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadItems {
		return renderPayload(buf, section, data)
	}

	buf.WriteString(`<ol class="card-timeline">`)
	for _, item := range section.Items {
		buf.WriteString(`<li class="card-timeline-entry">`)
		buf.WriteString(`<span class="card-timeline-marker"></span>`)
		buf.WriteString(`<div class="card-timeline-body">`)
		if value := strings.TrimSpace(item.Value); value != "" {
			buf.WriteString(`<time class="card-timeline-date">` + html.EscapeString(value) + `</time>`)
		}
		buf.WriteString(`<span class="card-item-title">` + html.EscapeString(item.Title) + `</span>`)
		if desc := strings.TrimSpace(item.Description); desc != "" {
			buf.WriteString(`<span class="card-item-desc">` + html.EscapeString(desc) + `</span>`)
		}
		buf.WriteString(`</div></li>`)
	}
	buf.WriteString(`</ol>`)
	return nil
}

// quoteRenderer prefers the text payload with an optional
// metadata["attribution"] footer; an items payload quotes the first item
// with its description as the source.
func quoteRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	quote, attribution := "", ""
	switch {
	case section.Kind == card.PayloadText:
		quote = section.Text
		attribution = section.Metadata["attribution"]
	case section.Kind == card.PayloadItems && len(section.Items) > 0:
		quote = section.Items[0].Title
		attribution = section.Items[0].Description
	default:
		return renderPayload(buf, section, data)
	}

	buf.WriteString(`<blockquote class="card-quote">`)
	writeParagraphs(buf, quote, "card-text")
	if attribution = strings.TrimSpace(attribution); attribution != "" {
		buf.WriteString(`<footer class="card-quote-source">` + html.EscapeString(attribution) + `</footer>`)
	}
	buf.WriteString(`</blockquote>`)
	return nil
}

// faqRenderer renders question/answer items as native disclosure widgets,
// no JavaScript required.
func faqRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadItems {
		return renderPayload(buf, section, data)
	}

	buf.WriteString(`<div class="card-faq">`)
	for _, item := range section.Items {
		buf.WriteString(`<details class="card-faq-entry">`)
		buf.WriteString(`<summary>` + html.EscapeString(item.Title) + `</summary>`)
		writeParagraphs(buf, item.Description, "card-text")
		buf.WriteString(`</details>`)
	}
	buf.WriteString(`</div>`)
	return nil
}

// pricingRenderer renders items as plan tiers: Title is the plan name,
// Value the price, Description a newline- or semicolon-separated feature
// list.
func pricingRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	if section.Kind != card.PayloadItems {
		return renderPayload(buf, section, data)
	}

	buf.WriteString(`<div class="card-tiers">`)
	for _, item := range section.Items {
		highlighted := item.Done != nil && *item.Done
		class := "card-tier"
		if highlighted {
			class += " card-tier-featured"
		}
		buf.WriteString(`<div class="` + class + `">`)
		buf.WriteString(`<span class="card-tier-name">` + html.EscapeString(item.Title) + `</span>`)
		if price := strings.TrimSpace(item.Value); price != "" {
			buf.WriteString(`<span class="card-tier-price">` + html.EscapeString(price) + `</span>`)
		}
		features := splitFeatures(item.Description)
		if len(features) > 0 {
			buf.WriteString(`<ul class="card-tier-features">`)
			for _, feature := range features {
				buf.WriteString(`<li>` + html.EscapeString(feature) + `</li>`)
			}
			buf.WriteString(`</ul>`)
		}
		if link := SafeURL(item.Link); link != "" {
			buf.WriteString(`<a class="card-tier-link" href="` + html.EscapeString(link) + `">Choose</a>`)
		}
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</div>`)
	return nil
}

// progressRenderer draws completion bars. Field values parse as "72%",
// "72", or "18/25"; items fall back to a checklist with a completion
// summary bar.
func progressRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	switch section.Kind {
	case card.PayloadFields:
		buf.WriteString(`<div class="card-progress">`)
		for _, field := range section.Fields {
			percent, ok := parseProgress(field.Value)
			if !ok {
				writeProgressRow(buf, field.Label, html.EscapeString(field.Value), -1)
				continue
			}
			writeProgressRow(buf, field.Label, formatPercent(percent)+"%", percent)
		}
		buf.WriteString(`</div>`)
		return nil
	case card.PayloadItems:
		done := 0
		for _, item := range section.Items {
			if item.Done != nil && *item.Done {
				done++
			}
		}
		percent := 0.0
		if len(section.Items) > 0 {
			percent = float64(done) / float64(len(section.Items)) * 100
		}
		buf.WriteString(`<div class="card-progress">`)
		writeProgressRow(buf, strconv.Itoa(done)+" of "+strconv.Itoa(len(section.Items))+" complete", formatPercent(percent)+"%", percent)
		buf.WriteString(`</div>`)
		writeItems(buf, section)
		return nil
	}
	return renderPayload(buf, section, data)
}

func writeProgressRow(buf *bytes.Buffer, label, display string, percent float64) {
	buf.WriteString(`<div class="card-progress-row">`)
	buf.WriteString(`<span class="card-progress-label">` + html.EscapeString(label) + `</span>`)
	buf.WriteString(`<span class="card-progress-value">` + display + `</span>`)
	if percent >= 0 {
		buf.WriteString(`<div class="card-progress-track"><div class="card-progress-fill" style="width: ` + formatPercent(percent) + `%;"></div></div>`)
	}
	buf.WriteString(`</div>`)
}

// comparisonRenderer turns a table payload into a side-by-side matrix with
// the first column as row headers. A fields payload becomes a facing grid.
func comparisonRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	switch section.Kind {
	case card.PayloadTable:
		table := section.Table
		buf.WriteString(`<div class="card-table-wrap"><table class="card-table card-compare">`)
		if len(table.Columns) > 0 {
			buf.WriteString(`<thead><tr>`)
			for _, column := range table.Columns {
				buf.WriteString(`<th scope="col">` + html.EscapeString(column) + `</th>`)
			}
			buf.WriteString(`</tr></thead>`)
		}
		buf.WriteString(`<tbody>`)
		for _, row := range table.Rows {
			buf.WriteString(`<tr>`)
			for i, cell := range row {
				if i == 0 {
					buf.WriteString(`<th scope="row">` + html.EscapeString(cell) + `</th>`)
					continue
				}
				buf.WriteString(`<td>` + html.EscapeString(cell) + `</td>`)
			}
			buf.WriteString(`</tr>`)
		}
		buf.WriteString(`</tbody></table></div>`)
		return nil
	case card.PayloadFields:
		buf.WriteString(`<div class="card-compare-grid">`)
		for _, field := range section.Fields {
			buf.WriteString(`<div class="card-compare-cell">`)
			buf.WriteString(`<span class="card-field-label">` + html.EscapeString(field.Label) + `</span>`)
			buf.WriteString(`<span class="card-field-value">` + html.EscapeString(field.Value) + trendMarkup(field.Trend) + `</span>`)
			buf.WriteString(`</div>`)
		}
		buf.WriteString(`</div>`)
		return nil
	}
	return renderPayload(buf, section, data)
}

// infoRenderer is the generic catch-all: render whatever payload exists.
func infoRenderer(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	return renderPayload(buf, section, data)
}

func splitFeatures(description string) []string {
	separator := "\n"
	if !strings.Contains(description, "\n") {
		separator = ";"
	}
	parts := strings.Split(description, separator)
	features := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			features = append(features, part)
		}
	}
	return features
}

// parseProgress accepts "72%", "72", and "18/25" style values and returns
// the completion percentage clamped to 0..100.
func parseProgress(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if trimmed == "" {
		return 0, false
	}

	if numerator, denominator, ok := strings.Cut(trimmed, "/"); ok {
		num, err1 := strconv.ParseFloat(strings.TrimSpace(numerator), 64)
		den, err2 := strconv.ParseFloat(strings.TrimSpace(denominator), 64)
		if err1 != nil || err2 != nil || den <= 0 {
			return 0, false
		}
		return clampPercent(num / den * 100), true
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return clampPercent(value), true
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
