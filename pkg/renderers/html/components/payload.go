package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/model"
)

// renderPayload dispatches on whatever payload the section actually carries.
// Specialised components call this when their preferred payload is absent so
// a mis-filled section still renders something useful.
func renderPayload(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	switch section.Kind {
	case card.PayloadFields:
		writeFields(buf, section)
	case card.PayloadItems:
		writeItems(buf, section)
	case card.PayloadChart:
		return writeChart(buf, section, data)
	case card.PayloadTable:
		writeTable(buf, section)
	case card.PayloadMap:
		writeMap(buf, section)
	case card.PayloadMedia:
		writeMedia(buf, section)
	case card.PayloadText:
		writeText(buf, section)
	default:
		return writeEmpty(buf, section, data)
	}
	return nil
}

func writeFields(buf *bytes.Buffer, section model.SectionModel) {
	buf.WriteString(`<dl class="card-fields">`)
	for _, field := range section.Fields {
		classes := "card-field"
		if field.Emphasis {
			classes += " card-field-emphasis"
		}
		buf.WriteString(`<div class="` + classes + `">`)

		buf.WriteString(`<dt class="card-field-label">`)
		if icon := iconMarkup(field.Icon); icon != "" {
			buf.WriteString(icon)
		}
		buf.WriteString(html.EscapeString(field.Label))
		buf.WriteString(`</dt>`)

		buf.WriteString(`<dd class="card-field-value"`)
		if color := strings.TrimSpace(field.Color); color != "" {
			buf.WriteString(` style="color: ` + html.EscapeString(color) + `;"`)
		}
		buf.WriteString(`>`)
		buf.WriteString(html.EscapeString(field.Value))
		buf.WriteString(trendMarkup(field.Trend))
		buf.WriteString(`</dd>`)

		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</dl>`)
}

func writeItems(buf *bytes.Buffer, section model.SectionModel) {
	buf.WriteString(`<ul class="card-items">`)
	for _, item := range section.Items {
		buf.WriteString(`<li class="card-item">`)
		if icon := iconMarkup(item.Icon); icon != "" {
			buf.WriteString(`<span class="card-item-icon">` + icon + `</span>`)
		}
		buf.WriteString(`<div class="card-item-body">`)
		buf.WriteString(`<span class="card-item-title">`)
		if link := SafeURL(item.Link); link != "" {
			buf.WriteString(`<a href="` + html.EscapeString(link) + `">` + html.EscapeString(item.Title) + `</a>`)
		} else {
			buf.WriteString(html.EscapeString(item.Title))
		}
		buf.WriteString(`</span>`)
		if desc := strings.TrimSpace(item.Description); desc != "" {
			buf.WriteString(`<span class="card-item-desc">` + html.EscapeString(desc) + `</span>`)
		}
		buf.WriteString(`</div>`)
		if value := strings.TrimSpace(item.Value); value != "" {
			buf.WriteString(`<span class="card-item-value">` + html.EscapeString(value) + `</span>`)
		}
		if item.Done != nil {
			if *item.Done {
				buf.WriteString(`<span class="card-item-done" aria-label="done">&#10003;</span>`)
			} else {
				buf.WriteString(`<span class="card-item-pending" aria-label="pending">&#9675;</span>`)
			}
		}
		buf.WriteString(`</li>`)
	}
	buf.WriteString(`</ul>`)
}

func writeChart(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	chart := section.Chart
	if chart == nil || len(chart.Series) == 0 {
		return writeEmpty(buf, section, data)
	}

	switch chart.Kind {
	case card.ChartLine, card.ChartArea:
		writeLineChart(buf, *chart, data, chart.Kind == card.ChartArea)
	case card.ChartPie, card.ChartDonut:
		writePieChart(buf, *chart, data)
	default:
		writeBarChart(buf, *chart, data)
	}
	return nil
}

func writeBarChart(buf *bytes.Buffer, chart card.ChartData, data ComponentData) {
	max := chart.MaxValue()
	points := chart.SeriesLen()

	buf.WriteString(`<figure class="card-chart card-chart-bar">`)
	buf.WriteString(`<div class="card-bars" role="img" aria-label="` + html.EscapeString(chartAriaLabel(chart)) + `">`)
	for i := 0; i < points; i++ {
		buf.WriteString(`<div class="card-bar-group">`)
		buf.WriteString(`<div class="card-bar-stack">`)
		for s, series := range chart.Series {
			value := seriesValue(series, i)
			height := 0.0
			if max > 0 && value > 0 {
				height = value / max * 100
			}
			buf.WriteString(`<div class="card-bar" style="height: ` + formatPercent(height) + `%; background: ` + html.EscapeString(seriesColor(data, series, s)) + `;" title="`)
			buf.WriteString(html.EscapeString(seriesPointTitle(chart, series, i, value)))
			buf.WriteString(`"></div>`)
		}
		buf.WriteString(`</div>`)
		if label := chartLabel(chart, i); label != "" {
			buf.WriteString(`<span class="card-bar-label">` + html.EscapeString(label) + `</span>`)
		}
		buf.WriteString(`</div>`)
	}
	buf.WriteString(`</div>`)
	writeChartLegend(buf, chart, data)
	writeChartCaption(buf, chart)
	buf.WriteString(`</figure>`)
}

func writeLineChart(buf *bytes.Buffer, chart card.ChartData, data ComponentData, filled bool) {
	max := chart.MaxValue()
	points := chart.SeriesLen()

	kind := "card-chart-line"
	if filled {
		kind = "card-chart-area"
	}
	buf.WriteString(`<figure class="card-chart ` + kind + `">`)
	buf.WriteString(`<svg class="card-plot" viewBox="0 0 100 40" preserveAspectRatio="none" role="img" aria-label="` + html.EscapeString(chartAriaLabel(chart)) + `">`)
	for s, series := range chart.Series {
		coords := plotCoordinates(series, points, max)
		if len(coords) == 0 {
			continue
		}
		color := html.EscapeString(seriesColor(data, series, s))
		if filled {
			area := coords + " 100,40 0,40"
			buf.WriteString(`<polygon points="` + area + `" fill="` + color + `" fill-opacity="0.15" stroke="none"></polygon>`)
		}
		buf.WriteString(`<polyline points="` + coords + `" fill="none" stroke="` + color + `" stroke-width="1.5" vector-effect="non-scaling-stroke"></polyline>`)
	}
	buf.WriteString(`</svg>`)
	if len(chart.Labels) > 0 {
		buf.WriteString(`<div class="card-plot-labels">`)
		for _, label := range chart.Labels {
			buf.WriteString(`<span>` + html.EscapeString(label) + `</span>`)
		}
		buf.WriteString(`</div>`)
	}
	writeChartLegend(buf, chart, data)
	writeChartCaption(buf, chart)
	buf.WriteString(`</figure>`)
}

// writePieChart renders a legend with shares plus a value table. Pies without
// slices to draw still communicate their numbers.
func writePieChart(buf *bytes.Buffer, chart card.ChartData, data ComponentData) {
	series := chart.Series[0]
	total := 0.0
	for _, value := range series.Values {
		if value > 0 {
			total += value
		}
	}

	buf.WriteString(`<figure class="card-chart card-chart-pie">`)
	buf.WriteString(`<ul class="card-legend card-legend-stacked">`)
	for i, value := range series.Values {
		label := chartLabel(chart, i)
		if label == "" {
			label = "Slice " + strconv.Itoa(i+1)
		}
		share := 0.0
		if total > 0 && value > 0 {
			share = value / total * 100
		}
		buf.WriteString(`<li><span class="card-legend-chip" style="background: ` + html.EscapeString(paletteCycleColor(data, i)) + `;"></span>`)
		buf.WriteString(html.EscapeString(label))
		buf.WriteString(`<span class="card-legend-value">` + html.EscapeString(formatValue(value, chart.Unit)) + ` (` + formatPercent(share) + `%)</span></li>`)
	}
	buf.WriteString(`</ul>`)

	buf.WriteString(`<table class="card-table card-chart-values"><tbody>`)
	for i, value := range series.Values {
		label := chartLabel(chart, i)
		if label == "" {
			label = "Slice " + strconv.Itoa(i+1)
		}
		buf.WriteString(`<tr><th scope="row">` + html.EscapeString(label) + `</th><td>` + html.EscapeString(formatValue(value, chart.Unit)) + `</td></tr>`)
	}
	buf.WriteString(`</tbody></table>`)
	writeChartCaption(buf, chart)
	buf.WriteString(`</figure>`)
}

func writeChartLegend(buf *bytes.Buffer, chart card.ChartData, data ComponentData) {
	if len(chart.Series) < 2 {
		return
	}
	buf.WriteString(`<ul class="card-legend">`)
	for i, series := range chart.Series {
		buf.WriteString(`<li><span class="card-legend-chip" style="background: ` + html.EscapeString(seriesColor(data, series, i)) + `;"></span>`)
		buf.WriteString(html.EscapeString(series.Name))
		buf.WriteString(`</li>`)
	}
	buf.WriteString(`</ul>`)
}

func writeChartCaption(buf *bytes.Buffer, chart card.ChartData) {
	if unit := strings.TrimSpace(chart.Unit); unit != "" {
		buf.WriteString(`<figcaption class="card-chart-unit">` + html.EscapeString(unit) + `</figcaption>`)
	}
}

func writeTable(buf *bytes.Buffer, section model.SectionModel) {
	table := section.Table
	buf.WriteString(`<div class="card-table-wrap"><table class="card-table">`)
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
		for _, cell := range row {
			buf.WriteString(`<td>` + html.EscapeString(cell) + `</td>`)
		}
		buf.WriteString(`</tr>`)
	}
	buf.WriteString(`</tbody>`)
	if len(table.Footer) > 0 {
		buf.WriteString(`<tfoot><tr>`)
		for _, cell := range table.Footer {
			buf.WriteString(`<td>` + html.EscapeString(cell) + `</td>`)
		}
		buf.WriteString(`</tr></tfoot>`)
	}
	buf.WriteString(`</table></div>`)
}

// writeMap draws a coordinate grid placeholder with dots positioned inside
// the markers' bounding box, followed by the marker list with raw
// coordinates. No tiles, no JavaScript.
func writeMap(buf *bytes.Buffer, section model.SectionModel) {
	markers := section.Map.Markers

	buf.WriteString(`<div class="card-map">`)
	buf.WriteString(`<div class="card-map-canvas" role="img" aria-label="` + html.EscapeString(strconv.Itoa(len(markers))+" mapped locations") + `">`)
	for _, marker := range markers {
		left, top := markerPosition(marker, markers)
		buf.WriteString(`<span class="card-map-dot" style="left: ` + formatPercent(left) + `%; top: ` + formatPercent(top) + `%;`)
		if color := strings.TrimSpace(marker.Color); color != "" {
			buf.WriteString(` background: ` + html.EscapeString(color) + `;`)
		}
		buf.WriteString(`" title="` + html.EscapeString(marker.Label) + `"></span>`)
	}
	buf.WriteString(`</div>`)

	buf.WriteString(`<ul class="card-markers">`)
	for _, marker := range markers {
		buf.WriteString(`<li><span class="card-marker-dot"`)
		if color := strings.TrimSpace(marker.Color); color != "" {
			buf.WriteString(` style="background: ` + html.EscapeString(color) + `;"`)
		}
		buf.WriteString(`></span>`)
		buf.WriteString(html.EscapeString(marker.Label))
		buf.WriteString(`<span class="card-marker-coords">` + formatCoordinate(marker.Lat) + `, ` + formatCoordinate(marker.Lng) + `</span>`)
		buf.WriteString(`</li>`)
	}
	buf.WriteString(`</ul>`)
	buf.WriteString(`</div>`)
}

func writeMedia(buf *bytes.Buffer, section model.SectionModel) {
	buf.WriteString(`<div class="card-gallery">`)
	for _, media := range section.Media {
		src := SafeURL(media.URL)
		if src == "" {
			continue
		}
		alt := strings.TrimSpace(media.Alt)
		if alt == "" {
			alt = strings.TrimSpace(media.Caption)
		}
		buf.WriteString(`<figure class="card-media">`)
		buf.WriteString(`<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(alt) + `" loading="lazy">`)
		if caption := strings.TrimSpace(media.Caption); caption != "" {
			buf.WriteString(`<figcaption>` + html.EscapeString(caption) + `</figcaption>`)
		}
		buf.WriteString(`</figure>`)
	}
	buf.WriteString(`</div>`)
}

func writeText(buf *bytes.Buffer, section model.SectionModel) {
	writeParagraphs(buf, section.Text, "card-text")
}

func writeParagraphs(buf *bytes.Buffer, text, class string) {
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		buf.WriteString(`<p class="` + class + `">`)
		lines := strings.Split(paragraph, "\n")
		for i, line := range lines {
			if i > 0 {
				buf.WriteString(`<br>`)
			}
			buf.WriteString(html.EscapeString(strings.TrimSpace(line)))
		}
		buf.WriteString(`</p>`)
	}
}

// writeEmpty is the last resort for sections without a renderable payload.
// Metadata becomes a definition list, or an indented JSON dump when pretty
// printing is on.
func writeEmpty(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error {
	meta := displayMetadata(section.Metadata)
	if len(meta) == 0 {
		buf.WriteString(`<p class="card-empty">Nothing to show yet.</p>`)
		return nil
	}

	if data.PrettyJSON {
		encoded, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("components: encode section %q metadata: %w", section.ID, err)
		}
		buf.WriteString(`<pre class="card-json">` + html.EscapeString(string(encoded)) + `</pre>`)
		return nil
	}

	keys := make([]string, 0, len(meta))
	for key := range meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buf.WriteString(`<dl class="card-meta">`)
	for _, key := range keys {
		buf.WriteString(`<dt>` + html.EscapeString(key) + `</dt>`)
		buf.WriteString(`<dd>` + html.EscapeString(meta[key]) + `</dd>`)
	}
	buf.WriteString(`</dl>`)
	return nil
}

// displayMetadata strips keys consumed by the pipeline itself so dumps only
// show document-authored values.
func displayMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for key, value := range metadata {
		switch key {
		case "component", "titleKey":
			continue
		}
		out[key] = value
	}
	return out
}

// SafeURL vets href and src values: http(s), mailto, tel, and relative paths
// pass through, everything else (javascript:, data:, vbscript:) is dropped.
func SafeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lowered := strings.ToLower(trimmed)
	for _, scheme := range []string{"http://", "https://", "mailto:", "tel:"} {
		if strings.HasPrefix(lowered, scheme) {
			return trimmed
		}
	}
	if strings.Contains(lowered, ":") {
		return ""
	}
	return trimmed
}

func iconMarkup(raw string) string {
	sanitized := card.SanitizeIcon(raw)
	if !strings.HasPrefix(sanitized, "<svg") {
		return ""
	}
	return sanitized
}

func trendMarkup(trend string) string {
	switch trend {
	case card.TrendUp:
		return ` <span class="card-trend card-trend-up" aria-label="trending up">&#9650;</span>`
	case card.TrendDown:
		return ` <span class="card-trend card-trend-down" aria-label="trending down">&#9660;</span>`
	case card.TrendFlat:
		return ` <span class="card-trend card-trend-flat" aria-label="flat">&#8594;</span>`
	}
	return ""
}

func chartLabel(chart card.ChartData, index int) string {
	if index < len(chart.Labels) {
		return chart.Labels[index]
	}
	return ""
}

func chartAriaLabel(chart card.ChartData) string {
	kind := chart.Kind
	if kind == "" {
		kind = card.ChartBar
	}
	return kind + " chart with " + strconv.Itoa(len(chart.Series)) + " series"
}

func seriesValue(series card.ChartSeries, index int) float64 {
	if index < len(series.Values) {
		return series.Values[index]
	}
	return 0
}

func seriesPointTitle(chart card.ChartData, series card.ChartSeries, index int, value float64) string {
	label := chartLabel(chart, index)
	name := series.Name
	parts := make([]string, 0, 3)
	if name != "" {
		parts = append(parts, name)
	}
	if label != "" {
		parts = append(parts, label)
	}
	parts = append(parts, formatValue(value, chart.Unit))
	return strings.Join(parts, " ")
}

// plotCoordinates maps a series onto the 100x40 viewBox with 2 units of
// vertical padding. Returns "" when there is nothing to plot.
func plotCoordinates(series card.ChartSeries, points int, max float64) string {
	if points == 0 || len(series.Values) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < points && i < len(series.Values); i++ {
		x := 0.0
		if points > 1 {
			x = float64(i) / float64(points-1) * 100
		}
		y := 38.0
		if max > 0 && series.Values[i] > 0 {
			y = 38 - series.Values[i]/max*36
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatPercent(x))
		sb.WriteByte(',')
		sb.WriteString(formatPercent(y))
	}
	return sb.String()
}

// markerPosition places a marker within its siblings' bounding box, padded
// so edge markers stay visible. A lone marker sits in the middle.
func markerPosition(marker card.Marker, markers []card.Marker) (left, top float64) {
	minLat, maxLat := marker.Lat, marker.Lat
	minLng, maxLng := marker.Lng, marker.Lng
	for _, m := range markers {
		if m.Lat < minLat {
			minLat = m.Lat
		}
		if m.Lat > maxLat {
			maxLat = m.Lat
		}
		if m.Lng < minLng {
			minLng = m.Lng
		}
		if m.Lng > maxLng {
			maxLng = m.Lng
		}
	}

	left, top = 50, 50
	if maxLng > minLng {
		left = 10 + (marker.Lng-minLng)/(maxLng-minLng)*80
	}
	if maxLat > minLat {
		// Latitude grows northward, screen coordinates grow downward.
		top = 10 + (maxLat-marker.Lat)/(maxLat-minLat)*80
	}
	return left, top
}

var paletteCycle = []string{
	"color.accent",
	"palette.violet",
	"palette.emerald",
	"palette.amber",
	"palette.rose",
	"palette.indigo",
	"palette.teal",
	"palette.orange",
}

var paletteCycleFallbacks = []string{
	"#0ea5e9", "#8b5cf6", "#10b981", "#f59e0b",
	"#f43f5e", "#6366f1", "#14b8a6", "#f97316",
}

func seriesColor(data ComponentData, series card.ChartSeries, index int) string {
	if color := strings.TrimSpace(series.Color); color != "" {
		return color
	}
	return paletteCycleColor(data, index)
}

func paletteCycleColor(data ComponentData, index int) string {
	slot := index % len(paletteCycle)
	return data.Token(paletteCycle[slot], paletteCycleFallbacks[slot])
}

func formatPercent(v float64) string {
	if v < 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatValue(v float64, unit string) string {
	formatted := strconv.FormatFloat(v, 'f', -1, 64)
	if unit = strings.TrimSpace(unit); unit != "" {
		return formatted + " " + unit
	}
	return formatted
}
