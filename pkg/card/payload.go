package card

import "fmt"

// PayloadKind names the payload a section actually carries. When a document
// sets several payloads on one section, resolution order is fields, items,
// chart, table, map, media, text.
type PayloadKind string

const (
	PayloadFields PayloadKind = "fields"
	PayloadItems  PayloadKind = "items"
	PayloadChart  PayloadKind = "chart"
	PayloadTable  PayloadKind = "table"
	PayloadMap    PayloadKind = "map"
	PayloadMedia  PayloadKind = "media"
	PayloadText   PayloadKind = "text"
	PayloadEmpty  PayloadKind = "empty"
)

// PayloadKind resolves which payload the section carries.
func (s *Section) PayloadKind() PayloadKind {
	switch {
	case len(s.Fields) > 0:
		return PayloadFields
	case len(s.Items) > 0:
		return PayloadItems
	case s.HasChart():
		return PayloadChart
	case s.HasTable():
		return PayloadTable
	case s.HasMap():
		return PayloadMap
	case len(s.Media) > 0:
		return PayloadMedia
	case s.Text != "":
		return PayloadText
	}
	return PayloadEmpty
}

// HasChart reports whether the section carries renderable chart data.
func (s *Section) HasChart() bool {
	return s.Chart != nil && len(s.Chart.Series) > 0
}

// HasTable reports whether the section carries renderable table data.
func (s *Section) HasTable() bool {
	return s.Table != nil && len(s.Table.Rows) > 0
}

// HasMap reports whether the section carries at least one marker.
func (s *Section) HasMap() bool {
	return s.Map != nil && len(s.Map.Markers) > 0
}

// Field is a labelled value, the unit of key-value sections. Trend marks the
// direction indicator rendered next to the value.
type Field struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Icon     string `json:"icon,omitempty"`
	Color    string `json:"color,omitempty"`
	Trend    string `json:"trend,omitempty"`
	Emphasis bool   `json:"emphasis,omitempty"`
}

// Trend values understood by the renderers.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Item is one entry of a list section.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Value       string `json:"value,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Link        string `json:"link,omitempty"`
	Done        *bool  `json:"done,omitempty"`
}

func (i Item) clone() Item {
	clone := i
	if i.Done != nil {
		done := *i.Done
		clone.Done = &done
	}
	return clone
}

// ChartData holds one or more series plotted against shared labels.
type ChartData struct {
	Kind   string        `json:"kind"`
	Labels []string      `json:"labels,omitempty"`
	Series []ChartSeries `json:"series"`
	Unit   string        `json:"unit,omitempty"`
}

// Chart kinds the built-in components know how to draw.
const (
	ChartBar   = "bar"
	ChartLine  = "line"
	ChartPie   = "pie"
	ChartDonut = "donut"
	ChartArea  = "area"
)

// ChartSeries is a named run of values sharing the chart's labels.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Color  string    `json:"color,omitempty"`
}

// SeriesLen returns the longest series length, the effective number of data
// points the chart spans.
func (c ChartData) SeriesLen() int {
	max := 0
	for _, s := range c.Series {
		if len(s.Values) > max {
			max = len(s.Values)
		}
	}
	return max
}

// MaxValue returns the largest value across all series, useful for scaling.
// Zero when the chart is empty or all values are negative.
func (c ChartData) MaxValue() float64 {
	max := 0.0
	for _, s := range c.Series {
		for _, v := range s.Values {
			if v > max {
				max = v
			}
		}
	}
	return max
}

func (c *ChartData) validate() error {
	switch c.Kind {
	case "", ChartBar, ChartLine, ChartPie, ChartDonut, ChartArea:
	default:
		return fmt.Errorf("unknown chart kind %q", c.Kind)
	}
	for i, s := range c.Series {
		if s.Name == "" && len(c.Series) > 1 {
			return fmt.Errorf("chart series %d: name is required when several series are present", i)
		}
	}
	return nil
}

// Clone returns a deep copy of the chart payload.
func (c ChartData) Clone() ChartData {
	clone := c
	if len(c.Labels) > 0 {
		clone.Labels = append([]string(nil), c.Labels...)
	}
	if len(c.Series) > 0 {
		clone.Series = make([]ChartSeries, len(c.Series))
		for i, s := range c.Series {
			clone.Series[i] = s
			clone.Series[i].Values = append([]float64(nil), s.Values...)
		}
	}
	return clone
}

// TableData holds column headers and string rows.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Footer  []string   `json:"footer,omitempty"`
}

func (t *TableData) validate() error {
	if len(t.Columns) == 0 && len(t.Rows) > 0 {
		return fmt.Errorf("table rows without columns")
	}
	return nil
}

// Clone returns a deep copy of the table payload.
func (t TableData) Clone() TableData {
	clone := t
	if len(t.Columns) > 0 {
		clone.Columns = append([]string(nil), t.Columns...)
	}
	if len(t.Rows) > 0 {
		clone.Rows = make([][]string, len(t.Rows))
		for i, row := range t.Rows {
			clone.Rows[i] = append([]string(nil), row...)
		}
	}
	if len(t.Footer) > 0 {
		clone.Footer = append([]string(nil), t.Footer...)
	}
	return clone
}

// MapData positions markers on a map. Center is optional; renderers without
// tiles list the markers with their coordinates.
type MapData struct {
	Zoom    int       `json:"zoom,omitempty"`
	Center  *GeoPoint `json:"center,omitempty"`
	Markers []Marker  `json:"markers"`
}

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Marker is a labelled map pin.
type Marker struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Color string  `json:"color,omitempty"`
}

func (m *MapData) validate() error {
	for i, marker := range m.Markers {
		if marker.Lat < -90 || marker.Lat > 90 {
			return fmt.Errorf("marker %d: latitude %v out of range", i, marker.Lat)
		}
		if marker.Lng < -180 || marker.Lng > 180 {
			return fmt.Errorf("marker %d: longitude %v out of range", i, marker.Lng)
		}
	}
	return nil
}

// Clone returns a deep copy of the map payload.
func (m MapData) Clone() MapData {
	clone := m
	if m.Center != nil {
		center := *m.Center
		clone.Center = &center
	}
	if len(m.Markers) > 0 {
		clone.Markers = append([]Marker(nil), m.Markers...)
	}
	return clone
}

// MediaItem references an image or other media asset shown in gallery
// sections.
type MediaItem struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	Alt     string `json:"alt,omitempty"`
}
