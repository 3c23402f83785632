package card

import (
	"bytes"
	"strings"
	"testing"
)

const sampleJSON = `{
	"id": "acme",
	"title": "Acme Corp",
	"type": "dashboard",
	"unknownKey": true,
	"sections": [
		{"type": "stats", "fields": [{"label": "Revenue", "value": "1.2M", "trend": "up"}]},
		{"type": "prose", "text": "Quarterly summary."}
	]
}`

const sampleYAML = `
title: Acme Corp
type: report
sections:
  - type: metrics
    fields:
      - label: Revenue
        value: 1.2M
  - type: chart
    chart:
      kind: bar
      labels: [Q1, Q2]
      series:
        - name: Sales
          values: [10, 20]
`

func TestParseCard_JSON(t *testing.T) {
	c, err := ParseCard([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if c.Title != "Acme Corp" || c.Type != TypeDashboard {
		t.Fatalf("unexpected header: %+v", c)
	}
	if len(c.Sections) != 2 {
		t.Fatalf("want 2 sections, got %d", len(c.Sections))
	}
	if c.Sections[0].Fields[0].Trend != TrendUp {
		t.Fatalf("field trend lost: %+v", c.Sections[0].Fields[0])
	}
}

func TestParseCard_YAMLFallback(t *testing.T) {
	c, err := ParseCard([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if c.Type != TypeReport {
		t.Fatalf("want report type, got %q", c.Type)
	}
	chart := c.Sections[1].Chart
	if chart == nil || chart.Kind != ChartBar || len(chart.Series) != 1 {
		t.Fatalf("chart payload lost through yaml round trip: %+v", chart)
	}
	if chart.Series[0].Values[1] != 20 {
		t.Fatalf("series values lost: %+v", chart.Series[0])
	}
}

func TestParseCard_PreservesSectionOrder(t *testing.T) {
	c, err := ParseCard([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Sections[0].Type != "stats" || c.Sections[1].Type != "prose" {
		t.Fatalf("section order changed: %+v", c.Sections)
	}
}

func TestParseCard_Errors(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "empty", raw: "   \n", wantErr: "empty document"},
		{name: "garbage", raw: "{{{::", wantErr: "parse"},
		{name: "valid json invalid card", raw: `{"type": "dashboard"}`, wantErr: "title is required"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCard([]byte(tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseCard_DoesNotMutateInput(t *testing.T) {
	raw := []byte(sampleJSON)
	snapshot := append([]byte(nil), raw...)

	if _, err := ParseCard(raw); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !bytes.Equal(raw, snapshot) {
		t.Fatal("input slice was mutated")
	}
}
