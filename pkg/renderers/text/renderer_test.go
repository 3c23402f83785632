package text

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/model"
	"github.com/goliatone/go-cardgen/pkg/render"
	"github.com/goliatone/go-cardgen/pkg/schema"
)

func dashboardModel() model.CardModel {
	return model.CardModel{
		ID:       "q3-dash",
		Title:    "Q3 Dashboard",
		Subtitle: "Revenue and pipeline",
		Type:     "dashboard",
		Columns:  2,
		Sections: []model.SectionModel{
			{
				ID:        "revenue",
				Component: "financials",
				Title:     "Revenue",
				Kind:      card.PayloadFields,
				Fields: []card.Field{
					{Label: "ARR", Value: "$12.4M", Trend: card.TrendUp},
					{Label: "Burn", Value: "$310k", Trend: card.TrendDown},
				},
			},
			{
				ID:        "traffic",
				Component: "table",
				Title:     "Traffic",
				Kind:      card.PayloadTable,
				Table: &card.TableData{
					Columns: []string{"Source", "Visits"},
					Rows:    [][]string{{"Organic", "12k"}, {"Referral", "3.4k"}},
				},
			},
		},
		Actions: []card.Action{
			{ID: "export", Label: "Export", Href: "/export", Style: card.StylePrimary},
		},
		UpdatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func renderText(t *testing.T, m model.CardModel, options render.RenderOptions) string {
	t.Helper()
	out, err := New().Render(context.Background(), m, options)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func boolPtr(b bool) *bool {
	return &b
}

func TestRendererIdentity(t *testing.T) {
	r := New()
	if r.Name() != "text" {
		t.Fatalf("unexpected name %q", r.Name())
	}
	if r.ContentType() != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
}

func TestRenderDocument(t *testing.T) {
	got := renderText(t, dashboardModel(), render.RenderOptions{})

	want := strings.Join([]string{
		"# Q3 Dashboard",
		"Revenue and pipeline",
		"dashboard | updated Mar 14, 2026",
		"",
		"## Revenue",
		"ARR   $12.4M ▲",
		"Burn  $310k ▼",
		"",
		"## Traffic",
		"Source    Visits",
		"Organic   12k",
		"Referral  3.4k",
		"",
		"Actions:",
		"- Export -> /export",
		"",
	}, "\n")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderItems(t *testing.T) {
	m := model.CardModel{
		Title: "Checklist",
		Sections: []model.SectionModel{{
			Component: "list",
			Title:     "Launch tasks",
			Kind:      card.PayloadItems,
			Items: []card.Item{
				{Title: "Ship docs", Done: boolPtr(true)},
				{Title: "Cut release", Description: "tag v1.2", Done: boolPtr(false)},
				{Title: "Status page", Value: "live", Link: "https://status.acme.dev"},
			},
		}},
	}

	got := renderText(t, m, render.RenderOptions{})

	for _, want := range []string{
		"- [x] Ship docs",
		"- [ ] Cut release: tag v1.2",
		"- Status page (live) <https://status.acme.dev>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderChartRows(t *testing.T) {
	m := model.CardModel{
		Title: "Metrics",
		Sections: []model.SectionModel{{
			Component: "chart",
			Title:     "Signups",
			Kind:      card.PayloadChart,
			Chart: &card.ChartData{
				Kind:   card.ChartBar,
				Labels: []string{"Q1", "Q2", "Q3"},
				Series: []card.ChartSeries{{Name: "Revenue", Values: []float64{12, 9, 14}}},
				Unit:   "USD",
			},
		}},
	}

	got := renderText(t, m, render.RenderOptions{})

	want := strings.Join([]string{
		"         Q1  Q2  Q3",
		"Revenue  12  9   14",
		"unit: USD",
	}, "\n")
	if !strings.Contains(got, want) {
		t.Fatalf("chart block mismatch, want:\n%s\ngot:\n%s", want, got)
	}
}

func TestRenderIssueLines(t *testing.T) {
	issues := []schema.Issue{
		{Path: "sections.0.fields.1.value", Message: "not a number", Severity: "warning"},
		{Path: "title", Message: "too long", Severity: "warning"},
	}

	got := renderText(t, dashboardModel(), render.RenderOptions{Issues: issues})

	if !strings.Contains(got, "! title: too long") {
		t.Fatalf("expected card issue line:\n%s", got)
	}
	if !strings.Contains(got, "## Revenue\n! fields.1.value: not a number") {
		t.Fatalf("expected section annotation under its heading:\n%s", got)
	}
}

func TestRenderSubset(t *testing.T) {
	got := renderText(t, dashboardModel(), render.RenderOptions{
		Subset: render.SectionSubset{IDs: []string{"traffic"}},
	})

	if strings.Contains(got, "## Revenue") {
		t.Fatalf("subset should have removed the revenue section")
	}
	if !strings.Contains(got, "## Traffic") {
		t.Fatalf("subset should have kept the traffic section")
	}
}

func TestRenderMapSection(t *testing.T) {
	m := model.CardModel{
		Title: "Offices",
		Sections: []model.SectionModel{{
			Component: "map",
			Title:     "Locations",
			Kind:      card.PayloadMap,
			Map: &card.MapData{
				Zoom:   4,
				Center: &card.GeoPoint{Lat: 40.4168, Lng: -3.7038},
				Markers: []card.Marker{
					{Label: "Madrid HQ", Lat: 40.4168, Lng: -3.7038},
					{Lat: 41.3874, Lng: 2.1686},
				},
			},
		}},
	}

	got := renderText(t, m, render.RenderOptions{})

	for _, want := range []string{
		"center: 40.4168, -3.7038 (zoom 4)",
		"- Madrid HQ (40.4168, -3.7038)",
		"- marker (41.3874, 2.1686)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderMetadataFallback(t *testing.T) {
	m := model.CardModel{
		Title: "Mystery",
		Sections: []model.SectionModel{
			{
				Component: "info",
				Title:     "Notes",
				Kind:      card.PayloadEmpty,
				Metadata:  map[string]string{"component": "hologram", "owner": "platform", "region": "eu"},
			},
			{
				Component: "info",
				Title:     "Void",
				Kind:      card.PayloadEmpty,
			},
		},
	}

	got := renderText(t, m, render.RenderOptions{})

	if !strings.Contains(got, "owner: platform\nregion: eu") {
		t.Fatalf("expected sorted metadata lines:\n%s", got)
	}
	if strings.Contains(got, "hologram") {
		t.Fatalf("component hint should not leak into output")
	}
	if !strings.Contains(got, "(nothing to show)") {
		t.Fatalf("expected empty marker for payload-free section")
	}
}

func TestRenderUntitledCard(t *testing.T) {
	got := renderText(t, model.CardModel{}, render.RenderOptions{})
	if !strings.HasPrefix(got, "# Untitled card\n") {
		t.Fatalf("expected fallback title, got:\n%s", got)
	}
}

func TestRenderDoesNotMutateCaller(t *testing.T) {
	m := dashboardModel()
	m.Sections[0].Metadata = map[string]string{"titleKey": "sections.revenue"}

	translator := render.TranslatorFunc(func(_, key string, _ ...any) (string, error) {
		return "Umsatz", nil
	})

	got := renderText(t, m, render.RenderOptions{Locale: "de", Translator: translator})

	if !strings.Contains(got, "## Umsatz") {
		t.Fatalf("expected translated heading:\n%s", got)
	}
	if m.Sections[0].Title != "Revenue" {
		t.Fatalf("caller's model mutated: %q", m.Sections[0].Title)
	}
}
