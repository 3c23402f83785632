package model

import (
	"strings"
	"testing"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/sections"
)

func buildFixture(t *testing.T, c *card.Card, opts ...Option) CardModel {
	t.Helper()
	resolved := sections.Normalize(c)
	m, err := Build(c, resolved, opts...)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func TestBuild_Defaults(t *testing.T) {
	c := &card.Card{
		ID:       "acme",
		Title:    "Acme Corp",
		Subtitle: "Industrial supplies",
		Type:     card.TypeDashboard,
		Sections: []card.Section{
			{Type: "stats", Fields: []card.Field{{Label: "Revenue", Value: "1.2M"}}},
		},
		Metadata: map[string]string{"team": "core"},
	}

	m := buildFixture(t, c)
	if m.Columns != 3 {
		t.Fatalf("default columns: want 3, got %d", m.Columns)
	}
	if m.Type != "dashboard" {
		t.Fatalf("type lost: %q", m.Type)
	}
	if len(m.Sections) != 1 {
		t.Fatalf("want 1 section, got %d", len(m.Sections))
	}

	sec := m.Sections[0]
	if sec.Component != "analytics" || sec.Raw != "stats" {
		t.Fatalf("resolution not carried over: %+v", sec)
	}
	if sec.Kind != card.PayloadFields {
		t.Fatalf("payload kind: want fields, got %q", sec.Kind)
	}
	if sec.Title != "Analytics" {
		t.Fatalf("untitled section should take a humanized title, got %q", sec.Title)
	}

	m.Meta["team"] = "tampered"
	if c.Metadata["team"] != "core" {
		t.Fatal("card metadata must be cloned into the model")
	}
}

func TestBuild_ExplicitTitleWins(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "analytics", Title: "Key Numbers"},
	}}

	if got := buildFixture(t, c).Sections[0].Title; got != "Key Numbers" {
		t.Fatalf("explicit title overwritten: %q", got)
	}
}

func TestBuild_SpanCappedByColumns(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "overview"},
	}}

	m := buildFixture(t, c, WithColumns(2))
	if m.Columns != 2 {
		t.Fatalf("columns option ignored: %d", m.Columns)
	}
	if m.Sections[0].Span != 2 {
		t.Fatalf("overview span should cap at 2, got %d", m.Sections[0].Span)
	}
}

func TestBuild_SanitizesIcons(t *testing.T) {
	hostile := `<svg onload="alert(1)"><path d="M0 0"/></svg>`
	c := &card.Card{
		Title: "Acme",
		Sections: []card.Section{
			{Type: "analytics", Fields: []card.Field{{Label: "Users", Value: "42", Icon: hostile}}},
		},
		Actions: []card.Action{{Label: "Open", Icon: hostile}},
	}

	m := buildFixture(t, c)
	if icon := m.Sections[0].Fields[0].Icon; strings.Contains(icon, "onload") {
		t.Fatalf("field icon not sanitized: %q", icon)
	}
	if icon := m.Actions[0].Icon; strings.Contains(icon, "onload") {
		t.Fatalf("action icon not sanitized: %q", icon)
	}
	if !strings.Contains(c.Sections[0].Fields[0].Icon, "onload") {
		t.Fatal("source card should keep its original payload")
	}
}

func TestBuild_CustomLabeler(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{{Type: "faq"}}}

	m := buildFixture(t, c, WithLabeler(func(name string) string { return "Q&A" }))
	if got := m.Sections[0].Title; got != "Q&A" {
		t.Fatalf("custom labeler ignored: %q", got)
	}
}

func TestBuild_NilCard(t *testing.T) {
	if _, err := Build(nil, nil); err == nil {
		t.Fatal("nil card must error")
	}
}

func TestDefaultLabeler(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "analytics", want: "Analytics"},
		{in: "market-analysis", want: "Market Analysis"},
		{in: "market_analysis", want: "Market Analysis"},
		{in: "marketAnalysis", want: "Market Analysis"},
		{in: "faq", want: "Faq"},
		{in: "q4Results", want: "Q 4 Results"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := DefaultLabeler(tc.in); got != tc.want {
				t.Fatalf("label %q: want %q, got %q", tc.in, tc.want, got)
			}
		})
	}
}
