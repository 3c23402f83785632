package sections

import (
	"fmt"
	"testing"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/google/go-cmp/cmp"
)

func sequentialIDs() func(prefix string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func TestNormalize_DefinitionDefaultsApply(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "stats", Fields: []card.Field{{Label: "Users", Value: "42"}}},
	}}

	got := Normalize(c, WithIDGenerator(sequentialIDs()))
	if len(got) != 1 {
		t.Fatalf("want 1 section, got %d", len(got))
	}

	sec := got[0]
	if sec.Canonical != "analytics" || sec.Fallback {
		t.Fatalf("alias resolution failed: %+v", sec)
	}
	if sec.Raw != "stats" {
		t.Fatalf("raw designation lost: %q", sec.Raw)
	}
	if sec.Span != 2 || sec.Priority != 20 || sec.Palette != "violet" {
		t.Fatalf("definition defaults not applied: span=%d priority=%d palette=%q", sec.Span, sec.Priority, sec.Palette)
	}
	if sec.Section.ID != "sec-1" {
		t.Fatalf("missing ID should be generated, got %q", sec.Section.ID)
	}
}

func TestNormalize_ExplicitHintsWin(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{
			ID:     "keep-me",
			Type:   "analytics",
			Layout: &card.LayoutHints{Span: 3, Priority: 5, Collapsed: true},
		},
	}}

	sec := Normalize(c)[0]
	if sec.Section.ID != "keep-me" {
		t.Fatalf("existing ID must survive, got %q", sec.Section.ID)
	}
	if sec.Span != 3 || sec.Priority != 5 || !sec.Collapsed {
		t.Fatalf("explicit layout hints should win: %+v", sec)
	}
}

func TestNormalize_SpanClamped(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "overview", Layout: &card.LayoutHints{Span: 9}},
	}}

	if got := Normalize(c)[0].Span; got != 3 {
		t.Fatalf("span should clamp to 3, got %d", got)
	}
}

func TestNormalize_UnknownFallsBackToInfo(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "quantum-flux", Text: "?"},
	}}

	sec := Normalize(c)[0]
	if sec.Canonical != Fallback || !sec.Fallback {
		t.Fatalf("unknown type should fall back to info: %+v", sec)
	}
	if sec.Raw != "quantum-flux" {
		t.Fatalf("raw designation must be preserved for diagnostics: %q", sec.Raw)
	}
}

func TestNormalize_ComponentMetadataOverride(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "mystery", Metadata: map[string]string{"component": "timeline"}},
	}}

	sec := Normalize(c)[0]
	if sec.Canonical != "timeline" || sec.Fallback {
		t.Fatalf("component metadata should pin resolution: %+v", sec)
	}
}

func TestNormalize_PaletteMetadataOverride(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "analytics", Metadata: map[string]string{"palette": "crimson"}},
	}}

	if got := Normalize(c)[0].Palette; got != "crimson" {
		t.Fatalf("palette override lost, got %q", got)
	}
}

func TestNormalize_DocumentOrderDefault(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "contact"},
		{Type: "overview"},
	}}

	got := Normalize(c)
	if got[0].Canonical != "contact" || got[1].Canonical != "overview" {
		t.Fatalf("document order must hold by default: %q then %q", got[0].Canonical, got[1].Canonical)
	}
}

func TestNormalize_PrioritySort(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "contact"},
		{Type: "overview"},
		{Type: "analytics"},
	}}

	got := Normalize(c, WithPrioritySort(true))
	want := []string{"overview", "analytics", "contact"}
	for i, sec := range got {
		if sec.Canonical != want[i] {
			t.Fatalf("priority sort: want %v, got %s at %d", want, sec.Canonical, i)
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	c := &card.Card{Title: "Acme", Sections: []card.Section{
		{Type: "stats", Metadata: map[string]string{"origin": "doc"}},
	}}
	snapshot := c.Clone()

	out := Normalize(c, WithIDGenerator(sequentialIDs()))
	out[0].Section.Metadata["origin"] = "tampered"
	out[0].Section.Type = "tampered"

	if diff := cmp.Diff(snapshot, c); diff != "" {
		t.Fatalf("input card mutated (-want +got):\n%s", diff)
	}
}

func TestNormalize_EmptyCard(t *testing.T) {
	if got := Normalize(nil); got != nil {
		t.Fatalf("nil card should normalize to nil, got %v", got)
	}
	if got := Normalize(&card.Card{Title: "Acme"}); got != nil {
		t.Fatalf("card without sections should normalize to nil, got %v", got)
	}
}
