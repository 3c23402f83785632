package components

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cardgen/pkg/model"
)

func noopRenderer(*bytes.Buffer, model.SectionModel, ComponentData) error {
	return nil
}

func TestRegistryRegisterValidation(t *testing.T) {
	registry := New()

	if err := registry.Register("", Descriptor{Renderer: noopRenderer}); err == nil {
		t.Fatal("expected error for empty component name")
	}
	if err := registry.Register("badge", Descriptor{}); err == nil {
		t.Fatal("expected error for nil renderer")
	}
	if err := registry.Register("  Badge ", Descriptor{Renderer: noopRenderer}); err != nil {
		t.Fatalf("register: %v", err)
	}

	descriptor, ok := registry.Get("badge")
	if !ok {
		t.Fatal("expected descriptor under normalized name")
	}
	if descriptor.Name != "badge" {
		t.Fatalf("descriptor name = %q, want %q", descriptor.Name, "badge")
	}
}

func TestRegistryListSorted(t *testing.T) {
	registry := New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		registry.MustRegister(name, Descriptor{Renderer: noopRenderer})
	}

	if diff := cmp.Diff([]string{"alpha", "mid", "zeta"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryAssetsDeduped(t *testing.T) {
	registry := New()
	registry.MustRegister("first", Descriptor{
		Renderer:    noopRenderer,
		Stylesheets: []string{"shared.css", "first.css"},
		Scripts:     []Script{{Src: "shared.js"}},
	})
	registry.MustRegister("second", Descriptor{
		Renderer:    noopRenderer,
		Stylesheets: []string{"shared.css"},
		Scripts:     []Script{{Src: "shared.js"}, {Inline: "init();"}},
	})

	stylesheets, scripts := registry.Assets([]string{"first", "second", "missing"})

	if diff := cmp.Diff([]string{"shared.css", "first.css"}, stylesheets); diff != "" {
		t.Fatalf("stylesheet mismatch (-want +got):\n%s", diff)
	}
	if len(scripts) != 2 {
		t.Fatalf("scripts = %d, want 2 (shared.js deduped)", len(scripts))
	}
	if scripts[0].Src != "shared.js" || scripts[1].Inline != "init();" {
		t.Fatalf("unexpected scripts: %+v", scripts)
	}
}

func TestRegistryCloneIsolates(t *testing.T) {
	base := New()
	base.MustRegister("badge", Descriptor{Renderer: noopRenderer})

	clone := base.Clone()
	clone.MustRegister("extra", Descriptor{Renderer: noopRenderer})

	if _, ok := base.Get("extra"); ok {
		t.Fatal("clone registration leaked into the base registry")
	}
	if _, ok := clone.Get("badge"); !ok {
		t.Fatal("clone lost the base registration")
	}
}

func TestDefaultRegistryCoversCanonicalTypes(t *testing.T) {
	registry := NewDefaultRegistry()

	for _, name := range []string{
		"overview", "analytics", "financials", "market", "network",
		"solutions", "products", "team", "contact", "chart", "table",
		"map", "list", "timeline", "gallery", "quote", "news", "events",
		"social", "pricing", "faq", "progress", "comparison", Fallback,
	} {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("no component registered for %q", name)
		}
	}
}
