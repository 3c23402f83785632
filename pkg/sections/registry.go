// Package sections maps the loosely-typed section designations found in card
// documents onto canonical section types. Each canonical type carries layout
// defaults (column span, ordering priority) and a palette name; unknown
// designations fall back to the generic info type so rendering is total.
package sections

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Fallback is the canonical type every unknown designation resolves to.
const Fallback = "info"

// Definition describes one canonical section type.
type Definition struct {
	Type        string
	Aliases     []string
	Span        int
	Priority    int
	Palette     string
	Icon        string
	Description string
}

// Registry resolves raw section designations to definitions. Lookups are
// case-insensitive and separator-insensitive ("Market Analysis",
// "market_analysis" and "market-analysis" are the same designation).
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]Definition
	aliases map[string]string
	order   []string
}

// NewRegistry constructs an empty registry. Most callers want Default.
func NewRegistry() *Registry {
	return &Registry{
		defs:    make(map[string]Definition),
		aliases: make(map[string]string),
	}
}

// Register adds a definition. The canonical name and every alias must be new
// to the registry; spans outside 1..3 and non-positive priorities are
// rejected so definitions stay renderable.
func (r *Registry) Register(def Definition) error {
	canonical := normalizeKey(def.Type)
	if canonical == "" {
		return fmt.Errorf("sections: definition type is required")
	}
	if def.Span < 1 || def.Span > 3 {
		return fmt.Errorf("sections: %s: span %d out of range 1..3", canonical, def.Span)
	}
	if def.Priority <= 0 {
		return fmt.Errorf("sections: %s: priority must be positive", canonical)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[canonical]; exists {
		return fmt.Errorf("sections: duplicate definition %q", canonical)
	}
	if owner, taken := r.aliases[canonical]; taken {
		return fmt.Errorf("sections: %q already registered as alias of %q", canonical, owner)
	}

	cleaned := make([]string, 0, len(def.Aliases))
	for _, alias := range def.Aliases {
		key := normalizeKey(alias)
		if key == "" || key == canonical {
			continue
		}
		if _, exists := r.defs[key]; exists {
			return fmt.Errorf("sections: alias %q collides with definition %q", key, key)
		}
		if owner, taken := r.aliases[key]; taken {
			return fmt.Errorf("sections: alias %q already owned by %q", key, owner)
		}
		cleaned = append(cleaned, key)
	}

	def.Type = canonical
	def.Aliases = cleaned
	r.defs[canonical] = def
	for _, alias := range cleaned {
		r.aliases[alias] = canonical
	}
	r.order = append(r.order, canonical)
	return nil
}

// MustRegister panics when registration fails. Intended for package setup.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Resolve maps a raw designation to its definition. The second return is
// false when the designation was unknown and the info fallback was returned
// instead. Resolution is total as long as the registry carries a Fallback
// definition; a registry without one reports the zero Definition.
func (r *Registry) Resolve(raw string) (Definition, bool) {
	key := normalizeKey(raw)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if def, ok := r.defs[key]; ok {
		return def, true
	}
	if canonical, ok := r.aliases[key]; ok {
		return r.defs[canonical], true
	}
	return r.defs[Fallback], false
}

// Has reports whether the designation resolves without falling back.
func (r *Registry) Has(raw string) bool {
	_, ok := r.Resolve(raw)
	return ok
}

// Definitions returns all definitions ordered by priority, with registration
// order breaking ties.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.order))
	rank := make(map[string]int, len(r.order))
	for i, name := range r.order {
		rank[name] = i
		out = append(out, r.defs[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority == out[j].Priority {
			return rank[out[i].Type] < rank[out[j].Type]
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Aliases returns a copy of the alias index, alias to canonical type.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for alias, canonical := range r.aliases {
		out[alias] = canonical
	}
	return out
}

func normalizeKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "_", "-")
	key = strings.ReplaceAll(key, " ", "-")
	for strings.Contains(key, "--") {
		key = strings.ReplaceAll(key, "--", "-")
	}
	return key
}

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}()

// Default returns the shared registry seeded with the built-in canonical
// section types.
func Default() *Registry {
	return defaultRegistry
}

func registerBuiltins(r *Registry) {
	builtins := []Definition{
		{Type: "overview", Aliases: []string{"summary", "about", "intro", "description"}, Span: 3, Priority: 10, Palette: "slate", Icon: "layout", Description: "Lead summary spanning the full card width"},
		{Type: "analytics", Aliases: []string{"stats", "statistics", "metrics", "kpi", "kpis"}, Span: 2, Priority: 20, Palette: "violet", Icon: "trending-up", Description: "Key figures with trend indicators"},
		{Type: "financials", Aliases: []string{"finance", "financial", "revenue", "earnings"}, Span: 2, Priority: 30, Palette: "emerald", Icon: "dollar-sign", Description: "Financial figures and statements"},
		{Type: "chart", Aliases: []string{"graph", "visualization", "plot", "trend"}, Span: 2, Priority: 40, Palette: "sky", Icon: "bar-chart", Description: "Plotted series data"},
		{Type: "table", Aliases: []string{"grid", "data-table", "matrix", "spreadsheet"}, Span: 2, Priority: 50, Palette: "slate", Icon: "table", Description: "Tabular rows and columns"},
		{Type: "market", Aliases: []string{"market-analysis", "marketplace", "markets"}, Span: 1, Priority: 60, Palette: "amber", Icon: "globe", Description: "Market position and analysis"},
		{Type: "products", Aliases: []string{"product-list", "catalog", "portfolio"}, Span: 2, Priority: 70, Palette: "indigo", Icon: "package", Description: "Product or portfolio entries"},
		{Type: "solutions", Aliases: []string{"services", "capabilities"}, Span: 1, Priority: 80, Palette: "cyan", Icon: "tool", Description: "Offered services and capabilities"},
		{Type: "network", Aliases: []string{"connections", "relationships", "partners"}, Span: 2, Priority: 90, Palette: "fuchsia", Icon: "share-2", Description: "Relationships and partner graph"},
		{Type: "team", Aliases: []string{"people", "members", "staff", "leadership"}, Span: 1, Priority: 100, Palette: "rose", Icon: "users", Description: "People and roles"},
		{Type: "timeline", Aliases: []string{"history", "milestones", "roadmap"}, Span: 2, Priority: 110, Palette: "orange", Icon: "clock", Description: "Ordered milestones"},
		{Type: "progress", Aliases: []string{"status", "tracker", "completion"}, Span: 1, Priority: 120, Palette: "lime", Icon: "activity", Description: "Completion state per entry"},
		{Type: "comparison", Aliases: []string{"versus", "compare", "benchmark"}, Span: 2, Priority: 130, Palette: "teal", Icon: "columns", Description: "Side-by-side comparison"},
		{Type: "pricing", Aliases: []string{"plans", "tiers", "packages"}, Span: 2, Priority: 140, Palette: "emerald", Icon: "tag", Description: "Plan tiers and prices"},
		{Type: "list", Aliases: []string{"bullets", "checklist", "tasks"}, Span: 1, Priority: 150, Palette: "slate", Icon: "list", Description: "Plain item list"},
		{Type: "map", Aliases: []string{"locations", "geo", "geography", "places"}, Span: 2, Priority: 160, Palette: "sky", Icon: "map-pin", Description: "Markers on a map"},
		{Type: "gallery", Aliases: []string{"images", "photos", "media"}, Span: 2, Priority: 170, Palette: "violet", Icon: "image", Description: "Image gallery"},
		{Type: "quote", Aliases: []string{"testimonial", "review", "endorsement"}, Span: 1, Priority: 180, Palette: "amber", Icon: "message-circle", Description: "Pull quote or testimonial"},
		{Type: "news", Aliases: []string{"updates", "feed", "announcements", "press"}, Span: 1, Priority: 190, Palette: "indigo", Icon: "rss", Description: "Dated updates"},
		{Type: "events", Aliases: []string{"calendar", "schedule", "upcoming"}, Span: 1, Priority: 200, Palette: "rose", Icon: "calendar", Description: "Scheduled events"},
		{Type: "social", Aliases: []string{"social-media", "profiles", "channels"}, Span: 1, Priority: 210, Palette: "cyan", Icon: "at-sign", Description: "Social profiles and links"},
		{Type: "faq", Aliases: []string{"questions", "qa", "help"}, Span: 2, Priority: 220, Palette: "slate", Icon: "help-circle", Description: "Question and answer pairs"},
		{Type: "contact", Aliases: []string{"contacts", "reach", "support"}, Span: 1, Priority: 230, Palette: "teal", Icon: "mail", Description: "Contact channels"},
		{Type: Fallback, Aliases: []string{"details", "general", "misc", "notes"}, Span: 1, Priority: 240, Palette: "slate", Icon: "info", Description: "Generic catch-all section"},
	}
	for _, def := range builtins {
		r.MustRegister(def)
	}
}
