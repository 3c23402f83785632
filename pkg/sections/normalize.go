package sections

import (
	"sort"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/card"
)

// Explicit component override honoured before alias resolution, mirroring how
// documents can pin a widget regardless of their declared type.
const componentMetadataKey = "component"

const (
	defaultSpan     = 1
	defaultPriority = 100
	maxSpan         = 3
)

// ResolvedSection pairs a section with the outcome of designation resolution
// and the effective layout hints.
type ResolvedSection struct {
	Section   card.Section
	Canonical string
	Raw       string
	Fallback  bool
	Span      int
	Priority  int
	Collapsed bool
	Palette   string
}

type normalizeConfig struct {
	registry     *Registry
	prioritySort bool
	newID        func(prefix string) string
}

// Option adjusts normalization behaviour.
type Option func(*normalizeConfig)

// WithRegistry swaps the registry used for resolution. Defaults to Default().
func WithRegistry(reg *Registry) Option {
	return func(cfg *normalizeConfig) {
		if reg != nil {
			cfg.registry = reg
		}
	}
}

// WithPrioritySort stable-sorts the result by priority. Document order is
// the default.
func WithPrioritySort(enabled bool) Option {
	return func(cfg *normalizeConfig) {
		cfg.prioritySort = enabled
	}
}

// WithIDGenerator replaces the identifier generator used for sections that
// arrive without an ID. Tests use this for deterministic output.
func WithIDGenerator(gen func(prefix string) string) Option {
	return func(cfg *normalizeConfig) {
		if gen != nil {
			cfg.newID = gen
		}
	}
}

// Normalize resolves every section of the card: canonical type, generated ID
// when missing, and effective layout hints. Explicit hints on the section win
// over definition defaults, which win over global defaults. The input card is
// never mutated.
func Normalize(c *card.Card, opts ...Option) []ResolvedSection {
	if c == nil || len(c.Sections) == 0 {
		return nil
	}

	cfg := normalizeConfig{
		registry: Default(),
		newID:    card.NewID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make([]ResolvedSection, 0, len(c.Sections))
	for _, sec := range c.Sections {
		resolved := cfg.resolveOne(sec.Clone())
		out = append(out, resolved)
	}

	if cfg.prioritySort {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority < out[j].Priority
		})
	}
	return out
}

func (cfg *normalizeConfig) resolveOne(sec card.Section) ResolvedSection {
	raw := sec.Type
	def, matched := cfg.resolveDefinition(sec)

	resolved := ResolvedSection{
		Section:   sec,
		Canonical: def.Type,
		Raw:       raw,
		Fallback:  !matched,
		Span:      def.Span,
		Priority:  def.Priority,
		Palette:   def.Palette,
	}
	if resolved.Canonical == "" {
		// Registry without a fallback definition; keep rendering possible.
		resolved.Canonical = Fallback
		resolved.Span = defaultSpan
		resolved.Priority = defaultPriority
	}

	if resolved.Section.ID == "" {
		resolved.Section.ID = cfg.newID("sec")
	}

	if layout := sec.Layout; layout != nil {
		if layout.Span > 0 {
			resolved.Span = layout.Span
		}
		if layout.Priority != 0 {
			resolved.Priority = layout.Priority
		}
		resolved.Collapsed = layout.Collapsed
	}
	if resolved.Span < 1 {
		resolved.Span = defaultSpan
	}
	if resolved.Span > maxSpan {
		resolved.Span = maxSpan
	}

	if palette := strings.TrimSpace(sec.Metadata["palette"]); palette != "" {
		resolved.Palette = palette
	}
	return resolved
}

func (cfg *normalizeConfig) resolveDefinition(sec card.Section) (Definition, bool) {
	if explicit := strings.TrimSpace(sec.Metadata[componentMetadataKey]); explicit != "" {
		if def, ok := cfg.registry.Resolve(explicit); ok {
			return def, true
		}
	}
	return cfg.registry.Resolve(sec.Type)
}
