package html

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-cardgen/pkg/model"
	rendertemplate "github.com/goliatone/go-cardgen/pkg/render/template"
	"github.com/goliatone/go-cardgen/pkg/renderers/html/components"
	"github.com/goliatone/go-cardgen/pkg/theme"
)

type sectionRenderer struct {
	engine     rendertemplate.TemplateRenderer
	registry   *components.Registry
	theme      *gotheme.RendererConfig
	columns    int
	prettyJSON bool

	usedComponents map[string]struct{}
}

func newSectionRenderer(engine rendertemplate.TemplateRenderer, registry *components.Registry, themeCfg *gotheme.RendererConfig, columns int, prettyJSON bool) *sectionRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &sectionRenderer{
		engine:         engine,
		registry:       registry,
		theme:          themeCfg,
		columns:        columns,
		prettyJSON:     prettyJSON,
		usedComponents: make(map[string]struct{}),
	}
}

// render produces one complete section block: the component body wrapped in
// the section chrome partial. Unknown component types render through the
// info fallback, mirroring the alias fallback during normalization.
func (r *sectionRenderer) render(section model.SectionModel, annotations []string, cardPalette string) (string, error) {
	componentName := strings.TrimSpace(section.Component)
	if componentName == "" {
		componentName = components.Fallback
	}

	descriptor, ok := r.registry.Get(componentName)
	if !ok {
		descriptor, ok = r.registry.Get(components.Fallback)
		if !ok {
			return "", fmt.Errorf("component %q not registered and no %q fallback available", componentName, components.Fallback)
		}
	}

	palette := section.Palette
	if palette == "" {
		palette = cardPalette
	}

	data := components.ComponentData{
		Engine:      r.engine,
		Theme:       r.theme,
		Palette:     palette,
		Columns:     r.columns,
		Annotations: annotations,
		PrettyJSON:  r.prettyJSON,
		RenderChild: r.renderChild,
	}

	var body string
	if override := data.PartialOverride("section." + componentName); override != "" {
		rendered, err := r.engine.RenderTemplate(override, map[string]any{
			"section": sectionContext(section, palette, r.accent(palette), annotations, ""),
		})
		if err != nil {
			return "", fmt.Errorf("render theme partial %q for section %q: %w", override, section.ID, err)
		}
		body = rendered
	} else {
		var buf bytes.Buffer
		if err := descriptor.Renderer(&buf, section, data); err != nil {
			return "", fmt.Errorf("render component %q for section %q: %w", descriptor.Name, section.ID, err)
		}
		body = buf.String()
	}

	r.usedComponents[descriptor.Name] = struct{}{}

	block, err := r.engine.RenderTemplate(r.partialPath("card.section"), map[string]any{
		"section": sectionContext(section, palette, r.accent(palette), annotations, body),
	})
	if err != nil {
		return "", fmt.Errorf("render section chrome for %q: %w", section.ID, err)
	}
	return block, nil
}

// renderChild resolves name through the theme partial map, then treats it as
// a template path.
func (r *sectionRenderer) renderChild(name string, ctx map[string]any) (string, error) {
	return r.engine.RenderTemplate(r.partialPath(name), ctx)
}

// partialPath maps a partial name to its template path. Theme overrides win,
// the built-in fallback map covers the chrome slots, and anything unmapped
// is already a path.
func (r *sectionRenderer) partialPath(name string) string {
	if r.theme != nil {
		if path := strings.TrimSpace(r.theme.Partials[name]); path != "" {
			return path
		}
	}
	if path := theme.Fallbacks()[name]; path != "" {
		return path
	}
	return name
}

// accent resolves the palette name into its theme color token.
func (r *sectionRenderer) accent(palette string) string {
	if r.theme == nil || palette == "" {
		return ""
	}
	return r.theme.Tokens[theme.PaletteToken(palette)]
}

// assets aggregates stylesheet and script dependencies for every component
// used so far, in stable name order.
func (r *sectionRenderer) assets() ([]string, []components.Script) {
	if len(r.usedComponents) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(r.usedComponents))
	for name := range r.usedComponents {
		names = append(names, name)
	}
	slices.Sort(names)
	return r.registry.Assets(names)
}
