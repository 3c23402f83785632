// Package html renders card models into themed HTML documents. Sections are
// rendered by per-component renderers from a registry, wrapped in chrome
// partials served by a pongo2 template engine, so themes can replace any
// layer without touching Go code.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/goliatone/go-cardgen/pkg/model"
	"github.com/goliatone/go-cardgen/pkg/render"
	rendertemplate "github.com/goliatone/go-cardgen/pkg/render/template"
	"github.com/goliatone/go-cardgen/pkg/render/template/pongo"
	"github.com/goliatone/go-cardgen/pkg/renderers/html/components"
	"github.com/goliatone/go-cardgen/pkg/theme"
)

type Option func(*config)

type config struct {
	templateFS fs.FS
	engine     rendertemplate.TemplateRenderer
	components *components.Registry
	translator render.Translator
	prettyJSON bool
	fragment   bool
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS. Templates
// are addressed by the same paths as the embedded set (templates/card.html,
// templates/partials/...).
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithEngine injects a custom template engine implementation.
func WithEngine(engine rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if engine != nil {
			cfg.engine = engine
		}
	}
}

// WithComponents replaces the default component registry.
func WithComponents(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithTranslator backs the translate/current_locale template helpers, which
// theme partials use for chrome strings. Without one the helpers echo their
// keys. Only the default engine picks this up; a WithEngine engine brings
// its own helpers.
func WithTranslator(t render.Translator) Option {
	return func(cfg *config) {
		cfg.translator = t
	}
}

// WithPrettyJSON makes fallback sections print their raw metadata as
// indented JSON instead of a definition list.
func WithPrettyJSON(enabled bool) Option {
	return func(cfg *config) {
		cfg.prettyJSON = enabled
	}
}

// WithFragment makes the renderer emit an embeddable fragment (the card
// element plus scoped styles) instead of a standalone document. Per-call
// RenderOptions.Fragment has the same effect.
func WithFragment(enabled bool) Option {
	return func(cfg *config) {
		cfg.fragment = enabled
	}
}

type Renderer struct {
	engine     rendertemplate.TemplateRenderer
	components *components.Registry
	prettyJSON bool
	fragment   bool
}

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	engine := cfg.engine
	if engine == nil {
		built, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".html"),
			pongo.WithTemplateFunc(render.TemplateI18nFuncs(cfg.translator, render.TemplateI18nConfig{})),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template engine: %w", err)
		}
		engine = built
	}

	registry := cfg.components
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}

	return &Renderer{
		engine:     engine,
		components: registry,
		prettyJSON: cfg.prettyJSON,
		fragment:   cfg.fragment,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the document for a card model. The model is treated as a
// value: localization and subsetting work on copied slices so the caller's
// card is never mutated.
func (r *Renderer) Render(_ context.Context, m model.CardModel, options render.RenderOptions) ([]byte, error) {
	if r.engine == nil {
		return nil, fmt.Errorf("html renderer: template engine is nil")
	}

	m.Sections = slices.Clone(m.Sections)
	m.Actions = slices.Clone(m.Actions)
	render.LocalizeCardModel(&m, options)
	render.ApplySubset(&m, options.Subset)

	themeCfg := options.Theme
	if themeCfg == nil {
		resolved, err := theme.Resolve("", options.Variant)
		if err != nil {
			return nil, fmt.Errorf("html renderer: resolve theme: %w", err)
		}
		themeCfg = resolved
	}

	mapping := render.MapIssuePayload(m, options.Issues)
	m.Columns = gridColumns(m.Columns)

	sections := newSectionRenderer(r.engine, r.components, themeCfg, m.Columns, r.prettyJSON)

	blocks := make([]string, 0, len(m.Sections))
	for i, section := range m.Sections {
		block, err := sections.render(section, mapping.SectionAnnotations(section, i), m.Palette)
		if err != nil {
			return nil, fmt.Errorf("html renderer: %w", err)
		}
		blocks = append(blocks, block)
	}

	stylesheets, scripts := sections.assets()
	if themeCfg.AssetURL != nil {
		if href := themeCfg.AssetURL("stylesheet"); href != "" {
			stylesheets = append([]string{href}, stylesheets...)
		}
	}

	fragment := r.fragment || options.Fragment

	styles, err := sections.renderChild("card.styles", map[string]any{
		"css_vars": cssVarList(themeCfg),
		"fragment": fragment,
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render styles partial: %w", err)
	}

	header, err := sections.renderChild("card.header", map[string]any{
		"card":     cardContext(m),
		"messages": mapping.Card,
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render header partial: %w", err)
	}

	var actions string
	if len(m.Actions) > 0 {
		actions, err = sections.renderChild("card.actions", map[string]any{
			"actions": actionContexts(m.Actions),
		})
		if err != nil {
			return nil, fmt.Errorf("html renderer: render actions partial: %w", err)
		}
	}

	doc, err := sections.renderChild("card.shell", map[string]any{
		"fragment":    fragment,
		"lang":        language(m),
		"locale":      options.Locale,
		"card":        cardContext(m),
		"meta_tags":   metaTagContexts(options.Meta),
		"stylesheets": stylesheets,
		"styles":      styles,
		"header":      header,
		"blocks":      blocks,
		"actions":     actions,
		"scripts":     scriptTags(scripts),
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render document shell: %w", err)
	}
	return []byte(doc), nil
}
