package components

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-cardgen/pkg/model"
	rendertemplate "github.com/goliatone/go-cardgen/pkg/render/template"
)

// Renderer is the contract section components satisfy. Implementations
// receive the resolved section and write HTML into buf using the supplied
// helpers or plain string building.
type Renderer func(buf *bytes.Buffer, section model.SectionModel, data ComponentData) error

// ComponentData carries helpers and per-render configuration for component
// renderers.
type ComponentData struct {
	// Engine executes named templates. Components that render through a
	// template partial instead of string building go through here.
	Engine rendertemplate.TemplateRenderer
	// Theme is the resolved theme configuration. May be nil.
	Theme *gotheme.RendererConfig
	// Palette is the effective palette name for the section, already
	// falling back to the card-level palette.
	Palette string
	// Columns is the card grid width, for components that size against it.
	Columns int
	// Annotations are validation messages attached to this section.
	Annotations []string
	// PrettyJSON indents machine-readable dumps emitted by debug-leaning
	// components.
	PrettyJSON bool
	// RenderChild renders a named template with the given context. The name
	// is resolved through the theme partial map first, then used as a
	// template path directly.
	RenderChild func(name string, ctx map[string]any) (string, error)
}

// PartialOverride returns the theme-supplied template path registered under
// name, or "" when the theme does not override it.
func (d ComponentData) PartialOverride(name string) string {
	if d.Theme == nil || len(d.Theme.Partials) == 0 {
		return ""
	}
	return strings.TrimSpace(d.Theme.Partials[name])
}

// Token resolves a theme design token, returning fallback when the theme is
// absent or does not define it.
func (d ComponentData) Token(name, fallback string) string {
	if d.Theme != nil {
		if value := strings.TrimSpace(d.Theme.Tokens[name]); value != "" {
			return value
		}
	}
	return fallback
}

// Script describes JavaScript dependencies a component needs emitted once
// per render.
type Script struct {
	Src    string
	Type   string
	Inline string
	Async  bool
	Defer  bool
	Module bool
	Attrs  map[string]string
}

// Descriptor bundles a component renderer with its asset dependencies.
type Descriptor struct {
	Name        string
	Renderer    Renderer
	Stylesheets []string
	Scripts     []Script
}

// Registry tracks component descriptors keyed by canonical section type.
// Callers can register new components or override the defaults.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]Descriptor),
	}
}

// Clone returns a deep copy of the registry to allow isolated mutations.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := New()
	for name, descriptor := range r.components {
		cloned.components[name] = cloneDescriptor(descriptor)
	}
	return cloned
}

// Register associates a descriptor with the provided component name.
// Existing entries are replaced.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	if name = normalize(name); name == "" {
		return fmt.Errorf("components: component name is required")
	}
	if descriptor.Renderer == nil {
		return fmt.Errorf("components: renderer for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	descriptor.Name = name
	r.components[name] = cloneDescriptor(descriptor)
	return nil
}

// MustRegister mirrors Register but panics on error, simplifying default
// registry setup.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// Get fetches a descriptor by component name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.components[normalize(name)]
	if !ok {
		return Descriptor{}, false
	}
	return cloneDescriptor(descriptor), true
}

// List returns a sorted slice of registered component names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Assets resolves dependency aggregates for the provided component names.
// Duplicates collapse to their first occurrence.
func (r *Registry) Assets(names []string) (stylesheets []string, scripts []Script) {
	if len(names) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seenStyles := make(map[string]struct{})
	seenScripts := make(map[string]struct{})

	for _, name := range names {
		descriptor, ok := r.components[normalize(name)]
		if !ok {
			continue
		}
		for _, href := range descriptor.Stylesheets {
			if href == "" {
				continue
			}
			if _, exists := seenStyles[href]; exists {
				continue
			}
			seenStyles[href] = struct{}{}
			stylesheets = append(stylesheets, href)
		}
		for _, script := range descriptor.Scripts {
			key := scriptKey(script)
			if _, exists := seenScripts[key]; exists {
				continue
			}
			seenScripts[key] = struct{}{}
			scripts = append(scripts, script)
		}
	}
	return stylesheets, scripts
}

func cloneDescriptor(src Descriptor) Descriptor {
	clone := Descriptor{
		Name:        src.Name,
		Renderer:    src.Renderer,
		Stylesheets: slices.Clone(src.Stylesheets),
		Scripts:     make([]Script, len(src.Scripts)),
	}
	for idx, script := range src.Scripts {
		clone.Scripts[idx] = Script{
			Src:    script.Src,
			Type:   script.Type,
			Inline: script.Inline,
			Async:  script.Async,
			Defer:  script.Defer,
			Module: script.Module,
			Attrs:  cloneStringMap(script.Attrs),
		}
	}
	return clone
}

func cloneStringMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

func scriptKey(script Script) string {
	if script.Src != "" {
		return "src:" + script.Src
	}
	return "inline:" + script.Inline
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
