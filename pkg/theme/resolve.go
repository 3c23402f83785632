package theme

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
)

// Fallbacks returns the default partial map used when a manifest does not
// override a chrome slot. Keys are the names the HTML renderer looks up;
// values are template paths inside its embedded filesystem.
func Fallbacks() map[string]string {
	return map[string]string{
		"card.shell":   "templates/card.html",
		"card.header":  "templates/partials/header.html",
		"card.section": "templates/partials/section.html",
		"card.actions": "templates/partials/actions.html",
		"card.styles":  "templates/partials/styles.html",
	}
}

// Config flattens a theme selection into the renderer-facing configuration.
// Variant tokens overlay base tokens, variant templates overlay base templates
// (both overlay the built-in fallbacks), and asset lookups consult the variant
// file set before the base one.
func Config(sel *gotheme.Selection) (*gotheme.RendererConfig, error) {
	if sel == nil || sel.Manifest == nil {
		return nil, errors.New("theme: selection has no manifest")
	}
	manifest := sel.Manifest

	tokens := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}

	partials := Fallbacks()
	for name, path := range manifest.Templates {
		partials[name] = path
	}

	assetFiles := make(map[string]string, len(manifest.Assets.Files))
	for key, file := range manifest.Assets.Files {
		assetFiles[key] = file
	}
	prefix := manifest.Assets.Prefix

	if sel.Variant != "" {
		if variant, ok := manifest.Variants[sel.Variant]; ok {
			for key, value := range variant.Tokens {
				tokens[key] = value
			}
			for name, path := range variant.Templates {
				partials[name] = path
			}
			for key, file := range variant.Assets.Files {
				assetFiles[key] = file
			}
			if variant.Assets.Prefix != "" {
				prefix = variant.Assets.Prefix
			}
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for token, value := range tokens {
		cssVars[CSSVarName(token)] = value
	}

	return &gotheme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Tokens:   tokens,
		CSSVars:  cssVars,
		Partials: partials,
		AssetURL: func(key string) string {
			file, ok := assetFiles[key]
			if !ok {
				return ""
			}
			if prefix == "" {
				return file
			}
			return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(file, "/")
		},
	}, nil
}

// Resolver turns theme name + variant pairs into renderer configurations. The
// zero value is not usable; construct with NewResolver.
type Resolver struct {
	selector gotheme.ThemeSelector
	logger   *zap.Logger

	initialiseErr error
}

// ResolverOption customises resolver construction.
type ResolverOption func(*Resolver)

// WithSelector supplies an explicit theme selector, replacing the built-in
// registry.
func WithSelector(selector gotheme.ThemeSelector) ResolverOption {
	return func(r *Resolver) {
		if selector != nil {
			r.selector = selector
		}
	}
}

// WithManifests registers additional manifests alongside the default one.
func WithManifests(manifests ...*gotheme.Manifest) ResolverOption {
	return func(r *Resolver) {
		if len(manifests) == 0 {
			return
		}
		registry := gotheme.NewRegistry()
		if err := registry.Register(Default()); err != nil {
			r.initialiseErr = fmt.Errorf("theme: register default manifest: %w", err)
			return
		}
		for _, manifest := range manifests {
			if manifest == nil {
				continue
			}
			if err := registry.Register(manifest); err != nil {
				r.initialiseErr = fmt.Errorf("theme: register manifest %q: %w", manifest.Name, err)
				return
			}
		}
		r.selector = gotheme.Selector{Registry: registry}
	}
}

// WithResolverLogger routes variant fallback warnings through the provided
// logger.
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver builds a resolver backed by the default manifest registry unless
// options override it.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.selector == nil && r.initialiseErr == nil {
		registry := gotheme.NewRegistry()
		if err := registry.Register(Default()); err != nil {
			r.initialiseErr = fmt.Errorf("theme: register default manifest: %w", err)
		} else {
			r.selector = gotheme.Selector{Registry: registry}
		}
	}
	return r
}

// Resolve selects the named theme and flattens it for renderers. An empty name
// selects the default theme. An unknown variant is not an error: the resolver
// logs a warning and returns the base configuration instead.
func (r *Resolver) Resolve(name, variant string) (*gotheme.RendererConfig, error) {
	if r == nil {
		return nil, errors.New("theme: resolver is nil")
	}
	if r.initialiseErr != nil {
		return nil, r.initialiseErr
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultTheme
	}

	selection, err := r.selector.Select(name, variant)
	if err != nil && variant != "" {
		r.logger.Warn("theme variant unavailable, using base theme",
			zap.String("theme", name),
			zap.String("variant", variant),
			zap.Error(err))
		selection, err = r.selector.Select(name, "")
	}
	if err != nil {
		return nil, fmt.Errorf("theme: select %q: %w", name, err)
	}
	if selection == nil || selection.Manifest == nil {
		return nil, fmt.Errorf("theme: select %q: empty selection", name)
	}

	if selection.Variant != "" {
		if _, ok := selection.Manifest.Variants[selection.Variant]; !ok {
			r.logger.Warn("theme variant not declared by manifest, using base theme",
				zap.String("theme", selection.Theme),
				zap.String("variant", selection.Variant))
			base := *selection
			base.Variant = ""
			selection = &base
		}
	}

	return Config(selection)
}

var (
	defaultResolverOnce sync.Once
	defaultResolver     *Resolver
)

// Resolve uses a shared resolver over the default manifest. Most callers that
// need customisation should construct their own Resolver instead.
func Resolve(name, variant string) (*gotheme.RendererConfig, error) {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver.Resolve(name, variant)
}
