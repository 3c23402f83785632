// Package cardgen renders structured card documents to HTML and text. The
// root package re-exports the orchestrator entry points so the common flows
// are one call; the pkg tree holds the pipeline pieces for callers that need
// more control.
package cardgen

import (
	"context"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/orchestrator"
	"github.com/goliatone/go-cardgen/pkg/render"
)

// Request selects the document, renderer, and theme for one generation pass.
type Request = orchestrator.Request

// Result carries rendered output alongside the card model and validation
// findings that produced it.
type Result = orchestrator.Result

// ValidationError reports schema errors under strict validation.
type ValidationError = orchestrator.ValidationError

// RenderOptions describes per-request render instructions such as section
// subsets, locale overrides, or extra meta tags.
type RenderOptions = render.RenderOptions

// SectionSubset aliases render.SectionSubset for callers configuring partial
// rendering by designation or section id.
type SectionSubset = render.SectionSubset

// New exposes the orchestrator constructor from the top-level module.
func New(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// RenderHTML loads the card source, runs the pipeline, and returns the HTML
// document. It is the simplest entry point for callers that just want markup.
func RenderHTML(ctx context.Context, source card.Source, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	defer gen.Close()
	result, err := gen.Generate(ctx, orchestrator.Request{
		Source:   source,
		Renderer: "html",
	})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// RenderText renders the card as plain text, handy for terminals and logs.
func RenderText(ctx context.Context, source card.Source, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	defer gen.Close()
	result, err := gen.Generate(ctx, orchestrator.Request{
		Source:   source,
		Renderer: "text",
	})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// RenderDocument renders a pre-loaded document, bypassing the loader stage
// while still delegating to the orchestrator.
func RenderDocument(ctx context.Context, doc card.Document, rendererName string, options ...orchestrator.Option) (Result, error) {
	gen := orchestrator.New(options...)
	defer gen.Close()
	return gen.Generate(ctx, orchestrator.Request{
		Document: &doc,
		Renderer: rendererName,
	})
}

// WithTheme forwards the default theme name and variant to the orchestrator.
func WithTheme(name, variant string) orchestrator.Option {
	return orchestrator.WithTheme(name, variant)
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithStrictValidation makes schema errors fail generation instead of being
// annotated into the rendered output.
func WithStrictValidation(strict bool) orchestrator.Option {
	return orchestrator.WithStrictValidation(strict)
}

// WithLogger wires a zap logger through the pipeline stages.
func WithLogger(logger *zap.Logger) orchestrator.Option {
	return orchestrator.WithLogger(logger)
}
