package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-cardgen/pkg/schema"
)

// RenderOptions describe per-request data that renderers can use to
// customise their output without mutating the card model pipeline.
type RenderOptions struct {
	// Variant selects a theme variant (for example "dark"). Empty means
	// the theme's base tokens.
	Variant string
	// Theme carries resolved design tokens, partial overrides, and the
	// asset resolver. Nil renders with built-in defaults.
	Theme *theme.RendererConfig
	// Locale is passed to the Translator for `*Key` metadata hints.
	Locale string
	// Translator resolves translation keys; nil leaves fallbacks in place.
	Translator Translator
	// OnMissing controls the string rendered when a translation is
	// missing.
	OnMissing MissingTranslationHandler
	// Subset restricts rendering to matching sections. Empty renders all.
	Subset SectionSubset
	// Issues carries validation findings so renderers can annotate the
	// affected sections instead of failing.
	Issues []schema.Issue
	// Meta is emitted into the document head by renderers that have one.
	Meta []MetaTag
	// Values overrides section text placeholders by dotted path. Renderers
	// may ignore it.
	Values map[string]string
	// Fragment asks HTML-producing renderers for an embeddable fragment
	// instead of a standalone document.
	Fragment bool
}
