// Package theme resolves palette and variant manifests into the renderer
// configuration carried by render options. Manifests follow go-theme's
// schema: flat token maps, per-variant overrides, template override slots,
// and asset files behind a URL prefix.
package theme

import (
	"strings"

	gotheme "github.com/goliatone/go-theme"
)

// DefaultTheme names the built-in card manifest.
const DefaultTheme = "card"

// Default returns the built-in card manifest. Token names are dotted; CSS
// custom properties derive from them with dots replaced by dashes, so
// "color.surface" becomes "--color-surface". Palette accents cover every
// palette name the section registry assigns.
func Default() *gotheme.Manifest {
	return &gotheme.Manifest{
		Name:    DefaultTheme,
		Version: "1.0.0",
		Tokens: map[string]string{
			"color.surface":       "#ffffff",
			"color.surface-muted": "#f8fafc",
			"color.ink":           "#0f172a",
			"color.ink-muted":     "#64748b",
			"color.border":        "#e2e8f0",
			"color.accent":        "#0ea5e9",
			"color.positive":      "#16a34a",
			"color.negative":      "#dc2626",
			"color.warning":       "#d97706",
			"font.family":         `system-ui, -apple-system, "Segoe UI", sans-serif`,
			"font.size":           "15px",
			"font.size-title":     "20px",
			"radius.card":         "12px",
			"radius.chip":         "999px",
			"shadow.card":         "0 1px 3px rgba(15, 23, 42, 0.12)",
			"space.card":          "20px",
			"space.section":       "16px",

			"palette.slate":   "#64748b",
			"palette.violet":  "#8b5cf6",
			"palette.emerald": "#10b981",
			"palette.sky":     "#0ea5e9",
			"palette.amber":   "#f59e0b",
			"palette.indigo":  "#6366f1",
			"palette.cyan":    "#06b6d4",
			"palette.fuchsia": "#d946ef",
			"palette.rose":    "#f43f5e",
			"palette.orange":  "#f97316",
			"palette.lime":    "#84cc16",
			"palette.teal":    "#14b8a6",
		},
		Variants: map[string]gotheme.Variant{
			"dark": {
				Tokens: map[string]string{
					"color.surface":       "#0f172a",
					"color.surface-muted": "#1e293b",
					"color.ink":           "#e2e8f0",
					"color.ink-muted":     "#94a3b8",
					"color.border":        "#334155",
					"shadow.card":         "0 1px 3px rgba(2, 6, 23, 0.6)",
				},
			},
		},
	}
}

// PaletteToken returns the manifest token key for a section palette name.
func PaletteToken(palette string) string {
	return "palette." + palette
}

// CSSVarName converts a dotted token name into its CSS custom property
// form.
func CSSVarName(token string) string {
	return "--" + strings.ReplaceAll(token, ".", "-")
}
