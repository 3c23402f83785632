package html

import (
	stdhtml "html"
	"sort"
	"strings"
	"time"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/model"
	"github.com/goliatone/go-cardgen/pkg/render"
	"github.com/goliatone/go-cardgen/pkg/renderers/html/components"
)

func cardContext(m model.CardModel) map[string]any {
	ctx := map[string]any{
		"id":       m.ID,
		"title":    m.Title,
		"subtitle": m.Subtitle,
		"type":     m.Type,
		"palette":  m.Palette,
		"columns":  m.Columns,
		"updated":  "",
	}
	if !m.UpdatedAt.IsZero() {
		ctx["updated"] = m.UpdatedAt.Format("Jan 2, 2006")
		ctx["updated_at"] = m.UpdatedAt.Format(time.RFC3339)
	}
	return ctx
}

func sectionContext(section model.SectionModel, palette, accent string, annotations []string, body string) map[string]any {
	span := section.Span
	if span < 1 {
		span = 1
	}
	return map[string]any{
		"id":          section.ID,
		"component":   section.Component,
		"raw":         section.Raw,
		"fallback":    section.Fallback,
		"title":       section.Title,
		"palette":     palette,
		"accent":      accent,
		"span":        span,
		"collapsed":   section.Collapsed,
		"annotations": annotations,
		"body":        body,
	}
}

func actionContexts(actions []card.Action) []map[string]any {
	out := make([]map[string]any, 0, len(actions))
	for _, action := range actions {
		out = append(out, map[string]any{
			"id":      action.ID,
			"label":   action.Label,
			"href":    components.SafeURL(action.Href),
			"icon":    iconMarkup(action.Icon),
			"style":   actionStyle(action.Style),
			"confirm": action.Confirm,
		})
	}
	return out
}

func metaTagContexts(tags []render.MetaTag) []map[string]any {
	out := make([]map[string]any, 0, len(tags))
	for _, tag := range tags {
		out = append(out, map[string]any{
			"name":    tag.Name,
			"content": tag.Content,
		})
	}
	return out
}

// cssVarList flattens the theme's CSS custom properties into a
// deterministically ordered list for the styles partial.
func cssVarList(cfg *gotheme.RendererConfig) []map[string]any {
	if cfg == nil || len(cfg.CSSVars) == 0 {
		return nil
	}
	names := make([]string, 0, len(cfg.CSSVars))
	for name := range cfg.CSSVars {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		out = append(out, map[string]any{
			"name":  name,
			"value": cfg.CSSVars[name],
		})
	}
	return out
}

// scriptTags serializes component script dependencies into tag markup. Inline
// bodies are emitted verbatim, they are component-author code, not document
// data.
func scriptTags(scripts []components.Script) []string {
	tags := make([]string, 0, len(scripts))
	for _, script := range scripts {
		var sb strings.Builder
		sb.WriteString("<script")

		scriptType := script.Type
		if scriptType == "" && script.Module {
			scriptType = "module"
		}
		if scriptType != "" {
			sb.WriteString(` type="` + stdhtml.EscapeString(scriptType) + `"`)
		}
		if src := components.SafeURL(script.Src); src != "" {
			sb.WriteString(` src="` + stdhtml.EscapeString(src) + `"`)
		}
		if script.Async {
			sb.WriteString(" async")
		}
		if script.Defer {
			sb.WriteString(" defer")
		}
		if len(script.Attrs) > 0 {
			keys := make([]string, 0, len(script.Attrs))
			for key := range script.Attrs {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				sb.WriteString(" " + key + `="` + stdhtml.EscapeString(script.Attrs[key]) + `"`)
			}
		}
		sb.WriteString(">")
		sb.WriteString(script.Inline)
		sb.WriteString("</script>")
		tags = append(tags, sb.String())
	}
	return tags
}

func language(m model.CardModel) string {
	if lang := strings.TrimSpace(m.Meta["lang"]); lang != "" {
		return lang
	}
	return "en"
}

func iconMarkup(raw string) string {
	sanitized := card.SanitizeIcon(raw)
	if !strings.HasPrefix(sanitized, "<svg") {
		return ""
	}
	return sanitized
}

func actionStyle(style string) string {
	switch strings.TrimSpace(style) {
	case card.StylePrimary:
		return card.StylePrimary
	case card.StyleSecondary:
		return card.StyleSecondary
	case card.StyleDanger:
		return card.StyleDanger
	}
	return card.StylePlain
}

// gridColumns keeps the repeat() expression sane for hand-built models.
func gridColumns(columns int) int {
	if columns < 1 {
		return 1
	}
	return columns
}
