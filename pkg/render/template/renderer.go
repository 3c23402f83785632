package template

import (
	"io"
)

// TemplateRenderer is the seam between card renderers and the template engine.
// Render resolves names to files when they look like paths and falls back to
// inline parsing when the argument contains template markup.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
