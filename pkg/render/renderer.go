package render

import (
	"context"

	"github.com/goliatone/go-cardgen/pkg/model"
)

// Renderer converts a CardModel into a byte representation (HTML, plain
// text, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, card model.CardModel, options RenderOptions) ([]byte, error)
}
