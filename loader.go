package cardgen

import (
	internalLoader "github.com/goliatone/go-cardgen/internal/loader"
	"github.com/goliatone/go-cardgen/pkg/card"
)

// NewLoader constructs a document loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...card.LoaderOption) card.Loader {
	cfg := card.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}
