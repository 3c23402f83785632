package card

import (
	"context"
	"io/fs"
	"time"
)

// Loader fetches card documents from different sources (filesystem, fs.FS,
// HTTP, raw bytes). Implementations live under internal/loader but satisfy
// this contract.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// Fetcher retrieves the body behind a URL. The resilient client in
// pkg/httpclient satisfies it; tests can drop in a map-backed fake.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// LoaderOptions configures how a Loader resolves sources. Remote fetching
// stays off unless a Fetcher is injected or the fallback is enabled, so the
// default posture is offline-first.
type LoaderOptions struct {
	// FileSystem enables loading from an abstract filesystem; defaults to
	// the operating system if nil.
	FileSystem fs.FS

	// Fetcher resolves URL sources. Nil means URL sources are rejected
	// unless AllowHTTPFallback is true.
	Fetcher Fetcher

	// AllowHTTPFallback builds a default resilient client when no Fetcher
	// is supplied.
	AllowHTTPFallback bool

	// RequestTimeout caps remote fetch durations for the fallback client.
	RequestTimeout time.Duration

	// MaxDocumentBytes rejects documents larger than this many bytes.
	// Zero applies the 4 MiB default.
	MaxDocumentBytes int64
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS implementation for relative paths.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithFetcher injects the client used for URL sources.
func WithFetcher(fetcher Fetcher) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.Fetcher = fetcher
	}
}

// WithHTTPFallback enables URL loading through a default resilient client
// and assigns an optional timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// WithMaxDocumentBytes bounds how large a loadable document may be.
func WithMaxDocumentBytes(n int64) LoaderOption {
	return func(opts *LoaderOptions) {
		if n > 0 {
			opts.MaxDocumentBytes = n
		}
	}
}

// NewLoaderOptions applies a set of LoaderOption values and returns the
// resulting configuration.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}
