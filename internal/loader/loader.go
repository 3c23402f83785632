// Package loader implements the card.Loader contract with per-source
// strategies: disk files, fs.FS entries, remote URLs, and inline bytes.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/httpclient"
)

const defaultMaxDocumentBytes = 4 << 20 // 4 MiB

// Loader implements card.Loader by delegating to file, fs.FS, URL, or
// inline-bytes strategies.
type Loader struct {
	fs       fs.FS
	fetcher  card.Fetcher
	allowURL bool
	timeout  time.Duration
	maxBytes int64
}

var _ card.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options card.LoaderOptions) card.Loader {
	maxBytes := options.MaxDocumentBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxDocumentBytes
	}

	fetcher := options.Fetcher
	if fetcher == nil && options.AllowHTTPFallback {
		clientOpts := []httpclient.Option{
			httpclient.WithMaxFetchBytes(maxBytes),
		}
		if options.RequestTimeout > 0 {
			clientOpts = append(clientOpts, httpclient.WithTimeout(options.RequestTimeout))
		}
		fetcher = httpclient.New(clientOpts...)
	}

	return &Loader{
		fs:       options.FileSystem,
		fetcher:  fetcher,
		allowURL: fetcher != nil,
		timeout:  options.RequestTimeout,
		maxBytes: maxBytes,
	}
}

// Load fetches a document from the provided source and wraps it in a
// Document.
func (l *Loader) Load(ctx context.Context, src card.Source) (card.Document, error) {
	if src == nil {
		return card.Document{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case card.SourceKindFile:
		data, err = loadFile(ctx, src.Location(), l.maxBytes)
	case card.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location(), l.maxBytes)
	case card.SourceKindURL:
		if !l.allowURL {
			return card.Document{}, errors.New("loader: http support disabled")
		}
		data, err = loadURL(ctx, l.fetcher, src.Location(), l.timeout)
	case card.SourceKindBytes:
		data, err = loadInline(ctx, src)
	default:
		err = fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return card.Document{}, err
	}
	if int64(len(data)) > l.maxBytes {
		return card.Document{}, fmt.Errorf("loader: %s exceeds %d byte limit", src.Location(), l.maxBytes)
	}

	return card.NewDocument(src, data)
}

func loadInline(ctx context.Context, src card.Source) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	payload, ok := src.(card.PayloadSource)
	if !ok {
		return nil, fmt.Errorf("loader: bytes source %s carries no payload", src.Location())
	}
	data := payload.Payload()
	if len(data) == 0 {
		return nil, fmt.Errorf("loader: bytes source %s is empty", src.Location())
	}
	return data, nil
}
