package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-cardgen/pkg/card"
)

func loadURL(ctx context.Context, fetcher card.Fetcher, url string, timeout time.Duration) ([]byte, error) {
	if fetcher == nil {
		return nil, errors.New("loader: fetcher is not configured")
	}
	if url == "" {
		return nil, errors.New("loader: url is required")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	data, err := fetcher.Fetch(reqCtx, url)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %s: %w", url, err)
	}
	return data, nil
}
