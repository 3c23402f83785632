package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-cardgen/pkg/card"
)

type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return data, nil
}

const sampleCard = `{"id":"c1","title":"Acme","sections":[]}`

func TestLoader_FileStrategy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "acme.json")
	if err := os.WriteFile(path, []byte(sampleCard), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	l := New(card.NewLoaderOptions())
	doc, err := l.Load(context.Background(), card.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(doc.Raw(), []byte(sampleCard)) {
		t.Fatalf("unexpected payload %s", doc.Raw())
	}
}

func TestLoader_FSStrategy(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"cards/acme.json": &fstest.MapFile{Data: []byte(sampleCard)},
	}
	l := New(card.NewLoaderOptions(card.WithFileSystem(files)))

	doc, err := l.Load(context.Background(), card.SourceFromFS("cards/acme.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Location() != "cards/acme.json" {
		t.Fatalf("location = %q", doc.Location())
	}
}

func TestLoader_FSStrategyRequiresFS(t *testing.T) {
	t.Parallel()

	l := New(card.NewLoaderOptions())
	if _, err := l.Load(context.Background(), card.SourceFromFS("cards/acme.json")); err == nil {
		t.Fatal("expected error without a filesystem")
	}
}

func TestLoader_URLStrategy(t *testing.T) {
	t.Parallel()

	fetcher := fakeFetcher{"https://cards.test/acme.json": []byte(sampleCard)}
	l := New(card.NewLoaderOptions(card.WithFetcher(fetcher)))

	doc, err := l.Load(context.Background(), card.SourceFromURL("https://cards.test/acme.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c, err := doc.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Title != "Acme" {
		t.Fatalf("title = %q", c.Title)
	}
}

func TestLoader_URLStrategyDisabledByDefault(t *testing.T) {
	t.Parallel()

	l := New(card.NewLoaderOptions())
	_, err := l.Load(context.Background(), card.SourceFromURL("https://cards.test/acme.json"))
	if err == nil {
		t.Fatal("expected http support disabled error")
	}
	if !strings.Contains(err.Error(), "http support disabled") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoader_BytesStrategy(t *testing.T) {
	t.Parallel()

	l := New(card.NewLoaderOptions())
	doc, err := l.Load(context.Background(), card.SourceFromBytes("fixture", []byte(sampleCard)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Location() != "fixture" {
		t.Fatalf("location = %q", doc.Location())
	}
}

func TestLoader_RejectsOversizedDocuments(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 128)
	l := New(card.NewLoaderOptions(card.WithMaxDocumentBytes(64)))
	_, err := l.Load(context.Background(), card.SourceFromBytes("big", []byte(big)))
	if err == nil {
		t.Fatal("expected size limit error")
	}
	if !strings.Contains(err.Error(), "byte limit") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoader_NilSource(t *testing.T) {
	t.Parallel()

	l := New(card.NewLoaderOptions())
	if _, err := l.Load(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(card.NewLoaderOptions())
	if _, err := l.Load(ctx, card.SourceFromBytes("fixture", []byte(sampleCard))); err == nil {
		t.Fatal("expected context error")
	}
}
