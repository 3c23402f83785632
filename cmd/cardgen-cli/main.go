package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	cardgen "github.com/goliatone/go-cardgen"
	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/compose"
	"github.com/goliatone/go-cardgen/pkg/orchestrator"
	"github.com/goliatone/go-cardgen/pkg/schema"
)

func main() {
	source := flag.String("source", "", "card document path or URL")
	renderer := flag.String("renderer", "html", "renderer to use (html, text)")
	variant := flag.String("variant", "", "theme variant, for example dark")
	output := flag.String("output", "", "output file (stdout if empty)")
	validate := flag.Bool("validate", false, "report validation issues instead of rendering")
	composeCard := flag.Bool("compose", false, "build a card interactively and emit JSON")
	watch := flag.Bool("watch", false, "re-render whenever the source file changes")
	pretty := flag.Bool("pretty", false, "indent JSON emitted by -compose")
	flag.Parse()

	ctx := context.Background()

	if *composeCard {
		runCompose(ctx, *output, *pretty)
		return
	}

	src := parseSource(*source)
	if src == nil {
		log.Fatalf("invalid source: %q", *source)
	}

	if *validate {
		runValidate(ctx, src)
		return
	}

	if *watch {
		runWatch(ctx, *source, *renderer, *variant, *output)
		return
	}

	if err := renderOnce(ctx, src, *renderer, *variant, *output); err != nil {
		log.Fatalf("Failed to generate card: %v", err)
	}
}

func parseSource(raw string) card.Source {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return card.SourceFromURL(path)
	}
	return card.SourceFromFile(path)
}

func renderOnce(ctx context.Context, src card.Source, renderer, variant, output string) error {
	gen := orchestrator.New()
	defer gen.Close()

	result, err := gen.Generate(ctx, orchestrator.Request{
		Source:       src,
		Renderer:     renderer,
		ThemeVariant: variant,
	})
	if err != nil {
		return err
	}
	return writeOutput(output, result.Output)
}

func runValidate(ctx context.Context, src card.Source) {
	loader := cardgen.NewLoader(card.WithHTTPFallback(0))
	doc, err := loader.Load(ctx, src)
	if err != nil {
		log.Fatalf("Failed to load document: %v", err)
	}

	result, err := schema.Validate(doc.Raw())
	if err != nil {
		log.Fatalf("Failed to validate document: %v", err)
	}

	for _, issue := range result.Issues {
		fmt.Println(issue.String())
	}
	if errs := result.Errors(); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "%d error(s), %d warning(s)\n", len(errs), len(result.Warnings()))
		os.Exit(1)
	}
	fmt.Printf("OK: %d warning(s)\n", len(result.Warnings()))
}

func runCompose(ctx context.Context, output string, pretty bool) {
	doc, err := compose.New().Run(ctx)
	if err != nil {
		if errors.Is(err, compose.ErrDiscarded) {
			fmt.Fprintln(os.Stderr, "Card discarded.")
			return
		}
		if errors.Is(err, compose.ErrAborted) {
			fmt.Fprintln(os.Stderr, "Composer aborted.")
			os.Exit(1)
		}
		log.Fatalf("Failed to compose card: %v", err)
	}

	var raw []byte
	if pretty {
		raw, err = json.MarshalIndent(doc, "", "  ")
	} else {
		raw, err = json.Marshal(doc)
	}
	if err != nil {
		log.Fatalf("Failed to encode card: %v", err)
	}
	if err := writeOutput(output, raw); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

func runWatch(ctx context.Context, sourcePath, renderer, variant, output string) {
	if strings.HasPrefix(sourcePath, "http://") || strings.HasPrefix(sourcePath, "https://") {
		log.Fatalf("-watch requires a local file source")
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", sourcePath, err)
	}

	render := func() {
		if err := renderOnce(ctx, card.SourceFromFile(abs), renderer, variant, output); err != nil {
			fmt.Fprintf(os.Stderr, "render %s: %v\n", sourcePath, err)
		}
	}
	render()

	// Editors replace files on save, so watch the directory and filter by
	// name instead of watching the file inode.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		log.Fatalf("Failed to watch %s: %v", filepath.Dir(abs), err)
	}

	fmt.Fprintf(os.Stderr, "Watching %s for changes...\n", sourcePath)

	const debounce = 250 * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			render()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Card written to %s\n", path)
	return nil
}
