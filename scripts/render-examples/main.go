package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cardgen "github.com/goliatone/go-cardgen"
	"github.com/goliatone/go-cardgen/pkg/card"
)

func main() {
	input := flag.String("input", "examples/cards", "directory of card documents")
	output := flag.String("output", "examples/preview", "directory for rendered HTML")
	flag.Parse()

	ctx := context.Background()

	entries, err := os.ReadDir(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *input, err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*output, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *output, err)
		os.Exit(1)
	}

	rendered := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		src := filepath.Join(*input, entry.Name())
		html, err := cardgen.RenderHTML(ctx, card.SourceFromFile(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render %s: %v\n", src, err)
			os.Exit(1)
		}
		dst := filepath.Join(*output, strings.TrimSuffix(entry.Name(), ".json")+".html")
		if err := os.WriteFile(dst, html, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", dst, err)
			os.Exit(1)
		}
		fmt.Printf("✓ Rendered %s (%d bytes) → %s\n", src, len(html), dst)
		rendered++
	}
	fmt.Printf("%d card(s) rendered\n", rendered)
}
