package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	cardgen "github.com/goliatone/go-cardgen"
	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/model"
	"github.com/goliatone/go-cardgen/pkg/sections"
)

func main() {
	source := flag.String("source", "examples/cards/release-health.json", "card document to snapshot")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	ctx := context.Background()

	loader := cardgen.NewLoader()
	doc, err := loader.Load(ctx, card.SourceFromFile(*source))
	if err != nil {
		fail("load document", err)
	}

	c, err := doc.Parse()
	if err != nil {
		fail("parse card", err)
	}

	resolved := sections.Normalize(c, sections.WithPrioritySort(true))
	m, err := model.Build(c, resolved)
	if err != nil {
		fail("build model", err)
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		fail("encode model", err)
	}
	raw = append(raw, '\n')

	if *output == "" {
		if _, err := os.Stdout.Write(raw); err != nil {
			fail("write output", err)
		}
		return
	}
	if err := os.WriteFile(*output, raw, 0o644); err != nil {
		fail("write output", err)
	}
	fmt.Printf("✓ Wrote card model snapshot → %s\n", *output)
}

func fail(action string, err error) {
	fmt.Fprintf(os.Stderr, "Failed to %s: %v\n", action, err)
	os.Exit(1)
}
