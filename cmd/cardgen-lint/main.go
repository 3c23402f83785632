package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/schema"
)

type violation struct {
	file     string
	location string
	message  string
	severity string
}

func main() {
	strict := flag.Bool("strict", false, "exit nonzero on warnings as well as errors")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-strict] [paths...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "\nLint card documents for schema errors and layout smells.\n")
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"examples/cards"}
	}

	files, err := collectFiles(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lint: %v\n", err)
		os.Exit(1)
	}

	var violations []violation
	for _, path := range files {
		linted, err := lintFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})

	var errorCount, warningCount int
	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		if v.severity == schema.SeverityError {
			errorCount++
		} else {
			warningCount++
		}
	}

	fmt.Printf("%d file(s), %d error(s), %d warning(s)\n", len(files), errorCount, warningCount)

	if errorCount > 0 || (*strict && warningCount > 0) {
		os.Exit(1)
	}
}

func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(entry)) {
			case ".json", ".yaml", ".yml":
				files = append(files, entry)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func lintFile(path string) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	result, err := schema.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	var out []violation
	for _, issue := range result.Issues {
		location := issue.Path
		if location == "" {
			location = "card"
		}
		out = append(out, violation{
			file:     path,
			location: location,
			message:  issue.Message,
			severity: issue.Severity,
		})
	}

	doc, err := card.ParseCard(raw)
	if err != nil {
		// The schema findings above already explain structural failures; a
		// card that does not parse gets no layout checks.
		return out, nil
	}
	out = append(out, lintLayout(path, doc)...)
	return out, nil
}

// lintLayout covers the smells the schema cannot express: duplicate section
// ids and data sections published without a title.
func lintLayout(file string, doc *card.Card) []violation {
	var out []violation

	seen := map[string]int{}
	for i, section := range doc.Sections {
		location := fmt.Sprintf("sections.%d", i)
		if section.ID != "" {
			if first, ok := seen[section.ID]; ok {
				out = append(out, violation{
					file:     file,
					location: location,
					message:  fmt.Sprintf("duplicate section id %q (first used by sections.%d)", section.ID, first),
					severity: schema.SeverityWarning,
				})
			} else {
				seen[section.ID] = i
			}
		}
		if strings.TrimSpace(section.Title) == "" && carriesData(section) {
			out = append(out, violation{
				file:     file,
				location: location,
				message:  fmt.Sprintf("%s section has no title", section.Type),
				severity: schema.SeverityWarning,
			})
		}
	}
	return out
}

func carriesData(s card.Section) bool {
	return len(s.Fields) > 0 || len(s.Items) > 0 || s.Chart != nil || s.Table != nil
}
