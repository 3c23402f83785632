package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-cardgen/pkg/card"
)

// Transformer mutates a parsed card before sections are normalized.
// Implementations can rename sections, inject metadata, or perform arbitrary
// rewrites.
type Transformer interface {
	Transform(ctx context.Context, c *card.Card) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, c *card.Card) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, c *card.Card) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, c)
}

// JSONPresetTransformer applies declarative overrides loaded from a JSON
// file. The document shape supports card-level fields and per-section
// patches keyed by section ID:
//
//	{
//	  "title": "Quarterly Review",
//	  "metadata": {"palette": "indigo"},
//	  "sections": {
//	    "sec-revenue": {"title": "Revenue", "type": "financials"}
//	  }
//	}
type JSONPresetTransformer struct {
	document jsonTransformDocument
}

type jsonTransformDocument struct {
	Title    string                      `json:"title"`
	Subtitle string                      `json:"subtitle"`
	Metadata map[string]string           `json:"metadata"`
	Sections map[string]jsonSectionPatch `json:"sections"`
}

type jsonSectionPatch struct {
	Title    string            `json:"title"`
	Type     string            `json:"type"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*JSONPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("json preset transformer: document is empty")
	}
	var document jsonTransformDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("json preset transformer: parse document: %w", err)
	}
	return &JSONPresetTransformer{document: document}, nil
}

// NewJSONPresetTransformerFromFS loads a JSON transformer document from the
// provided filesystem path.
func NewJSONPresetTransformerFromFS(fsys fs.FS, path string) (*JSONPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("json preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("json preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("json preset transformer: read %s: %w", path, err)
	}
	return NewJSONPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied card.
func (t *JSONPresetTransformer) Transform(ctx context.Context, c *card.Card) error {
	if c == nil {
		return errors.New("json preset transformer: card is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.document.Title != "" {
		c.Title = t.document.Title
	}
	if t.document.Subtitle != "" {
		c.Subtitle = t.document.Subtitle
	}
	if len(t.document.Metadata) > 0 {
		c.Metadata = mergeStringMap(c.Metadata, t.document.Metadata)
	}

	for id, patch := range t.document.Sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		section := findSectionByID(c, id)
		if section == nil {
			return fmt.Errorf("json preset transformer: section %q not found", id)
		}
		applySectionPatch(section, patch)
	}
	return nil
}

func applySectionPatch(section *card.Section, patch jsonSectionPatch) {
	if section == nil {
		return
	}
	if patch.Title != "" {
		section.Title = patch.Title
	}
	if patch.Type != "" {
		section.Type = patch.Type
	}
	if patch.Text != "" {
		section.Text = patch.Text
	}
	if len(patch.Metadata) > 0 {
		section.Metadata = mergeStringMap(section.Metadata, patch.Metadata)
	}
}

func findSectionByID(c *card.Card, id string) *card.Section {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	for idx := range c.Sections {
		if c.Sections[idx].ID == id {
			return &c.Sections[idx]
		}
	}
	return nil
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
