package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cardgen/pkg/sections"
)

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one validation finding with a dotted document path, for example
// "sections.2.chart.series.0.values".
type Issue struct {
	Path     string
	Message  string
	Severity string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// Result aggregates the findings for one document.
type Result struct {
	Issues []Issue
}

// Valid reports whether the document carries no error-severity issues.
// Warnings do not fail validation.
func (r Result) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the error-severity issues.
func (r Result) Errors() []Issue {
	return r.bySeverity(SeverityError)
}

// Warnings returns the warning-severity issues.
func (r Result) Warnings() []Issue {
	return r.bySeverity(SeverityWarning)
}

func (r Result) bySeverity(severity string) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

type validateConfig struct {
	registry *sections.Registry
}

// Option adjusts validation behaviour.
type Option func(*validateConfig)

// WithSectionRegistry swaps the registry consulted for designation warnings.
func WithSectionRegistry(reg *sections.Registry) Option {
	return func(cfg *validateConfig) {
		if reg != nil {
			cfg.registry = reg
		}
	}
}

// Validate checks a raw JSON or YAML card document against the card schema.
// The returned error is reserved for undecodable input; a decodable document
// always yields a Result, however broken.
func Validate(raw []byte, opts ...Option) (Result, error) {
	cfg := validateConfig{registry: sections.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	value, err := decode(raw)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := MustSchema().VisitJSON(value, openapi3.MultiErrors()); err != nil {
		result.Issues = append(result.Issues, issuesFromSchemaError(err)...)
	}
	result.Issues = append(result.Issues, designationWarnings(value, cfg.registry)...)
	return result, nil
}

func decode(raw []byte) (any, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("schema: empty document")
	}

	var value any
	if err := json.Unmarshal(raw, &value); err == nil {
		return value, nil
	}
	if err := yaml.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("schema: decode document: %w", err)
	}
	// Route YAML through JSON so numbers and maps take the shapes VisitJSON
	// expects.
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("schema: convert document: %w", err)
	}
	if err := json.Unmarshal(encoded, &value); err != nil {
		return nil, fmt.Errorf("schema: convert document: %w", err)
	}
	return value, nil
}

func issuesFromSchemaError(err error) []Issue {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []Issue
		seen := make(map[string]struct{})
		for _, entry := range multi {
			for _, issue := range issuesFromSchemaError(entry) {
				key := issue.Path + "\x00" + issue.Message
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, issue)
			}
		}
		return out
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return []Issue{{
			Path:     dottedPath(schemaErr.JSONPointer()),
			Message:  schemaErr.Reason,
			Severity: SeverityError,
		}}
	}
	return []Issue{{
		Path:     "document",
		Message:  err.Error(),
		Severity: SeverityError,
	}}
}

func dottedPath(pointer []string) string {
	if len(pointer) == 0 {
		return "document"
	}
	return strings.Join(pointer, ".")
}

// designationWarnings flags section types the registry would resolve through
// its fallback. The pipeline still renders them; authors usually want to
// know.
func designationWarnings(value any, reg *sections.Registry) []Issue {
	root, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := root["sections"].([]any)
	if !ok {
		return nil
	}

	var out []Issue
	for i, entry := range list {
		section, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		designation, _ := section["type"].(string)
		if designation == "" {
			continue
		}
		if !reg.Has(designation) {
			out = append(out, Issue{
				Path:     fmt.Sprintf("sections.%d.type", i),
				Message:  fmt.Sprintf("unknown section type %q, will render as %q", designation, sections.Fallback),
				Severity: SeverityWarning,
			})
		}
	}
	return out
}
