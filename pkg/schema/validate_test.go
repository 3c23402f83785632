package schema

import (
	"strings"
	"testing"
)

func findIssue(t *testing.T, issues []Issue, pathPart, messagePart string) Issue {
	t.Helper()
	for _, issue := range issues {
		if strings.Contains(issue.Path, pathPart) && strings.Contains(issue.Message, messagePart) {
			return issue
		}
	}
	t.Fatalf("no issue matching path~%q message~%q in %v", pathPart, messagePart, issues)
	return Issue{}
}

func TestValidate_CleanDocument(t *testing.T) {
	raw := []byte(`{
		"title": "Acme Corp",
		"type": "dashboard",
		"sections": [
			{"type": "analytics", "fields": [{"label": "Revenue", "value": "1.2M", "trend": "up"}]},
			{"type": "chart", "chart": {"kind": "bar", "series": [{"name": "Sales", "values": [1, 2]}]}}
		]
	}`)

	result, err := Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.Valid() {
		t.Fatalf("clean document flagged: %v", result.Issues)
	}
	if len(result.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings())
	}
}

func TestValidate_StructuralErrors(t *testing.T) {
	cases := []struct {
		name        string
		raw         string
		pathPart    string
		messagePart string
	}{
		{
			name:     "missing title",
			raw:      `{"sections": []}`,
			pathPart: "document",
		},
		{
			name:     "bad trend enum",
			raw:      `{"title": "A", "sections": [{"type": "analytics", "fields": [{"label": "x", "trend": "sideways"}]}]}`,
			pathPart: "sections.0.fields.0.trend",
		},
		{
			name:     "bad chart kind",
			raw:      `{"title": "A", "sections": [{"type": "chart", "chart": {"kind": "sparkle", "series": [{"values": [1]}]}}]}`,
			pathPart: "sections.0.chart.kind",
		},
		{
			name:     "marker latitude out of range",
			raw:      `{"title": "A", "sections": [{"type": "map", "map": {"markers": [{"lat": 120, "lng": 0}]}}]}`,
			pathPart: "sections.0.map.markers.0.lat",
		},
		{
			name:     "section without type",
			raw:      `{"title": "A", "sections": [{"text": "hello"}]}`,
			pathPart: "sections.0",
		},
		{
			name:     "non-object root",
			raw:      `[1, 2, 3]`,
			pathPart: "document",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result, err := Validate([]byte(tc.raw))
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if result.Valid() {
				t.Fatalf("expected errors, got none (issues: %v)", result.Issues)
			}
			findIssue(t, result.Errors(), tc.pathPart, tc.messagePart)
		})
	}
}

func TestValidate_UnknownDesignationIsWarningOnly(t *testing.T) {
	raw := []byte(`{"title": "A", "sections": [{"type": "quantum-flux", "text": "?"}]}`)

	result, err := Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.Valid() {
		t.Fatalf("unknown designation must not fail validation: %v", result.Errors())
	}

	warning := findIssue(t, result.Warnings(), "sections.0.type", "quantum-flux")
	if !strings.Contains(warning.Message, `"info"`) {
		t.Fatalf("warning should name the fallback: %q", warning.Message)
	}
}

func TestValidate_AliasesDoNotWarn(t *testing.T) {
	raw := []byte(`{"title": "A", "sections": [{"type": "stats"}, {"type": "Market Analysis"}]}`)

	result, err := Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(result.Warnings()) != 0 {
		t.Fatalf("aliases must resolve without warnings: %v", result.Warnings())
	}
}

func TestValidate_YAMLInput(t *testing.T) {
	raw := []byte("title: Acme\nsections:\n  - type: analytics\n    fields:\n      - label: Users\n        value: \"42\"\n")

	result, err := Validate(raw)
	if err != nil {
		t.Fatalf("validate yaml: %v", err)
	}
	if !result.Valid() {
		t.Fatalf("yaml document flagged: %v", result.Issues)
	}
}

func TestValidate_UndecodableInput(t *testing.T) {
	if _, err := Validate([]byte("  ")); err == nil {
		t.Fatal("empty input should error")
	}
	if _, err := Validate([]byte("{broken: [")); err == nil {
		t.Fatal("undecodable input should error")
	}
}

func TestIssue_String(t *testing.T) {
	issue := Issue{Path: "sections.0.type", Message: "boom", Severity: SeverityError}
	want := "error: sections.0.type: boom"
	if got := issue.String(); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}
