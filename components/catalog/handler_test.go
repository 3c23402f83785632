package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-cardgen/pkg/sections"
)

type handlerResponse struct {
	Data []Entry `json:"data"`
}

func testRegistry(t *testing.T) *sections.Registry {
	t.Helper()
	r := sections.NewRegistry()
	r.MustRegister(sections.Definition{Type: "analytics", Aliases: []string{"stats", "metrics"}, Span: 1, Priority: 10, Palette: "violet", Icon: "chart-bar", Description: "Key figure grid"})
	r.MustRegister(sections.Definition{Type: "chart", Span: 2, Priority: 20, Description: "Series visualization"})
	r.MustRegister(sections.Definition{Type: "checklist", Aliases: []string{"todo"}, Span: 1, Priority: 30, Description: "Task list"})
	return r
}

func TestNewHandler_EmptyQueryReturnsFullCatalog(t *testing.T) {
	h := NewHandler(WithRegistry(testRegistry(t)))

	req := httptest.NewRequest(http.MethodGet, "/api/sections", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	if ct := strings.TrimSpace(res.Header.Get("Content-Type")); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}

	var payload handlerResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Data) != 3 {
		t.Fatalf("expected 3 entries, got %d: %#v", len(payload.Data), payload.Data)
	}
	first := payload.Data[0]
	if first.Type != "analytics" || first.Span != 1 || first.Priority != 10 {
		t.Fatalf("unexpected first entry: %#v", first)
	}
	if len(first.Aliases) != 2 || first.Aliases[0] != "stats" {
		t.Fatalf("expected aliases carried over, got %#v", first.Aliases)
	}
	if payload.Data[1].Type != "chart" || payload.Data[2].Type != "checklist" {
		t.Fatalf("expected priority order, got %#v", payload.Data)
	}
}

func TestNewHandler_SearchRanksTypePrefixFirst(t *testing.T) {
	h := NewHandler(WithRegistry(testRegistry(t)))

	req := httptest.NewRequest(http.MethodGet, "/api/sections?q=c", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Data) != 3 {
		t.Fatalf("expected 3 matches, got %d: %#v", len(payload.Data), payload.Data)
	}
	if payload.Data[0].Type != "chart" || payload.Data[1].Type != "checklist" {
		t.Fatalf("expected prefix matches first, got %#v", payload.Data)
	}
	if payload.Data[2].Type != "analytics" {
		t.Fatalf("expected substring match last, got %#v", payload.Data[2])
	}
}

func TestNewHandler_MatchesAliasAndDescription(t *testing.T) {
	h := NewHandler(WithRegistry(testRegistry(t)))

	req := httptest.NewRequest(http.MethodGet, "/api/sections?q=todo", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].Type != "checklist" {
		t.Fatalf("expected alias match, got %#v", payload.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sections?q=figure", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	payload = handlerResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].Type != "analytics" {
		t.Fatalf("expected description match, got %#v", payload.Data)
	}
}

func TestNewHandler_LimitClamped(t *testing.T) {
	h := NewHandler(
		WithRegistry(testRegistry(t)),
		WithMaxLimit(1),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/sections?q=c&limit=10", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].Type != "chart" {
		t.Fatalf("expected a single clamped result, got %#v", payload.Data)
	}
}

func TestNewHandler_NegativeLimitReturnsEmptyDataArray(t *testing.T) {
	h := NewHandler(WithRegistry(testRegistry(t)))

	req := httptest.NewRequest(http.MethodGet, "/api/sections?q=c&limit=-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Data == nil || len(payload.Data) != 0 {
		t.Fatalf("expected empty data array, got %#v", payload.Data)
	}
}

func TestNewHandler_DefaultRegistryFlagsFallback(t *testing.T) {
	h := NewHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/sections?q=info", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Data) == 0 {
		t.Fatal("expected the info definition to match")
	}
	if payload.Data[0].Type != "info" || !payload.Data[0].Fallback {
		t.Fatalf("expected the fallback flag on info, got %#v", payload.Data[0])
	}
}

func TestNewHandler_GuardRejects(t *testing.T) {
	h := NewHandler(
		WithRegistry(testRegistry(t)),
		WithGuard(func(r *http.Request) error {
			return StatusError{Code: http.StatusUnauthorized}
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/sections?q=chart", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestNewHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(WithRegistry(testRegistry(t)))

	req := httptest.NewRequest(http.MethodPost, "/api/sections?q=chart", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}
