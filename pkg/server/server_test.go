package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-cardgen/pkg/orchestrator"
	"github.com/goliatone/go-cardgen/pkg/server"
	"github.com/goliatone/go-cardgen/pkg/store"
	"github.com/goliatone/go-cardgen/pkg/testsupport"
)

func newTestServer(t *testing.T, cfg server.Config, orchOpts ...orchestrator.Option) *server.Server {
	t.Helper()
	if cfg.Mode == "" {
		cfg.Mode = "test"
	}

	st, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	orch := orchestrator.New(orchOpts...)
	t.Cleanup(orch.Close)

	srv, err := server.New(cfg, server.Deps{Store: st, Orchestrator: orch})
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	return srv
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func marshalCard(t *testing.T, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal card: %v", err)
	}
	return raw
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type saveResponse struct {
	ID        string `json:"id"`
	Revision  string `json:"revision"`
	Unchanged bool   `json:"unchanged"`
}

type issuesResponse struct {
	Error  string `json:"error"`
	Issues []struct {
		Path     string `json:"path"`
		Severity string `json:"severity"`
	} `json:"issues"`
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	decodeBody(t, rec, &body)
	if body.Status != "ok" {
		t.Errorf("status field = %q, want ok", body.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry X-Request-ID")
	}
}

func TestCreateAndFetchCard(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/cards", marshalCard(t, testsupport.DashboardCard()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created saveResponse
	decodeBody(t, rec, &created)
	if created.ID != "acme-q3" {
		t.Errorf("created id = %q, want acme-q3", created.ID)
	}
	if created.Revision == "" {
		t.Error("created revision should not be empty")
	}

	rec = do(t, h, http.MethodGet, "/api/cards/acme-q3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var fetched struct {
		Card struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"card"`
		Revision string `json:"revision"`
		Stale    bool   `json:"stale"`
	}
	decodeBody(t, rec, &fetched)
	if fetched.Card.Title != "Acme Quarterly" {
		t.Errorf("fetched title = %q, want Acme Quarterly", fetched.Card.Title)
	}
	if fetched.Revision != created.Revision {
		t.Errorf("fetched revision = %q, want %q", fetched.Revision, created.Revision)
	}
	if fetched.Stale {
		t.Error("freshly saved card should not be stale")
	}
}

func TestCreateCardMintsID(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	doc := testsupport.MinimalCard()
	doc.ID = ""
	rec := do(t, srv.Handler(), http.MethodPost, "/api/cards", marshalCard(t, doc))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created saveResponse
	decodeBody(t, rec, &created)
	if !strings.HasPrefix(created.ID, "card-") {
		t.Errorf("minted id = %q, want card- prefix", created.ID)
	}
}

func TestCreateCardRejectsInvalidDocument(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/cards", []byte(`{"id":"x","type":"standard"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
	var body issuesResponse
	decodeBody(t, rec, &body)
	if len(body.Issues) == 0 {
		t.Fatal("422 response should list issues")
	}
	paths := make([]string, 0, len(body.Issues))
	for _, issue := range body.Issues {
		if issue.Severity != "error" {
			t.Errorf("issue severity = %q, want error", issue.Severity)
		}
		paths = append(paths, issue.Path)
	}
	joined := strings.Join(paths, " ")
	if !strings.Contains(joined, "title") || !strings.Contains(joined, "sections") {
		t.Errorf("issue paths %v should mention title and sections", paths)
	}

	rec = do(t, h, http.MethodPost, "/api/cards", []byte(`{not json`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", rec.Code)
	}
}

func TestUpdateCard(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	h := srv.Handler()

	doc := testsupport.DashboardCard()
	do(t, h, http.MethodPost, "/api/cards", marshalCard(t, doc))

	doc.Title = "Acme Quarterly (final)"
	rec := do(t, h, http.MethodPut, "/api/cards/acme-q3", marshalCard(t, doc))
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated saveResponse
	decodeBody(t, rec, &updated)
	if updated.Unchanged {
		t.Error("changed document should not report unchanged")
	}

	rec = do(t, h, http.MethodPut, "/api/cards/acme-q3", marshalCard(t, doc))
	var repeat saveResponse
	decodeBody(t, rec, &repeat)
	if !repeat.Unchanged {
		t.Error("identical PUT should report unchanged")
	}
	if repeat.Revision != updated.Revision {
		t.Errorf("unchanged PUT revision = %q, want %q kept", repeat.Revision, updated.Revision)
	}
}

func TestUpdateCardIDMismatch(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	rec := do(t, srv.Handler(), http.MethodPut, "/api/cards/other", marshalCard(t, testsupport.DashboardCard()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for mismatched ids, body %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteCard(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	h := srv.Handler()

	do(t, h, http.MethodPost, "/api/cards", marshalCard(t, testsupport.MinimalCard()))

	if rec := do(t, h, http.MethodDelete, "/api/cards/note", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/cards/note", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/cards/note", nil); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", rec.Code)
	}
}

func TestListCards(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	h := srv.Handler()

	do(t, h, http.MethodPost, "/api/cards", marshalCard(t, testsupport.DashboardCard()))
	do(t, h, http.MethodPost, "/api/cards", marshalCard(t, testsupport.MinimalCard()))

	rec := do(t, h, http.MethodGet, "/api/cards", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data []struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Type     string `json:"type"`
			Revision string `json:"revision"`
		} `json:"data"`
	}
	decodeBody(t, rec, &body)
	if len(body.Data) != 2 {
		t.Fatalf("listed %d cards, want 2", len(body.Data))
	}
	if body.Data[0].ID != "acme-q3" || body.Data[1].ID != "note" {
		t.Errorf("order = %s, %s; want acme-q3, note", body.Data[0].ID, body.Data[1].ID)
	}
	if body.Data[0].Type != "dashboard" {
		t.Errorf("type = %q, want dashboard", body.Data[0].Type)
	}
	if body.Data[0].Revision == "" {
		t.Error("summaries should carry revisions")
	}
}

func TestRenderEndpoint(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	h := srv.Handler()
	payload := marshalCard(t, testsupport.DashboardCard())

	rec := do(t, h, http.MethodPost, "/api/render", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "<!doctype html>") {
		t.Error("default render should be a standalone document")
	}
	if !strings.Contains(rec.Body.String(), "Acme Quarterly") {
		t.Error("render should include the card title")
	}

	rec = do(t, h, http.MethodPost, "/api/render?fragment=true", payload)
	if strings.Contains(rec.Body.String(), "<!doctype html>") {
		t.Error("fragment render should not include the document shell")
	}

	rec = do(t, h, http.MethodPost, "/api/render?renderer=text", payload)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("text renderer Content-Type = %q, want text/plain", ct)
	}
	if !strings.Contains(rec.Body.String(), "Acme Quarterly") {
		t.Error("text render should include the card title")
	}
}

func TestRenderEndpointStrictValidation(t *testing.T) {
	srv := newTestServer(t, server.Config{}, orchestrator.WithStrictValidation(true))

	rec := do(t, srv.Handler(), http.MethodPost, "/api/render", []byte(`{"id":"x","type":"standard"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
	var body issuesResponse
	decodeBody(t, rec, &body)
	if len(body.Issues) == 0 {
		t.Error("422 response should list issues")
	}
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/cards", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No cards stored yet") {
		t.Error("empty index should say so")
	}

	do(t, h, http.MethodPost, "/api/cards", marshalCard(t, testsupport.DashboardCard()))

	rec = do(t, h, http.MethodGet, "/cards", nil)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	page := rec.Body.String()
	if !strings.Contains(page, `href="/cards/acme-q3"`) {
		t.Error("index should link to the stored card")
	}
	if !strings.Contains(page, "Acme Quarterly") {
		t.Error("index should show the card title")
	}
}

func TestCardPage(t *testing.T) {
	srv := newTestServer(t, server.Config{})
	h := srv.Handler()

	do(t, h, http.MethodPost, "/api/cards", marshalCard(t, testsupport.DashboardCard()))

	rec := do(t, h, http.MethodGet, "/cards/acme-q3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Acme Quarterly") {
		t.Error("card page should include the title")
	}

	rec = do(t, h, http.MethodGet, "/cards/acme-q3?renderer=text", nil)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("text page Content-Type = %q, want text/plain", ct)
	}

	if rec := do(t, h, http.MethodGet, "/cards/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing card status = %d, want 404", rec.Code)
	}
}

func TestCardPageLiveReload(t *testing.T) {
	watched := newTestServer(t, server.Config{WatchDir: t.TempDir()})
	plain := newTestServer(t, server.Config{})
	payload := marshalCard(t, testsupport.DashboardCard())

	do(t, watched.Handler(), http.MethodPost, "/api/cards", payload)
	do(t, plain.Handler(), http.MethodPost, "/api/cards", payload)

	rec := do(t, watched.Handler(), http.MethodGet, "/cards/acme-q3", nil)
	if !strings.Contains(rec.Body.String(), "new WebSocket") {
		t.Error("watched server should inject the reload script")
	}
	if !strings.Contains(rec.Body.String(), "</body>") {
		t.Error("injection should keep the closing body tag")
	}

	rec = do(t, watched.Handler(), http.MethodGet, "/cards/acme-q3?renderer=text", nil)
	if strings.Contains(rec.Body.String(), "new WebSocket") {
		t.Error("text output should never carry the reload script")
	}

	rec = do(t, plain.Handler(), http.MethodGet, "/cards/acme-q3", nil)
	if strings.Contains(rec.Body.String(), "new WebSocket") {
		t.Error("unwatched server should not inject the reload script")
	}
}

func TestSectionCatalogMounted(t *testing.T) {
	srv := newTestServer(t, server.Config{})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/sections?q=chart", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data []struct {
			Type string `json:"type"`
		} `json:"data"`
	}
	decodeBody(t, rec, &body)
	if len(body.Data) == 0 || body.Data[0].Type != "chart" {
		t.Errorf("catalog response = %s, want chart ranked first", rec.Body.String())
	}
}

func TestRateLimitApplied(t *testing.T) {
	srv := newTestServer(t, server.Config{RateRPS: 1, RateBurst: 2})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = do(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("429 should carry Retry-After")
	}
}
