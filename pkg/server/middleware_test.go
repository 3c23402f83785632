package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newMiddlewareEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(handlers...)
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return engine
}

func TestRequestIDMintsAndEchoes(t *testing.T) {
	engine := newMiddlewareEngine(requestID())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a generated X-Request-ID")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want the incoming req-123", got)
	}
}

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(requestLogger(zap.New(core)))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	engine.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(entries))
	}
	if entries[0].Level != zap.InfoLevel {
		t.Errorf("200 logged at %v, want info", entries[0].Level)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Errorf("404 logged at %v, want warn", entries[1].Level)
	}
	if entries[2].Level != zap.ErrorLevel {
		t.Errorf("500 logged at %v, want error", entries[2].Level)
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/ok" {
		t.Errorf("path field = %v, want /ok", fields["path"])
	}
	if fields["method"] != http.MethodGet {
		t.Errorf("method field = %v, want GET", fields["method"])
	}
}

func TestRecoveryAnswers500(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(recovery(zap.New(core)))
	engine.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if entries := logs.FilterMessage("panic recovered").All(); len(entries) != 1 {
		t.Errorf("logged %d panic entries, want 1", len(entries))
	}
}

func TestRateLimitExhaustsBurst(t *testing.T) {
	engine := newMiddlewareEngine(rateLimit(newLimiterPool(1, 2)))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		statuses = append(statuses, rec.Code)
		if i == 2 {
			if got := rec.Header().Get("Retry-After"); got != "1" {
				t.Errorf("Retry-After = %q, want 1", got)
			}
			if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
				t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
			}
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, status := range statuses {
		if status != want[i] {
			t.Errorf("request %d status = %d, want %d", i, status, want[i])
		}
	}
}

func TestLimiterPoolPerClient(t *testing.T) {
	pool := newLimiterPool(1, 1)

	a := pool.get("10.0.0.1")
	if pool.get("10.0.0.1") != a {
		t.Error("same client should reuse its bucket")
	}
	if pool.get("10.0.0.2") == a {
		t.Error("distinct clients should get distinct buckets")
	}

	if !a.Allow() {
		t.Fatal("first request should pass")
	}
	if a.Allow() {
		t.Error("burst of 1 should reject the immediate second request")
	}
	if !pool.get("10.0.0.2").Allow() {
		t.Error("another client's bucket should be unaffected")
	}
}
