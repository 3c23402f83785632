package httpclient

import (
	"io"
	"net/http"
	"testing"
	"time"
)

func TestRateLimitInterceptor_RejectModeSynthesizes429(t *testing.T) {
	t.Parallel()

	var served int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		served++
		return stubResponse(http.StatusOK, "ok"), nil
	})
	// Burst of one: the second immediate request has no slot.
	rt := RateLimitInterceptor(NewLimiter(1, 1), RejectMode)(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	resp.Body.Close()

	resp, err = rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if resp.Header.Get("X-RateLimit-Limit") == "" {
		t.Fatal("expected X-RateLimit-Limit header")
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Fatal("expected a body on the synthesized response")
	}
	if served != 1 {
		t.Fatalf("transport saw %d requests, want 1", served)
	}
}

func TestRateLimitInterceptor_WaitModeDelays(t *testing.T) {
	t.Parallel()

	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return stubResponse(http.StatusOK, ""), nil
	})
	// 100 rps with burst 1: the second request must wait roughly 10ms.
	rt := RateLimitInterceptor(NewLimiter(100, 1), WaitMode)(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	start := time.Now()
	for i := 0; i < 2; i++ {
		resp, err := rt.RoundTrip(req)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Fatalf("expected the limiter to delay, elapsed %v", elapsed)
	}
}

func TestRateLimitInterceptor_NilLimiterPassesThrough(t *testing.T) {
	t.Parallel()

	var served int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		served++
		return stubResponse(http.StatusOK, ""), nil
	})
	rt := RateLimitInterceptor(nil, WaitMode)(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	for i := 0; i < 5; i++ {
		resp, err := rt.RoundTrip(req)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
	}
	if served != 5 {
		t.Fatalf("transport saw %d requests, want 5", served)
	}
}
