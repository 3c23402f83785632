package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	}
}

func TestRetryInterceptor_RecoversFromServerError(t *testing.T) {
	t.Parallel()

	var attempts int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return stubResponse(http.StatusBadGateway, "bad"), nil
		}
		return stubResponse(http.StatusOK, "ok"), nil
	})
	rt := RetryInterceptor(fastRetry())(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRetryInterceptor_ExhaustsBudgetAndReturnsLastResponse(t *testing.T) {
	t.Parallel()

	var attempts int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		return stubResponse(http.StatusInternalServerError, "down"), nil
	})
	rt := RetryInterceptor(fastRetry())(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want the default budget of 3", attempts)
	}
}

func TestRetryInterceptor_ThrottledWithRetryAfterRetriesOnce(t *testing.T) {
	t.Parallel()

	var attempts int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		resp := stubResponse(http.StatusTooManyRequests, "slow down")
		resp.Header.Set("Retry-After", "0")
		return resp, nil
	})
	rt := RetryInterceptor(fastRetry())(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	// One original attempt plus exactly one honored Retry-After.
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want the second 429 returned", resp.StatusCode)
	}
}

func TestRetryInterceptor_ThrottledRecoveryAfterWait(t *testing.T) {
	t.Parallel()

	var attempts int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			resp := stubResponse(http.StatusTooManyRequests, "slow down")
			resp.Header.Set("Retry-After", "0")
			return resp, nil
		}
		return stubResponse(http.StatusOK, "ok"), nil
	})
	rt := RetryInterceptor(fastRetry())(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || attempts != 2 {
		t.Fatalf("status = %d attempts = %d, want 200 after 2", resp.StatusCode, attempts)
	}
}

func TestRetryInterceptor_ThrottledWithoutRetryAfterReturnsImmediately(t *testing.T) {
	t.Parallel()

	var attempts int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		return stubResponse(http.StatusTooManyRequests, "slow down"), nil
	})
	rt := RetryInterceptor(fastRetry())(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestRetryInterceptor_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var attempts int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		return stubResponse(http.StatusBadRequest, "nope"), nil
	})
	rt := RetryInterceptor(fastRetry())(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestRetryInterceptor_NetworkErrorWrapsAfterBudget(t *testing.T) {
	t.Parallel()

	var attempts int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		return nil, errors.New("connection refused")
	})
	rt := RetryInterceptor(fastRetry())(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	_, err := rt.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error")
	}
	var clientErr *Error
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if clientErr.Kind != KindNetwork {
		t.Fatalf("kind = %q, want network", clientErr.Kind)
	}
	if clientErr.Attempts != 3 || attempts != 3 {
		t.Fatalf("attempts = %d/%d, want 3", clientErr.Attempts, attempts)
	}
}

func TestRetryInterceptor_ReplaysBodyThroughGetBody(t *testing.T) {
	t.Parallel()

	var bodies []string
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		req.Body.Close()
		bodies = append(bodies, string(body))
		if len(bodies) < 2 {
			return stubResponse(http.StatusServiceUnavailable, "busy"), nil
		}
		return stubResponse(http.StatusOK, "ok"), nil
	})
	rt := RetryInterceptor(fastRetry())(base)

	req, _ := http.NewRequest(http.MethodPost, "http://example.test/cards", bytes.NewReader([]byte(`{"id":"c1"}`)))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if len(bodies) != 2 {
		t.Fatalf("transport saw %d bodies, want 2", len(bodies))
	}
	if bodies[0] != bodies[1] || bodies[1] != `{"id":"c1"}` {
		t.Fatalf("replayed body differs: %q vs %q", bodies[0], bodies[1])
	}
}

func TestRetryInterceptor_UnreplayableBodyNotRetried(t *testing.T) {
	t.Parallel()

	var attempts int
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		attempts++
		io.Copy(io.Discard, req.Body)
		req.Body.Close()
		return stubResponse(http.StatusInternalServerError, "down"), nil
	})
	rt := RetryInterceptor(fastRetry())(base)

	// A raw pipe gives the request a Body but no GetBody.
	pr, pw := io.Pipe()
	go func() {
		pw.Write([]byte("stream"))
		pw.Close()
	}()
	req, _ := http.NewRequest(http.MethodPost, "http://example.test/cards", pr)
	if req.GetBody != nil {
		t.Fatal("test setup: expected no GetBody for a pipe")
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 for an unreplayable body", attempts)
	}
}

func TestRetryInterceptor_ContextCancelDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		cancel()
		return stubResponse(http.StatusInternalServerError, "down"), nil
	})
	rt := RetryInterceptor(RetryConfig{InitialBackoff: time.Minute})(base)

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.test/cards", nil)
	_, err := rt.RoundTrip(req)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	var clientErr *Error
	if !errors.As(err, &clientErr) || clientErr.Kind != KindCancelled {
		t.Fatalf("expected cancelled *Error, got %v", err)
	}
}

func TestRetryAfterDelay(t *testing.T) {
	t.Parallel()

	mk := func(value string) *http.Response {
		resp := stubResponse(http.StatusTooManyRequests, "")
		if value != "" {
			resp.Header.Set("Retry-After", value)
		}
		return resp
	}

	tests := []struct {
		name  string
		value string
		want  time.Duration
		ok    bool
	}{
		{"missing", "", 0, false},
		{"seconds", "2", 2 * time.Second, true},
		{"zero", "0", 0, true},
		{"negative", "-1", 0, false},
		{"capped", "3600", 30 * time.Second, true},
		{"garbage", "soon", 0, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := retryAfterDelay(mk(tc.value), 30*time.Second)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("retryAfterDelay(%q) = (%v, %v), want (%v, %v)", tc.value, got, ok, tc.want, tc.ok)
			}
		})
	}

	// An HTTP date in the past clamps to zero.
	resp := mk(time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat))
	got, ok := retryAfterDelay(resp, 30*time.Second)
	if !ok || got != 0 {
		t.Fatalf("past date = (%v, %v), want (0, true)", got, ok)
	}
}
