package httpclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestAuthInterceptor_InjectsBearer(t *testing.T) {
	t.Parallel()

	var seen string
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Get("Authorization")
		return stubResponse(http.StatusOK, ""), nil
	})
	rt := AuthInterceptor(StaticToken("sekret"))(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()

	if seen != "Bearer sekret" {
		t.Fatalf("authorization = %q, want bearer token", seen)
	}
	if req.Header.Get("Authorization") != "" {
		t.Fatal("original request was mutated")
	}
}

func TestAuthInterceptor_PreservesExistingHeader(t *testing.T) {
	t.Parallel()

	var seen string
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Get("Authorization")
		return stubResponse(http.StatusOK, ""), nil
	})
	rt := AuthInterceptor(StaticToken("sekret"))(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	req.Header.Set("Authorization", "Basic abc123")
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()

	if seen != "Basic abc123" {
		t.Fatalf("authorization = %q, want the caller's header", seen)
	}
}

func TestAuthInterceptor_EmptyTokenSkipsHeader(t *testing.T) {
	t.Parallel()

	var seen string
	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Get("Authorization")
		return stubResponse(http.StatusOK, ""), nil
	})
	rt := AuthInterceptor(StaticToken(""))(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()

	if seen != "" {
		t.Fatalf("authorization = %q, want empty", seen)
	}
}

func TestAuthInterceptor_ProviderError(t *testing.T) {
	t.Parallel()

	base := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		t.Fatal("request should not reach the transport")
		return nil, nil
	})
	provider := func(context.Context) (string, error) {
		return "", errors.New("token store offline")
	}
	rt := AuthInterceptor(provider)(base)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/cards", nil)
	_, err := rt.RoundTrip(req)
	if err == nil {
		t.Fatal("expected error from provider")
	}
	var clientErr *Error
	if !errors.As(err, &clientErr) || clientErr.Kind != KindClient {
		t.Fatalf("expected client-kind *Error, got %v", err)
	}
}
