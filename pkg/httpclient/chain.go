// Package httpclient assembles a resilient HTTP client out of RoundTripper
// interceptors: bearer-token injection, TTL response caching, client-side
// rate limiting, retry with backoff, and per-host circuit breaking. The
// default chain mirrors how a browser client stacks its request
// interceptors; each piece is also usable on its own.
package httpclient

import "net/http"

// Interceptor wraps a RoundTripper with additional behaviour, the transport
// analog of server middleware.
type Interceptor func(http.RoundTripper) http.RoundTripper

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain composes interceptors over a base transport. The first interceptor
// listed is outermost: Chain(base, a, b) runs a, then b, then base. A nil
// base falls back to http.DefaultTransport; nil interceptors are skipped.
func Chain(base http.RoundTripper, interceptors ...Interceptor) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(interceptors) - 1; i >= 0; i-- {
		if interceptors[i] == nil {
			continue
		}
		rt = interceptors[i](rt)
	}
	return rt
}
