package httpclient

import (
	"context"
	"fmt"
	"net/http"
)

// TokenProvider yields a bearer token for an outgoing request. Returning an
// empty token with a nil error sends the request unauthenticated.
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken returns a TokenProvider that always yields the given token.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) { return token, nil }
}

// AuthInterceptor injects "Authorization: Bearer <token>" into requests that
// do not already carry an Authorization header. The request is cloned before
// mutation, as required by the RoundTripper contract.
func AuthInterceptor(provider TokenProvider) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if provider == nil || req.Header.Get("Authorization") != "" {
				return next.RoundTrip(req)
			}
			token, err := provider(req.Context())
			if err != nil {
				return nil, &Error{
					Kind: KindClient,
					URL:  req.URL.String(),
					Err:  fmt.Errorf("resolve auth token: %w", err),
				}
			}
			if token == "" {
				return next.RoundTrip(req)
			}
			clone := req.Clone(req.Context())
			clone.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(clone)
		})
	}
}
