package httpclient

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRateLimit = 10 // requests per second
	defaultRateBurst = 20
)

// RateLimitMode selects how the limiter handles a request that exceeds the
// configured rate.
type RateLimitMode int

const (
	// WaitMode blocks the caller until the limiter grants a slot or the
	// request context ends.
	WaitMode RateLimitMode = iota
	// RejectMode fails fast: the request is answered locally with a
	// synthesized 429 carrying Retry-After.
	RejectMode
)

// NewLimiter builds a token-bucket limiter for the client chain.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = defaultRateLimit
	}
	if burst <= 0 {
		burst = defaultRateBurst
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RateLimitInterceptor throttles outgoing requests through a shared token
// bucket. All requests through the chain draw from the same limiter, so a
// single client cannot exceed the configured rate regardless of host.
func RateLimitInterceptor(limiter *rate.Limiter, mode RateLimitMode) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if limiter == nil {
				return next.RoundTrip(req)
			}
			reservation := limiter.Reserve()
			if !reservation.OK() {
				return nil, &Error{
					Kind: KindThrottled,
					URL:  req.URL.String(),
					Err:  errors.New("request exceeds limiter burst"),
				}
			}
			delay := reservation.Delay()
			if delay == 0 {
				return next.RoundTrip(req)
			}
			if mode == RejectMode {
				reservation.Cancel()
				return throttledResponse(req, limiter, delay), nil
			}
			if err := sleepContext(req.Context(), delay); err != nil {
				reservation.Cancel()
				return nil, &Error{
					Kind: Classify(nil, err),
					URL:  req.URL.String(),
					Err:  err,
				}
			}
			return next.RoundTrip(req)
		})
	}
}

// throttledResponse synthesizes the 429 a rate-limiting server would have
// sent, so downstream handling is uniform whether the limit was local or
// remote.
func throttledResponse(req *http.Request, limiter *rate.Limiter, delay time.Duration) *http.Response {
	retryAfter := int(math.Ceil(delay.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	header := http.Header{}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Retry-After", strconv.Itoa(retryAfter))
	header.Set("X-RateLimit-Limit", strconv.FormatFloat(float64(limiter.Limit()), 'f', -1, 64))
	header.Set("X-RateLimit-Burst", strconv.Itoa(limiter.Burst()))
	body := "client rate limit exceeded\n"
	return &http.Response{
		StatusCode:    http.StatusTooManyRequests,
		Status:        http.StatusText(http.StatusTooManyRequests),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
