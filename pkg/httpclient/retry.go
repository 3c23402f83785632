package httpclient

import (
	"errors"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig tunes the retry interceptor. Zero values fall back to the
// defaults listed on each field.
type RetryConfig struct {
	// MaxAttempts caps total tries including the first. Default 3.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry. Default 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps the exponential delay. Default 15s.
	MaxBackoff time.Duration
	// BackoffFactor multiplies the delay after each retry. Default 2.0.
	BackoffFactor float64
	// JitterFactor randomizes each delay by +/- the given fraction.
	// Default 0.2.
	JitterFactor float64
	// RetryAfterCap bounds how long a Retry-After header can make the
	// client wait. Default 30s.
	RetryAfterCap time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 15 * time.Second
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = 2.0
	}
	if c.JitterFactor < 0 || c.JitterFactor >= 1 {
		c.JitterFactor = 0.2
	}
	if c.RetryAfterCap <= 0 {
		c.RetryAfterCap = 30 * time.Second
	}
	return c
}

// RetryInterceptor retries transient failures with exponential backoff.
//
// Two retry regimes apply. A 429 that names a Retry-After delay is honored
// once per request: the interceptor waits (capped by RetryAfterCap) and
// replays the request a single time, regardless of the attempt budget. A
// 429 without Retry-After is returned to the caller untouched. Network
// errors, timeouts, and 5xx responses retry under the exponential budget.
// Other 4xx responses and breaker rejections are never retried.
//
// Requests with a body are only retried when GetBody is set, since the
// first attempt consumes Body. http.NewRequest sets GetBody for the common
// buffer-backed body types.
func RetryInterceptor(cfg RetryConfig) Interceptor {
	cfg = cfg.withDefaults()
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			var (
				resp *http.Response
				err  error
			)
			replayable := req.Body == nil || req.GetBody != nil
			backoff := cfg.InitialBackoff
			throttleRetried := false
			attempt := 0
			for {
				attempt++
				attemptReq, reqErr := requestForAttempt(req, attempt)
				if reqErr != nil {
					return nil, &Error{
						Kind:     KindClient,
						URL:      req.URL.String(),
						Attempts: attempt,
						Err:      reqErr,
					}
				}
				resp, err = next.RoundTrip(attemptReq)
				kind := Classify(resp, err)
				if kind == "" {
					return resp, nil
				}
				if !replayable {
					break
				}
				if kind == KindThrottled {
					delay, ok := retryAfterDelay(resp, cfg.RetryAfterCap)
					if !ok || throttleRetried {
						break
					}
					throttleRetried = true
					drainBody(resp)
					if sleepErr := sleepContext(req.Context(), delay); sleepErr != nil {
						return nil, &Error{
							Kind:     Classify(nil, sleepErr),
							URL:      req.URL.String(),
							Attempts: attempt,
							Err:      sleepErr,
						}
					}
					continue
				}
				if !Retryable(kind) || attempt >= cfg.MaxAttempts {
					break
				}
				if resp != nil {
					drainBody(resp)
				}
				if sleepErr := sleepContext(req.Context(), jittered(backoff, cfg.JitterFactor)); sleepErr != nil {
					return nil, &Error{
						Kind:     Classify(nil, sleepErr),
						URL:      req.URL.String(),
						Attempts: attempt,
						Err:      sleepErr,
					}
				}
				backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
				if backoff > cfg.MaxBackoff {
					backoff = cfg.MaxBackoff
				}
			}
			if err != nil {
				var wrapped *Error
				if errors.As(err, &wrapped) {
					if wrapped.Attempts == 0 {
						wrapped.Attempts = attempt
					}
					return nil, err
				}
				return nil, &Error{
					Kind:     Classify(nil, err),
					URL:      req.URL.String(),
					Attempts: attempt,
					Err:      err,
				}
			}
			return resp, nil
		})
	}
}

// requestForAttempt returns the request to send. The first attempt uses the
// original; retries clone it and rewind the body through GetBody.
func requestForAttempt(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 {
		return req, nil
	}
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}

// retryAfterDelay parses a Retry-After header given either as delta seconds
// or as an HTTP date, clamping the result to [0, cap].
func retryAfterDelay(resp *http.Response, capDelay time.Duration) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0, false
	}
	var delay time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		delay = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		delay = time.Until(at)
	} else {
		return 0, false
	}
	if delay < 0 {
		delay = 0
	}
	if delay > capDelay {
		delay = capDelay
	}
	return delay, true
}

// drainBody consumes a bounded prefix of the body and closes it so the
// underlying connection can be reused for the retry.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

func jittered(d time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return d
	}
	spread := 1 + factor*(2*rand.Float64()-1)
	return time.Duration(float64(d) * spread)
}
