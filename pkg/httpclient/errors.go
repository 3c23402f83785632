package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrCircuitOpen is returned when the circuit breaker for a host rejects a
// request without attempting it.
var ErrCircuitOpen = errors.New("httpclient: circuit open")

// ErrorKind classifies a failed request so callers can branch on the class
// of failure instead of matching status codes and error strings.
type ErrorKind string

const (
	// KindNetwork covers transport failures: DNS, connection refused,
	// resets mid-body.
	KindNetwork ErrorKind = "network"
	// KindTimeout covers deadline expiry, both client-side and dial/read.
	KindTimeout ErrorKind = "timeout"
	// KindThrottled is a 429 response.
	KindThrottled ErrorKind = "throttled"
	// KindClient is any other 4xx response.
	KindClient ErrorKind = "client"
	// KindServer is a 5xx response.
	KindServer ErrorKind = "server"
	// KindCircuitOpen means the breaker rejected the request locally.
	KindCircuitOpen ErrorKind = "circuit_open"
	// KindCancelled means the request context was cancelled.
	KindCancelled ErrorKind = "cancelled"
)

// Error is the terminal failure type surfaced by the client. It carries the
// classification, the HTTP status when one was received, and the number of
// attempts the retry layer made.
type Error struct {
	Kind     ErrorKind
	Status   int
	URL      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Attempts > 1:
		return fmt.Sprintf("httpclient: %s: %s %d after %d attempts", e.URL, e.Kind, e.Status, e.Attempts)
	case e.Status != 0:
		return fmt.Sprintf("httpclient: %s: %s %d", e.URL, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("httpclient: %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("httpclient: %s: %s", e.URL, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a round-trip outcome to an ErrorKind. It returns the empty
// string for successful (non-error, sub-400) outcomes.
func Classify(resp *http.Response, err error) ErrorKind {
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return KindCancelled
		case errors.Is(err, context.DeadlineExceeded):
			return KindTimeout
		case errors.Is(err, ErrCircuitOpen):
			return KindCircuitOpen
		}
		var clientErr *Error
		if errors.As(err, &clientErr) {
			return clientErr.Kind
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	if resp == nil {
		return KindNetwork
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return KindThrottled
	case resp.StatusCode >= 500:
		return KindServer
	case resp.StatusCode >= 400:
		return KindClient
	}
	return ""
}

// Retryable reports whether a failure class is eligible for backoff
// retries. Throttled responses are excluded: a 429 is retried at most once,
// and only when the server names a Retry-After delay.
func Retryable(kind ErrorKind) bool {
	switch kind {
	case KindNetwork, KindTimeout, KindServer:
		return true
	default:
		return false
	}
}

// CheckResponse converts a non-2xx/3xx response into an *Error. Callers that
// want classified errors for HTTP-level failures run every response through
// it; a conforming response returns nil.
func CheckResponse(resp *http.Response) error {
	if resp == nil {
		return &Error{Kind: KindNetwork, Err: errors.New("nil response")}
	}
	if resp.StatusCode < 400 {
		return nil
	}
	e := &Error{
		Kind:   Classify(resp, nil),
		Status: resp.StatusCode,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		e.URL = resp.Request.URL.String()
	}
	return e
}
