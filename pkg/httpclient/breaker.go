package httpclient

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BreakerState names the position of a host's circuit.
type BreakerState string

const (
	// StateClosed passes requests through and counts failures.
	StateClosed BreakerState = "closed"
	// StateOpen rejects requests locally until the reset timeout elapses.
	StateOpen BreakerState = "open"
	// StateHalfOpen admits a few probe requests to test recovery.
	StateHalfOpen BreakerState = "half-open"
)

// BreakerConfig tunes the circuit breaker. Zero values fall back to the
// defaults listed on each field.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit. Default 5.
	FailureThreshold int
	// ResetTimeout is how long an open circuit waits before admitting
	// probes. Default 30s.
	ResetTimeout time.Duration
	// HalfOpenMaxRequests caps concurrent probes while half-open.
	// Default 2.
	HalfOpenMaxRequests int
	// SuccessThreshold is the consecutive-success count that closes a
	// half-open circuit. Default 2.
	SuccessThreshold int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxRequests <= 0 {
		c.HalfOpenMaxRequests = 2
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	return c
}

// BreakerStats is a snapshot of one host's circuit.
type BreakerStats struct {
	Host        string
	State       BreakerState
	Failures    int
	Successes   int
	LastFailure time.Time
	OpenedAt    time.Time
}

// Breaker tracks an independent circuit per destination host. A run of
// failures against one host opens only that host's circuit; other hosts
// keep flowing.
type Breaker struct {
	config BreakerConfig
	logger *zap.Logger

	mu    sync.Mutex
	hosts map[string]*hostCircuit
}

type hostCircuit struct {
	state       BreakerState
	failures    int
	successes   int
	halfOpenIn  int
	lastFailure time.Time
	openedAt    time.Time
}

// NewBreaker builds a per-host circuit breaker.
func NewBreaker(cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		config: cfg.withDefaults(),
		logger: logger,
		hosts:  make(map[string]*hostCircuit),
	}
}

// Interceptor returns the breaker layer for a client chain. Requests to a
// host with an open circuit fail immediately with ErrCircuitOpen wrapped in
// an *Error of kind circuit_open. Server errors (5xx) and transport
// failures count against the circuit; 4xx responses and cancelled contexts
// do not.
func (b *Breaker) Interceptor() Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			host := req.URL.Host
			if !b.allow(host) {
				return nil, &Error{
					Kind: KindCircuitOpen,
					URL:  req.URL.String(),
					Err:  ErrCircuitOpen,
				}
			}
			resp, err := next.RoundTrip(req)
			b.record(host, resp, err)
			return resp, err
		})
	}
}

// State reports the circuit position for a host. Hosts never seen report
// closed.
func (b *Breaker) State(host string) BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	circuit, ok := b.hosts[host]
	if !ok {
		return StateClosed
	}
	b.maybeHalfOpenLocked(host, circuit)
	return circuit.state
}

// Stats returns a snapshot for every host the breaker has seen.
func (b *Breaker) Stats() []BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BreakerStats, 0, len(b.hosts))
	for host, circuit := range b.hosts {
		out = append(out, BreakerStats{
			Host:        host,
			State:       circuit.state,
			Failures:    circuit.failures,
			Successes:   circuit.successes,
			LastFailure: circuit.lastFailure,
			OpenedAt:    circuit.openedAt,
		})
	}
	return out
}

// Reset closes the circuit for a host and clears its counters.
func (b *Breaker) Reset(host string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.hosts, host)
}

func (b *Breaker) allow(host string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	circuit, ok := b.hosts[host]
	if !ok {
		circuit = &hostCircuit{state: StateClosed}
		b.hosts[host] = circuit
	}
	b.maybeHalfOpenLocked(host, circuit)
	switch circuit.state {
	case StateOpen:
		return false
	case StateHalfOpen:
		if circuit.halfOpenIn >= b.config.HalfOpenMaxRequests {
			return false
		}
		circuit.halfOpenIn++
		return true
	default:
		return true
	}
}

// maybeHalfOpenLocked moves an open circuit to half-open once the reset
// timeout has elapsed. Callers hold the mutex.
func (b *Breaker) maybeHalfOpenLocked(host string, circuit *hostCircuit) {
	if circuit.state != StateOpen {
		return
	}
	if time.Since(circuit.openedAt) < b.config.ResetTimeout {
		return
	}
	circuit.state = StateHalfOpen
	circuit.successes = 0
	circuit.halfOpenIn = 0
	b.logger.Debug("circuit half-open", zap.String("host", host))
}

func (b *Breaker) record(host string, resp *http.Response, err error) {
	kind := Classify(resp, err)
	// Cancellation reflects the caller, not the host.
	if kind == KindCancelled {
		return
	}
	failure := kind == KindNetwork || kind == KindTimeout || kind == KindServer

	b.mu.Lock()
	defer b.mu.Unlock()
	circuit, ok := b.hosts[host]
	if !ok {
		return
	}
	if circuit.state == StateHalfOpen && circuit.halfOpenIn > 0 {
		circuit.halfOpenIn--
	}
	if failure {
		b.recordFailureLocked(host, circuit)
		return
	}
	b.recordSuccessLocked(host, circuit)
}

func (b *Breaker) recordFailureLocked(host string, circuit *hostCircuit) {
	circuit.failures++
	circuit.successes = 0
	circuit.lastFailure = time.Now()
	switch circuit.state {
	case StateHalfOpen:
		b.openLocked(host, circuit)
	case StateClosed:
		if circuit.failures >= b.config.FailureThreshold {
			b.openLocked(host, circuit)
		}
	}
}

func (b *Breaker) recordSuccessLocked(host string, circuit *hostCircuit) {
	switch circuit.state {
	case StateHalfOpen:
		circuit.successes++
		if circuit.successes >= b.config.SuccessThreshold {
			circuit.state = StateClosed
			circuit.failures = 0
			circuit.successes = 0
			circuit.halfOpenIn = 0
			b.logger.Debug("circuit closed", zap.String("host", host))
		}
	case StateClosed:
		circuit.failures = 0
	}
}

func (b *Breaker) openLocked(host string, circuit *hostCircuit) {
	circuit.state = StateOpen
	circuit.openedAt = time.Now()
	circuit.halfOpenIn = 0
	b.logger.Warn("circuit opened",
		zap.String("host", host),
		zap.Int("failures", circuit.failures))
}
