package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxFetch = 4 << 20 // 4 MiB
)

// Client is an http.Client assembled from the interceptor chain, with
// handles on the stateful layers for stats and shutdown.
type Client struct {
	*http.Client

	cache    *ResponseCache
	breaker  *Breaker
	limiter  *rate.Limiter
	maxFetch int64
}

type clientOptions struct {
	base         http.RoundTripper
	timeout      time.Duration
	authProvider TokenProvider
	cache        *ResponseCache
	noCache      bool
	limiter      *rate.Limiter
	noLimiter    bool
	limitMode    RateLimitMode
	retry        RetryConfig
	noRetry      bool
	breaker      *Breaker
	breakerCfg   BreakerConfig
	noBreaker    bool
	logger       *zap.Logger
	maxFetch     int64
}

// Option configures the assembled client.
type Option func(*clientOptions)

// WithBaseTransport replaces the innermost RoundTripper. The default is
// http.DefaultTransport.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

// WithTimeout sets the whole-request timeout on the returned client.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithAuthProvider injects bearer tokens from the given provider.
func WithAuthProvider(provider TokenProvider) Option {
	return func(o *clientOptions) { o.authProvider = provider }
}

// WithAuthToken injects a fixed bearer token on every request.
func WithAuthToken(token string) Option {
	return func(o *clientOptions) {
		if token != "" {
			o.authProvider = StaticToken(token)
		}
	}
}

// WithCache supplies a pre-configured response cache. The caller keeps
// ownership; Close on the client will still close it.
func WithCache(cache *ResponseCache) Option {
	return func(o *clientOptions) { o.cache = cache }
}

// WithoutCache disables response caching.
func WithoutCache() Option {
	return func(o *clientOptions) { o.noCache = true }
}

// WithRateLimit sets the client-side request rate and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *clientOptions) { o.limiter = NewLimiter(perSecond, burst) }
}

// WithRateLimitMode selects between waiting for a slot (the default) and
// failing fast with a synthesized 429.
func WithRateLimitMode(mode RateLimitMode) Option {
	return func(o *clientOptions) { o.limitMode = mode }
}

// WithoutRateLimit disables client-side throttling.
func WithoutRateLimit() Option {
	return func(o *clientOptions) { o.noLimiter = true }
}

// WithRetry tunes the retry layer.
func WithRetry(cfg RetryConfig) Option {
	return func(o *clientOptions) { o.retry = cfg }
}

// WithoutRetry disables retries; every outcome is returned on the first
// attempt.
func WithoutRetry() Option {
	return func(o *clientOptions) { o.noRetry = true }
}

// WithBreaker supplies a pre-configured circuit breaker, letting several
// clients share circuit state.
func WithBreaker(breaker *Breaker) Option {
	return func(o *clientOptions) { o.breaker = breaker }
}

// WithBreakerConfig tunes the per-host breaker built by New.
func WithBreakerConfig(cfg BreakerConfig) Option {
	return func(o *clientOptions) { o.breakerCfg = cfg }
}

// WithoutBreaker disables circuit breaking.
func WithoutBreaker() Option {
	return func(o *clientOptions) { o.noBreaker = true }
}

// WithLogger attaches a logger to the stateful layers built by New.
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxFetchBytes caps how much of a body Fetch will read.
func WithMaxFetchBytes(n int64) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxFetch = n
		}
	}
}

// New assembles a client whose transport runs, outermost first: auth,
// cache, rate limit, retry, circuit breaker, base. That ordering keeps
// cache hits free of limiter and breaker accounting, lets retries draw
// fresh limiter slots, and has the breaker observe every attempt the retry
// layer makes.
func New(opts ...Option) *Client {
	o := &clientOptions{
		timeout:   defaultTimeout,
		logger:    zap.NewNop(),
		limitMode: WaitMode,
		maxFetch:  defaultMaxFetch,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.cache == nil && !o.noCache {
		o.cache = NewResponseCache(WithCacheLogger(o.logger))
	}
	if o.limiter == nil && !o.noLimiter {
		o.limiter = NewLimiter(defaultRateLimit, defaultRateBurst)
	}
	if o.breaker == nil && !o.noBreaker {
		o.breaker = NewBreaker(o.breakerCfg, o.logger)
	}

	var interceptors []Interceptor
	if o.authProvider != nil {
		interceptors = append(interceptors, AuthInterceptor(o.authProvider))
	}
	if o.cache != nil && !o.noCache {
		interceptors = append(interceptors, o.cache.Interceptor())
	}
	if o.limiter != nil && !o.noLimiter {
		interceptors = append(interceptors, RateLimitInterceptor(o.limiter, o.limitMode))
	}
	if !o.noRetry {
		interceptors = append(interceptors, RetryInterceptor(o.retry))
	}
	if o.breaker != nil && !o.noBreaker {
		interceptors = append(interceptors, o.breaker.Interceptor())
	}

	client := &Client{
		Client: &http.Client{
			Transport: Chain(o.base, interceptors...),
			Timeout:   o.timeout,
		},
		limiter:  o.limiter,
		maxFetch: o.maxFetch,
	}
	if !o.noCache {
		client.cache = o.cache
	}
	if !o.noBreaker {
		client.breaker = o.breaker
	}
	return client
}

// Close releases background resources held by the chain.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
	c.CloseIdleConnections()
}

// CacheStats reports response-cache effectiveness. A client built without
// a cache reports zeros.
func (c *Client) CacheStats() CacheStats {
	if c.cache == nil {
		return CacheStats{}
	}
	return c.cache.Stats()
}

// BreakerState reports the circuit position for a host.
func (c *Client) BreakerState(host string) BreakerState {
	if c.breaker == nil {
		return StateClosed
	}
	return c.breaker.State(host)
}

// Fetch GETs a URL through the full chain, converts non-2xx outcomes into
// classified errors, and returns at most the configured number of body
// bytes.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := CheckResponse(resp); err != nil {
		drainBody(resp)
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFetch+1))
	if err != nil {
		return nil, &Error{
			Kind: Classify(nil, err),
			URL:  rawURL,
			Err:  fmt.Errorf("read body: %w", err),
		}
	}
	if int64(len(body)) > c.maxFetch {
		return nil, &Error{
			Kind: KindClient,
			URL:  rawURL,
			Err:  fmt.Errorf("body exceeds %d byte limit", c.maxFetch),
		}
	}
	return body, nil
}
