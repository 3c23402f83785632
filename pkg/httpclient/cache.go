package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultCacheTTL        = 60 * time.Second
	defaultCacheMaxEntries = 512
	defaultCacheMaxBody    = 1 << 20 // 1 MiB
	defaultJanitorInterval = time.Minute
)

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// HitRate returns hits/(hits+misses), or 0 when the cache is untouched.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type cacheEntry struct {
	status    int
	header    http.Header
	body      []byte
	storedAt  time.Time
	expiresAt time.Time
}

// spliceBody rejoins a consumed prefix with the rest of a live body while
// keeping the original Close behaviour.
type spliceBody struct {
	io.Reader
	closer io.Closer
}

func (s spliceBody) Close() error { return s.closer.Close() }

// ResponseCache keeps successful GET and HEAD responses in memory for a
// bounded time. Entries are keyed by method and full URL. A background
// janitor drops expired entries; Close stops it.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry

	ttl        time.Duration
	maxEntries int
	maxBody    int64

	hits   atomic.Int64
	misses atomic.Int64

	logger   *zap.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// CacheOption configures a ResponseCache.
type CacheOption func(*ResponseCache)

// WithCacheTTL sets the default entry lifetime. A response Cache-Control
// max-age directive overrides it per entry.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *ResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheMaxEntries bounds how many responses are retained.
func WithCacheMaxEntries(n int) CacheOption {
	return func(c *ResponseCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithCacheMaxBodyBytes bounds the size of a cacheable body. Larger
// responses pass through uncached.
func WithCacheMaxBodyBytes(n int64) CacheOption {
	return func(c *ResponseCache) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithCacheLogger attaches a logger for hit, store, and eviction events.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *ResponseCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewResponseCache builds a cache and starts its janitor goroutine.
func NewResponseCache(opts ...CacheOption) *ResponseCache {
	c := &ResponseCache{
		entries:    make(map[string]*cacheEntry),
		ttl:        defaultCacheTTL,
		maxEntries: defaultCacheMaxEntries,
		maxBody:    defaultCacheMaxBody,
		logger:     zap.NewNop(),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.janitor(defaultJanitorInterval)
	return c
}

// Close stops the janitor goroutine. The cache stays usable after Close;
// expired entries are then only dropped lazily on lookup.
func (c *ResponseCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Stats returns a snapshot of the hit, miss, and entry counters.
func (c *ResponseCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}
}

// Flush drops every cached entry.
func (c *ResponseCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Interceptor returns the caching layer for a client chain. Only GET and
// HEAD requests without a no-store directive are considered; only 200
// responses are stored. Served entries carry an "X-Cache: HIT" header.
func (c *ResponseCache) Interceptor() Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !cacheableRequest(req) {
				return next.RoundTrip(req)
			}
			key := req.Method + " " + req.URL.String()
			if entry := c.lookup(key); entry != nil {
				c.hits.Add(1)
				c.logger.Debug("response cache hit", zap.String("key", key))
				return entry.response(req), nil
			}
			c.misses.Add(1)
			resp, err := next.RoundTrip(req)
			if err != nil {
				return resp, err
			}
			c.maybeStore(key, req, resp)
			return resp, nil
		})
	}
}

func cacheableRequest(req *http.Request) bool {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return false
	}
	return !hasDirective(req.Header.Get("Cache-Control"), "no-store")
}

func (c *ResponseCache) lookup(key string) *cacheEntry {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil
	}
	return entry
}

// maybeStore reads and restores resp.Body when the response qualifies for
// caching, so callers always receive a readable body.
func (c *ResponseCache) maybeStore(key string, req *http.Request, resp *http.Response) {
	if resp.StatusCode != http.StatusOK {
		return
	}
	if hasDirective(resp.Header.Get("Cache-Control"), "no-store") {
		return
	}
	var body []byte
	if req.Method != http.MethodHead && resp.Body != nil {
		buf, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil || int64(len(buf)) > c.maxBody {
			// Too large or unreadable. Hand back what was consumed plus
			// the unread remainder and skip caching.
			resp.Body = spliceBody{
				Reader: io.MultiReader(bytes.NewReader(buf), resp.Body),
				closer: resp.Body,
			}
			return
		}
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(buf))
		body = buf
	}
	ttl := c.ttl
	if maxAge, ok := maxAgeDirective(resp.Header.Get("Cache-Control")); ok {
		ttl = maxAge
	}
	if ttl <= 0 {
		return
	}
	now := time.Now()
	entry := &cacheEntry{
		status:    resp.StatusCode,
		header:    resp.Header.Clone(),
		body:      body,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	c.mu.Lock()
	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry
	c.mu.Unlock()
	c.logger.Debug("response cached",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
		zap.Int("bytes", len(body)))
}

// evictOldestLocked removes expired entries and, if the cache is still
// full, the entry stored longest ago. Callers hold the write lock.
func (c *ResponseCache) evictOldestLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *ResponseCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			removed := 0
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
					removed++
				}
			}
			c.mu.Unlock()
			if removed > 0 {
				c.logger.Debug("response cache cleanup", zap.Int("removed", removed))
			}
		}
	}
}

func (e *cacheEntry) response(req *http.Request) *http.Response {
	header := e.header.Clone()
	header.Set("X-Cache", "HIT")
	header.Set("Age", strconv.Itoa(int(time.Since(e.storedAt).Seconds())))
	return &http.Response{
		StatusCode:    e.status,
		Status:        http.StatusText(e.status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}

func hasDirective(cacheControl, directive string) bool {
	for _, part := range strings.Split(cacheControl, ",") {
		if strings.EqualFold(strings.TrimSpace(part), directive) {
			return true
		}
	}
	return false
}

func maxAgeDirective(cacheControl string) (time.Duration, bool) {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		value, ok := strings.CutPrefix(part, "max-age=")
		if !ok {
			continue
		}
		secs, err := strconv.Atoi(value)
		if err != nil || secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
