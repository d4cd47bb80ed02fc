package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache provides caching for LLM responses
type Cache interface {
	Get(ctx context.Context, key string) (*Response, bool)
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration) error
	Stats() CacheStats
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int64
}

// MemoryCache is an in-memory cache for LLM responses
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	maxSize int
	ttl     time.Duration
	stats   CacheStats
}

type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached response
func (c *MemoryCache) Get(ctx context.Context, key string) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		if ok {
			delete(c.entries, key)
		}
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	return entry.response, true
}

// Set stores a response in cache
func (c *MemoryCache) Set(ctx context.Context, key string, resp *Response, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = &cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(ttl),
	}
	c.stats.Size = int64(len(c.entries))
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// evictOldest removes the entry closest to expiry
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// NullCache is a no-op cache for when caching is disabled
type NullCache struct{}

func (c *NullCache) Get(ctx context.Context, key string) (*Response, bool) { return nil, false }
func (c *NullCache) Set(ctx context.Context, key string, resp *Response, ttl time.Duration) error {
	return nil
}
func (c *NullCache) Stats() CacheStats { return CacheStats{} }

// NewCache creates a cache for the configured type.
func NewCache(cacheType string, maxSize int, ttl time.Duration) Cache {
	switch cacheType {
	case "memory":
		return NewMemoryCache(maxSize, ttl)
	case "none", "":
		return &NullCache{}
	default:
		log.Warn().Str("type", cacheType).Msg("unknown cache type, using memory cache")
		return NewMemoryCache(maxSize, ttl)
	}
}

// GenerateCacheKey creates a deterministic key from a request
func GenerateCacheKey(req *Request) string {
	keyData := struct {
		Tier        Tier
		System      string
		Messages    []Message
		Temperature float64
	}{
		Tier:        req.Tier,
		System:      req.System,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// CachedRouter wraps a Router with response caching
type CachedRouter struct {
	router *Router
	cache  Cache
	ttl    time.Duration
}

// NewCachedRouter creates a router with caching enabled
func NewCachedRouter(router *Router, cache Cache, ttl time.Duration) *CachedRouter {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedRouter{
		router: router,
		cache:  cache,
		ttl:    ttl,
	}
}

// Complete serves from cache when possible, delegating misses to the
// underlying router.
func (r *CachedRouter) Complete(ctx context.Context, req *Request) (*Response, error) {
	cacheKey := GenerateCacheKey(req)

	if cached, ok := r.cache.Get(ctx, cacheKey); ok {
		cached.Cached = true
		return cached, nil
	}

	resp, err := r.router.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, resp, r.ttl); err != nil {
		log.Warn().Err(err).Msg("failed to cache response")
	}
	return resp, nil
}

// HealthCheck delegates to the underlying router
func (r *CachedRouter) HealthCheck() error {
	return r.router.HealthCheck()
}

// CacheStats returns cache statistics
func (r *CachedRouter) CacheStats() CacheStats {
	return r.cache.Stats()
}
