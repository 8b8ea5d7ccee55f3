package rag

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	DefaultCacheTTL     = time.Hour
	DefaultCacheMaxSize = 1000
)

type cacheEntry struct {
	response   Response
	expiresAt  time.Time
	lastAccess time.Time
}

// ResponseCache memoizes query responses by normalized query text and topK.
// Entries expire after the TTL; when full, the least recently used entry is
// evicted. Queries carrying conversation context bypass the cache entirely,
// since their answers depend on session state.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	maxSize int
}

func NewResponseCache(ttl time.Duration, maxSize int) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	return &ResponseCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func cacheKey(query string, topK int) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d", normalized, topK)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached response for the query, if present and fresh
func (c *ResponseCache) Get(query string, topK int) (Response, bool) {
	key := cacheKey(query, topK)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Response{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return Response{}, false
	}

	entry.lastAccess = time.Now()
	return entry.response, true
}

// Set stores the response, evicting the least recently used entry when full
func (c *ResponseCache) Set(query string, topK int, resp Response) {
	key := cacheKey(query, topK)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictLRU()
	}

	now := time.Now()
	c.entries[key] = &cacheEntry{
		response:   resp,
		expiresAt:  now.Add(c.ttl),
		lastAccess: now,
	}
}

// Clear drops all cached responses
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

func (c *ResponseCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.lastAccess.Before(oldest) {
			oldestKey = key
			oldest = entry.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
