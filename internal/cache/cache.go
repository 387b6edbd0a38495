// Package cache keeps rendered API responses in memory with a TTL and a
// weak ETag, so repeat reads of plans, history and trends skip the store.
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Response TTLs. A manual check or removal drops the product's keys early.
const (
	TTLPlans   = 24 * time.Hour
	TTLHistory = 5 * time.Minute
	TTLTrend   = 5 * time.Minute
)

const sweepEvery = 5 * time.Minute

type response struct {
	body    []byte
	etag    string
	expires time.Time
}

func (r response) live(now time.Time) bool {
	return now.Before(r.expires)
}

// Cache maps keys to rendered responses. A disabled Cache stores nothing
// but still computes ETags.
type Cache struct {
	mu      sync.RWMutex
	byKey   map[string]response
	enabled bool
	now     func() time.Time
}

// Stats is a point-in-time view for the health endpoint.
type Stats struct {
	Enabled bool `json:"enabled"`
	Keys    int  `json:"total_keys"`
	Live    int  `json:"active_keys"`
	Expired int  `json:"expired_keys"`
}

func New(enabled bool) *Cache {
	c := &Cache{byKey: make(map[string]response), enabled: enabled, now: time.Now}
	if enabled {
		go func() {
			for range time.Tick(sweepEvery) {
				c.dropExpired()
			}
		}()
	}
	return c
}

// Get returns the body and ETag stored under key if it has not expired.
func (c *Cache) Get(key string) ([]byte, string, bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	r, ok := c.byKey[key]
	c.mu.RUnlock()
	if !ok || !r.live(c.now()) {
		return nil, "", false
	}
	return r.body, r.etag, true
}

// Set stores body under key for ttl and returns its ETag.
func (c *Cache) Set(key string, body []byte, ttl time.Duration) string {
	etag := ComputeETag(body)
	if c.enabled {
		c.mu.Lock()
		c.byKey[key] = response{body: body, etag: etag, expires: c.now().Add(ttl)}
		c.mu.Unlock()
	}
	return etag
}

// InvalidatePrefix drops every key starting with prefix and returns how
// many went.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.byKey {
		if strings.HasPrefix(key, prefix) {
			delete(c.byKey, key)
			n++
		}
	}
	return n
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Enabled: c.enabled, Keys: len(c.byKey)}
	now := c.now()
	for _, r := range c.byKey {
		if r.live(now) {
			s.Live++
		}
	}
	s.Expired = s.Keys - s.Live
	return s
}

func (c *Cache) dropExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, r := range c.byKey {
		if !r.live(now) {
			delete(c.byKey, key)
		}
	}
}

// ComputeETag returns a weak ETag over the first 8 bytes of body's MD5.
func ComputeETag(body []byte) string {
	sum := md5.Sum(body)
	return fmt.Sprintf(`W/"%x"`, sum[:8])
}

// CheckETagMatch reports whether an If-None-Match header value names etag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	switch strings.TrimSpace(ifNoneMatch) {
	case "":
		return false
	case "*":
		return true
	}
	for _, tag := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimSpace(tag) == etag {
			return true
		}
	}
	return false
}
