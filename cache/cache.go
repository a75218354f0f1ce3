package cache

import (
	"context"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	data      any
	expiresAt time.Time
}

// Cache is a bounded expiring-entry store. Entries are evicted by LRU
// pressure, lazily on read once their TTL passes, and by the
// background sweep.
type Cache struct {
	lru *lru.Cache[string, *entry]
	now func() time.Time
}

// New creates a Cache holding at most size entries.
func New(size int) (*Cache, error) {
	l, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, now: time.Now}, nil
}

// Get returns the live value for key. Expired entries are removed and
// reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.data, true
}

// Set stores val under key for ttl.
func (c *Cache) Set(key string, val any, ttl time.Duration) {
	c.lru.Add(key, &entry{
		data:      val,
		expiresAt: c.now().Add(ttl),
	})
}

// Delete removes a single key.
func (c *Cache) Delete(key string) {
	c.lru.Remove(key)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// InvalidatePattern removes every key matching pattern, where '*'
// matches any run of characters. Returns the number of removed keys.
func (c *Cache) InvalidatePattern(pattern string) int {
	re, err := compileKeyPattern(pattern)
	if err != nil {
		return 0
	}
	removed := 0
	for _, key := range c.lru.Keys() {
		if re.MatchString(key) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

// Sweep evicts expired entries every interval until ctx is done. Run
// it as a goroutine alongside the request engine's drain loop.
func (c *Cache) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	now := c.now()
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && now.After(e.expiresAt) {
			c.lru.Remove(key)
		}
	}
}

func compileKeyPattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
