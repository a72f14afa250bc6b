// Package memcache is an in-process cache.Cache for tests and single node setups.
package memcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nkiryanov/smallsquare/internal/cache"
)

const (
	DefaultSize   = 100_000
	DefaultMaxTTL = 30 * 24 * time.Hour
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache keeps entries in an expirable LRU
// The LRU drops everything older than MaxTTL; shorter expirations are checked on read.
// Live entries are never evicted: a new key is refused with cache.ErrFull when there is no room.
type Cache struct {
	mu     sync.Mutex
	lru    *expirable.LRU[string, entry]
	size   int
	maxTTL time.Duration
	now    func() time.Time
}

type Config struct {
	// Max number of live entries
	Size int

	// Upper bound for entry lifetime, longer ttl is rejected with cache.ErrInvalidTTL
	MaxTTL time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

func New(cfg Config) *Cache {
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = DefaultMaxTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Cache{
		lru:    expirable.NewLRU[string, entry](cfg.Size, nil, cfg.MaxTTL),
		size:   cfg.Size,
		maxTTL: cfg.MaxTTL,
		now:    cfg.Now,
	}
}

func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if err := c.checkTTL(ttl); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.add(key, value, ttl)
}

func (c *Cache) SetNX(_ context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if err := c.checkTTL(ttl); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.get(key); ok {
		return false, nil
	}
	if err := c.add(key, value, ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.get(key)
	if !ok {
		return "", cache.ErrMiss
	}
	return e.value, nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(key)
	return nil
}

func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.get(key)
	return ok, nil
}

// get returns live entry and drops an expired one; caller holds the lock
func (c *Cache) get(key string) (entry, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return entry{}, false
	}
	if !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return entry{}, false
	}
	return e, true
}

func (c *Cache) checkTTL(ttl time.Duration) error {
	switch {
	case ttl <= 0:
		return cache.ErrInvalidTTL
	case ttl > c.maxTTL:
		return fmt.Errorf("%w: %s is longer than max %s", cache.ErrInvalidTTL, ttl, c.maxTTL)
	}
	return nil
}

// add stores the entry unless it makes the LRU evict a live one; caller holds the lock
func (c *Cache) add(key string, value string, ttl time.Duration) error {
	if !c.lru.Contains(key) && c.lru.Len() >= c.size {
		c.purgeExpired()
		if c.lru.Len() >= c.size {
			return cache.ErrFull
		}
	}

	c.lru.Add(key, entry{value: value, expiresAt: c.now().Add(ttl)})
	return nil
}

// purgeExpired drops entries past their own expiration; caller holds the lock
func (c *Cache) purgeExpired() {
	now := c.now()
	for _, key := range c.lru.Keys() {
		// Peek misses entries the LRU itself considers stale, drop them too
		if e, ok := c.lru.Peek(key); !ok || !now.Before(e.expiresAt) {
			c.lru.Remove(key)
		}
	}
}
