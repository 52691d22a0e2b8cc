package memory

import (
	"context"
	"sync"
	"time"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	defaultMaxEntries      = 1000
)

type Options struct {
	CleanupInterval time.Duration
	MaxEntries      int
}

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache - in-memory кеш с TTL и ограничением на число записей.
// При переполнении вытесняется запись, которая истекает раньше всех.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]entry
	maxEntries int
	now        func() time.Time
	stopChan   chan struct{}
	stopped    bool
}

func New() *Cache {
	return NewWithContext(context.Background(), Options{})
}

func NewWithContext(ctx context.Context, opts Options) *Cache {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}

	c := &Cache{
		items:      make(map[string]entry),
		maxEntries: opts.MaxEntries,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
	go c.cleanup(ctx, opts.CleanupInterval)
	return c
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || c.now().After(it.expiresAt) {
		return "", false
	}
	return it.value, true
}

func (c *Cache) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.evictLocked()
	}
	c.items[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopChan)
	}
	c.mu.Unlock()
}

func (c *Cache) evictLocked() {
	var (
		victim   string
		earliest time.Time
		found    bool
	)
	for k, it := range c.items {
		if !found || it.expiresAt.Before(earliest) {
			victim, earliest, found = k, it.expiresAt, true
		}
	}
	if found {
		delete(c.items, victim)
	}
}

func (c *Cache) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
		}
	}
}
