package ratelimit

import (
	"sync"
	"time"
)

// Limiter - sliding window по ключу клиента ("http:1.2.3.4", "tg:12345").
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type Config struct {
	RequestsPerMinute int
	Window            time.Duration
	CleanupInterval   time.Duration
}

func New(cfg Config) *Limiter {
	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	l := &Limiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   cfg.Window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanup(cfg.CleanupInterval)
	return l
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fresh := l.freshLocked(key, now)

	if len(fresh) >= l.limit {
		l.requests[key] = fresh
		return false
	}

	l.requests[key] = append(fresh, now)
	return true
}

func (l *Limiter) RemainingRequests(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cnt := len(l.freshLocked(key, l.now()))
	if rem := l.limit - cnt; rem > 0 {
		return rem
	}
	return 0
}

// ResetTime - когда освободится хотя бы один слот (приблизительно)
func (l *Limiter) ResetTime(key string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.requests[key]
	if len(ts) == 0 {
		return l.now()
	}

	oldest := ts[0]
	for _, t := range ts[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	return oldest.Add(l.window)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) freshLocked(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	old := l.requests[key]
	fresh := old[:0]
	for _, t := range old {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}

func (l *Limiter) cleanup(interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-tick.C:
			l.removeStale()
		}
	}
}

func (l *Limiter) removeStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key := range l.requests {
		if fresh := l.freshLocked(key, now); len(fresh) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = fresh
		}
	}
}
