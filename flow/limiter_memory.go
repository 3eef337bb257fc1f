package flow

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often the in-memory limiters drop idle keys.
const sweepInterval = time.Minute

// SlidingWindowLimiter keeps the timestamps of recent attempts per key. It
// is exact but stores one entry per attempt, which suits low volume keys such
// as login attempts. Use RedisRateLimiter when several instances share a limit.
type SlidingWindowLimiter struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewSlidingWindowLimiter() *SlidingWindowLimiter {
	return &SlidingWindowLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

func (l *SlidingWindowLimiter) Take(_ context.Context, key string, limit int, window time.Duration) (Quota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now, window)

	recent := prune(l.attempts[key], now.Add(-window))
	if len(recent) >= limit {
		l.attempts[key] = recent
		return Quota{RetryAfter: recent[0].Add(window).Sub(now)}, nil
	}

	recent = append(recent, now)
	l.attempts[key] = recent
	return Quota{Allowed: true, Remaining: limit - len(recent)}, nil
}

func (l *SlidingWindowLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
	return nil
}

// sweep drops keys without attempts inside window. Callers hold l.mu.
func (l *SlidingWindowLimiter) sweep(now time.Time, window time.Duration) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-window)
	for k, ts := range l.attempts {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(l.attempts, k)
		}
	}
}

// prune drops timestamps at or before cutoff. ts is ordered oldest first.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

type counter struct {
	count int
	reset time.Time
}

// FixedWindowLimiter counts attempts per key in windows that start with the
// first attempt, the way a TTL throttler does. It stores one counter per key,
// which makes it the cheaper choice for per client request limits.
type FixedWindowLimiter struct {
	mu        sync.Mutex
	counters  map[string]*counter
	lastSweep time.Time
	now       func() time.Time
}

func NewFixedWindowLimiter() *FixedWindowLimiter {
	return &FixedWindowLimiter{counters: make(map[string]*counter), now: time.Now}
}

func (l *FixedWindowLimiter) Take(_ context.Context, key string, limit int, window time.Duration) (Quota, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= sweepInterval {
		l.lastSweep = now
		for k, c := range l.counters {
			if !now.Before(c.reset) {
				delete(l.counters, k)
			}
		}
	}

	c, ok := l.counters[key]
	if !ok || !now.Before(c.reset) {
		c = &counter{reset: now.Add(window)}
		l.counters[key] = c
	}
	if c.count >= limit {
		return Quota{RetryAfter: c.reset.Sub(now)}, nil
	}
	c.count++
	return Quota{Allowed: true, Remaining: limit - c.count}, nil
}

func (l *FixedWindowLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, key)
	return nil
}
