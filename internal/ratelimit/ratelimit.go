// Package ratelimit throttles unauthenticated credential endpoints per client.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter is a token-bucket rate limiter keyed by client address. Each key may
// spend rate tokens per window; tokens refill continuously.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	now     func() time.Time
}

// New creates a Limiter that allows rate requests per window for each key.
func New(rate int, window time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Must be called with l.mu held.
func (l *Limiter) bucketFor(key string) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.rate), lastRefill: l.now()}
		l.buckets[key] = b
	}
	l.refill(b)
	return b
}

// Must be called with l.mu held.
func (l *Limiter) refill(b *bucket) {
	now := l.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * l.perSecond()
	if b.tokens > float64(l.rate) {
		b.tokens = float64(l.rate)
	}
	b.lastRefill = now
}

func (l *Limiter) perSecond() float64 {
	return float64(l.rate) / l.window.Seconds()
}

// Quota is the state of a key's bucket after a Take.
type Quota struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Take consumes one token for key if one is available and returns the
// resulting quota.
func (l *Limiter) Take(key string) (bool, Quota) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.bucketFor(key)
	allowed := b.tokens >= 1
	if allowed {
		b.tokens--
	}
	return allowed, l.quota(b)
}

// Must be called with l.mu held.
func (l *Limiter) quota(b *bucket) Quota {
	q := Quota{Limit: l.rate, Remaining: int(b.tokens), ResetAt: l.now()}
	if q.Remaining < 0 {
		q.Remaining = 0
	}
	if deficit := float64(l.rate) - b.tokens; deficit > 0 {
		q.ResetAt = q.ResetAt.Add(time.Duration(deficit / l.perSecond() * float64(time.Second)))
	}
	return q
}

// Prune drops buckets that have refilled completely. A full bucket behaves
// exactly like a missing one. It returns the number of buckets removed.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		l.refill(b)
		if b.tokens >= float64(l.rate) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RunPruner prunes idle buckets every interval until ctx is done.
func (l *Limiter) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(); n > 0 {
				slog.Debug("pruned rate limit buckets", "removed", n, "remaining", l.Len())
			}
		}
	}
}
