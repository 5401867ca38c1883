// Package ratelimit enforces a minimum interval between outbound requests to
// any one external domain. A Limiter is owned by a single collection run and
// shared by that run's tasks; it is never a process-wide singleton, so
// concurrent runs for different parents do not interfere.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces requests per domain by a minimum interval
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	next        map[string]time.Time
}

// New creates a Limiter with the given per-domain minimum interval.
// A non-positive interval disables waiting.
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		minInterval: minInterval,
		next:        make(map[string]time.Time),
	}
}

// Wait blocks until a request to the domain is allowed, then claims the slot.
// Concurrent callers for the same domain serialize: N sequential requests
// take at least (N-1) * minInterval of wall-clock time. Returns early with
// the context's error if it is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, domain string) error {
	if l.minInterval <= 0 || domain == "" {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next[domain]
	if slot.Before(now) {
		slot = now
	}
	l.next[domain] = slot.Add(l.minInterval)
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
