// Package ratelimit provides a sliding-window limiter for outbound API
// calls. Unlike a token bucket it can report the exact remaining quota over
// the trailing window, which callers surface in dashboards.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit  = 100
	DefaultWindow = time.Minute
)

// Limiter admits at most limit calls per rolling window.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
	now    func() time.Time
}

func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether a call may proceed now, consuming one slot if so.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.calls) >= l.limit {
		return false
	}
	l.calls = append(l.calls, now)
	return true
}

// Remaining returns the quota left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return l.limit - len(l.calls)
}

// Wait blocks until a slot is free or the context is done. It polls at the
// granularity of the oldest call's expiry rather than spinning.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)
		if len(l.calls) < l.limit {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}
		// Sleep until the oldest call leaves the window.
		wakeIn := l.calls[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wakeIn < time.Millisecond {
			wakeIn = time.Millisecond
		}
		timer := time.NewTimer(wakeIn)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// prune drops calls older than the window. Callers hold mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}
