package ratelimit

import (
	"sync"
	"time"
)

// WindowLimiter enforces a fixed-window request quota per key (client IP).
// Counts reset when the window rolls over, matching the classic
// N-requests-per-15-minutes API limiter semantics.
type WindowLimiter struct {
	clock  Clock
	window time.Duration
	max    int

	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	windowStart time.Time
	count       int
}

func NewWindowLimiter(clock Clock, window time.Duration, max int) *WindowLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	return &WindowLimiter{
		clock:   clock,
		window:  window,
		max:     max,
		entries: make(map[string]*windowEntry),
	}
}

// Allow records a request for key and reports whether it is within quota.
// A non-positive max or window disables limiting.
func (l *WindowLimiter) Allow(key string) bool {
	if l.max <= 0 || l.window <= 0 {
		return true
	}

	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) >= l.window {
		l.entries[key] = &windowEntry{windowStart: now, count: 1}
		l.maybeSweepLocked(now)
		return true
	}

	e.count++
	return e.count <= l.max
}

// RetryAfter reports how long the caller for key must wait before the window
// resets. Zero when the key is not currently limited.
func (l *WindowLimiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || e.count <= l.max {
		return 0
	}
	remaining := l.window - l.clock.Now().Sub(e.windowStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// maybeSweepLocked drops expired entries so the map does not grow unbounded
// with one-shot client IPs. Amortized: runs only when the map is large.
func (l *WindowLimiter) maybeSweepLocked(now time.Time) {
	const sweepThreshold = 4096
	if len(l.entries) < sweepThreshold {
		return
	}
	for k, e := range l.entries {
		if now.Sub(e.windowStart) >= l.window {
			delete(l.entries, k)
		}
	}
}
