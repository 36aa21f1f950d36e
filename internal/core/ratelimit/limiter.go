// Package ratelimit implements the per-client fixed-window request limiter.
//
// The limiter is a fixed-window counter, not a sliding window or token
// bucket: a client that bursts at a window boundary can briefly reach about
// twice the nominal rate. That approximation is part of the contract and is
// asserted by the tests.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of a limiter check for one request.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetIn is the number of whole seconds until the current window
	// expires. It is only meaningful when Allowed is false.
	ResetIn int
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter tracks request counts per client identifier in fixed windows.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	limit  int
	window time.Duration

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

// New creates a limiter allowing limit requests per window per identifier.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		limit:   limit,
		window:  window,
	}
}

// Limit returns the configured per-window request limit.
func (l *Limiter) Limit() int {
	return l.limit
}

// Check records one request attempt from the identifier and decides whether
// it is admitted. A missing or expired-window entry is reset with count 1;
// otherwise the counter increments until the limit is reached. The count
// never exceeds the limit while the window is held open.
func (l *Limiter) Check(identifier string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok || now.Sub(e.windowStart) > l.window {
		l.entries[identifier] = &entry{count: 1, windowStart: now}
		return Decision{Allowed: true, Remaining: l.limit - 1}
	}

	if e.count >= l.limit {
		elapsed := now.Sub(e.windowStart)
		resetIn := int((l.window - elapsed + time.Second - 1) / time.Second)
		return Decision{Allowed: false, Remaining: 0, ResetIn: resetIn}
	}

	e.count++
	return Decision{Allowed: true, Remaining: l.limit - e.count}
}

// Sweep removes entries whose window has expired and returns how many were
// dropped. It runs on a timer independent of request traffic.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, e := range l.entries {
		if now.Sub(e.windowStart) > l.window {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked identifiers, expired or not.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
