// Package ratelimit provides an in-memory sliding-window limiter guarding
// the form submission path against retry storms.
//
// Attempt history is process-local and deliberately not persisted: a restart
// clears the window. This is a known, accepted weakening of the guarantee.
package ratelimit

import (
	"sync"
	"time"
)

// Submission guard defaults.
const (
	DefaultMaxAttempts = 3
	DefaultWindow      = 10 * time.Minute
)

// Limiter admits at most maxAttempts within a sliding window. Timestamps of
// admitted attempts are pruned lazily on each call.
type Limiter struct {
	mu          sync.Mutex
	attempts    []time.Time
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Tests use this to walk the window
// forward deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New builds a Limiter. Non-positive arguments fall back to the submission
// guard defaults.
func New(maxAttempts int, window time.Duration, opts ...Option) *Limiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow prunes expired attempts, then either records the attempt and returns
// true, or returns false without recording when the window is full.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.attempts) >= l.maxAttempts {
		return false
	}
	l.attempts = append(l.attempts, now)
	return true
}

// RetryAfter returns the wait until the oldest in-window attempt expires.
// The second return is false while the limiter still has capacity.
func (l *Limiter) RetryAfter() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.attempts) < l.maxAttempts {
		return 0, false
	}
	remaining := l.window - now.Sub(l.attempts[0])
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// prune drops attempts older than the window. Callers hold l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for ; i < len(l.attempts); i++ {
		if l.attempts[i].After(cutoff) {
			break
		}
	}
	l.attempts = l.attempts[i:]
}
