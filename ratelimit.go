package tablesync

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LimitKind selects a rate-limiting strategy. Like RetryKind the set is
// closed and resolved once at construction.
type LimitKind int

const (
	// LimitFixedWait enforces a minimum elapsed time between calls.
	LimitFixedWait LimitKind = iota
	// LimitSlidingWindow admits at most N calls within any trailing window.
	LimitSlidingWindow
	// LimitFixedWindow admits at most N calls per epoch-aligned bucket.
	LimitFixedWindow
)

// ParseLimitKind maps a configuration string to its LimitKind.
func ParseLimitKind(s string) (LimitKind, error) {
	switch s {
	case "fixed_wait":
		return LimitFixedWait, nil
	case "sliding_window":
		return LimitSlidingWindow, nil
	case "fixed_window":
		return LimitFixedWindow, nil
	}
	return 0, NewConfigError("rate_limit.strategy", fmt.Sprintf("unknown strategy %q", s))
}

// LimitConfig parameterizes a Limiter.
type LimitConfig struct {
	Kind        LimitKind
	Delay       time.Duration // fixed-wait: minimum gap between calls
	Window      time.Duration // sliding/fixed window size
	MaxRequests int           // sliding/fixed: admissions per window
}

// Limiter gates call frequency. One instance is shared across every call a
// RequestController issues, so all methods are safe for concurrent use even
// though a sync run drives them sequentially.
type Limiter interface {
	// CanProceed reports whether a call would be admitted right now, without
	// recording one.
	CanProceed() bool

	// WaitIfNeeded blocks until a call is admitted, then records it. It
	// returns early with the context error on cancellation.
	WaitIfNeeded(ctx context.Context) error

	// Reset clears the limiter's window state.
	Reset()
}

// NewLimiter constructs the Limiter variant selected by cfg.
func NewLimiter(cfg LimitConfig) (Limiter, error) {
	switch cfg.Kind {
	case LimitFixedWait:
		if cfg.Delay < 0 {
			return nil, NewConfigError("rate_limit.delay", "must not be negative")
		}
		return &fixedWaitLimiter{delay: cfg.Delay}, nil
	case LimitSlidingWindow:
		if cfg.Window <= 0 || cfg.MaxRequests <= 0 {
			return nil, NewConfigError("rate_limit", "window and max_requests must be positive")
		}
		return &slidingWindowLimiter{window: cfg.Window, max: cfg.MaxRequests}, nil
	case LimitFixedWindow:
		if cfg.Window <= 0 || cfg.MaxRequests <= 0 {
			return nil, NewConfigError("rate_limit", "window and max_requests must be positive")
		}
		return &fixedWindowLimiter{window: cfg.Window, max: cfg.MaxRequests}, nil
	}
	return nil, NewConfigError("rate_limit.strategy", fmt.Sprintf("unknown kind %d", cfg.Kind))
}

// fixedWaitLimiter enforces a minimum gap since the last recorded call.
type fixedWaitLimiter struct {
	mu       sync.Mutex
	delay    time.Duration
	lastCall time.Time
}

func (l *fixedWaitLimiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastCall.IsZero() || time.Since(l.lastCall) >= l.delay
}

func (l *fixedWaitLimiter) WaitIfNeeded(ctx context.Context) error {
	l.mu.Lock()
	var wait time.Duration
	if !l.lastCall.IsZero() {
		if since := time.Since(l.lastCall); since < l.delay {
			wait = l.delay - since
		}
	}
	l.mu.Unlock()

	if wait > 0 {
		if err := sleepContext(ctx, wait); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.lastCall = time.Now()
	l.mu.Unlock()
	return nil
}

func (l *fixedWaitLimiter) Reset() {
	l.mu.Lock()
	l.lastCall = time.Time{}
	l.mu.Unlock()
}

// slidingWindowLimiter retains call timestamps and admits a call only when
// fewer than max fall within the trailing window.
type slidingWindowLimiter struct {
	mu         sync.Mutex
	window     time.Duration
	max        int
	timestamps []time.Time
}

// dropExpired removes timestamps that left the trailing window. Caller holds mu.
func (l *slidingWindowLimiter) dropExpired(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.timestamps) && l.timestamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

func (l *slidingWindowLimiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropExpired(time.Now())
	return len(l.timestamps) < l.max
}

func (l *slidingWindowLimiter) WaitIfNeeded(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.dropExpired(now)
		if len(l.timestamps) < l.max {
			l.timestamps = append(l.timestamps, now)
			l.mu.Unlock()
			return nil
		}
		// Wait for the oldest call to exit the window, then re-check: another
		// caller may have claimed the freed slot in the meantime.
		wait := l.timestamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if err := sleepContext(ctx, wait); err != nil {
			return err
		}
	}
}

func (l *slidingWindowLimiter) Reset() {
	l.mu.Lock()
	l.timestamps = nil
	l.mu.Unlock()
}

// fixedWindowLimiter buckets time into epoch-aligned windows and counts
// admissions per bucket.
type fixedWindowLimiter struct {
	mu          sync.Mutex
	window      time.Duration
	max         int
	windowStart time.Time
	count       int
}

// currentWindowStart returns the epoch-aligned start of the bucket holding now.
func (l *fixedWindowLimiter) currentWindowStart(now time.Time) time.Time {
	return now.Truncate(l.window)
}

// rollover resets the counter when the bucket has advanced. Caller holds mu.
func (l *fixedWindowLimiter) rollover(now time.Time) {
	start := l.currentWindowStart(now)
	if start.After(l.windowStart) {
		l.windowStart = start
		l.count = 0
	}
}

func (l *fixedWindowLimiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover(time.Now())
	return l.count < l.max
}

func (l *fixedWindowLimiter) WaitIfNeeded(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	l.rollover(now)
	if l.count < l.max {
		l.count++
		l.mu.Unlock()
		return nil
	}
	// Bucket exhausted: wait for the next boundary, then count this call as
	// the new bucket's first admission.
	wait := l.windowStart.Add(l.window).Sub(now)
	l.mu.Unlock()

	if err := sleepContext(ctx, wait); err != nil {
		return err
	}

	l.mu.Lock()
	l.windowStart = l.currentWindowStart(time.Now())
	l.count = 1
	l.mu.Unlock()
	return nil
}

func (l *fixedWindowLimiter) Reset() {
	l.mu.Lock()
	l.windowStart = time.Time{}
	l.count = 0
	l.mu.Unlock()
}
