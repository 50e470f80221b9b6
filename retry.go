package tablesync

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryKind selects the delay formula of a RetryPolicy. The set is closed;
// strategies are resolved once at construction, never dispatched by name at
// call time.
type RetryKind int

const (
	// RetryExponential grows the delay by a constant multiplier per attempt.
	RetryExponential RetryKind = iota
	// RetryLinear grows the delay by a constant increment per attempt.
	RetryLinear
	// RetryFixed waits the initial delay on every attempt.
	RetryFixed
)

// ParseRetryKind maps a configuration string to its RetryKind.
func ParseRetryKind(s string) (RetryKind, error) {
	switch s {
	case "exponential_backoff", "exponential":
		return RetryExponential, nil
	case "linear_growth", "linear":
		return RetryLinear, nil
	case "fixed_wait", "fixed":
		return RetryFixed, nil
	}
	return 0, NewConfigError("retry.strategy", fmt.Sprintf("unknown strategy %q", s))
}

// RetryConfig parameterizes a RetryPolicy.
type RetryConfig struct {
	Kind         RetryKind
	InitialDelay time.Duration
	MaxRetries   int
	MaxWait      time.Duration // elapsed-time ceiling for the whole budget; 0 = unlimited
	Multiplier   float64       // exponential only; defaults to 2
	Increment    time.Duration // linear only; defaults to InitialDelay
}

// RetryPolicy computes per-attempt delays and enforces the retry budget.
// It is stateless; per-call attempt counting lives in the RequestController.
type RetryPolicy struct {
	cfg RetryConfig
}

// NewRetryPolicy validates cfg and resolves defaults.
func NewRetryPolicy(cfg RetryConfig) (*RetryPolicy, error) {
	switch cfg.Kind {
	case RetryExponential, RetryLinear, RetryFixed:
	default:
		return nil, NewConfigError("retry.strategy", fmt.Sprintf("unknown kind %d", cfg.Kind))
	}
	if cfg.InitialDelay < 0 {
		return nil, NewConfigError("retry.initial_delay", "must not be negative")
	}
	if cfg.MaxRetries < 0 {
		return nil, NewConfigError("retry.max_retries", "must not be negative")
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2
	}
	if cfg.Increment == 0 {
		cfg.Increment = cfg.InitialDelay
	}
	return &RetryPolicy{cfg: cfg}, nil
}

// rawDelay is the un-clamped delay formula for one attempt (0-based).
func (p *RetryPolicy) rawDelay(attempt int) time.Duration {
	switch p.cfg.Kind {
	case RetryExponential:
		return time.Duration(float64(p.cfg.InitialDelay) * math.Pow(p.cfg.Multiplier, float64(attempt)))
	case RetryLinear:
		return p.cfg.InitialDelay + time.Duration(attempt)*p.cfg.Increment
	default:
		return p.cfg.InitialDelay
	}
}

// Delay returns the wait before retrying the given 0-based attempt, clamped
// to the max-wait ceiling when one is configured.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	d := p.rawDelay(attempt)
	if p.cfg.MaxWait > 0 && d > p.cfg.MaxWait {
		return p.cfg.MaxWait
	}
	return d
}

// ShouldRetry reports whether another attempt fits the budget. Both limits
// are hard stops independent of the delay formula.
func (p *RetryPolicy) ShouldRetry(attempt int, elapsed time.Duration) bool {
	if attempt >= p.cfg.MaxRetries {
		return false
	}
	if p.cfg.MaxWait > 0 && elapsed >= p.cfg.MaxWait {
		return false
	}
	return true
}

// Wait sleeps out the delay for the given attempt. It returns false without
// sleeping when the computed delay alone would exceed the max-wait ceiling;
// waiting a clamped amount would still blow the budget on the next check.
// A context error aborts the sleep immediately.
func (p *RetryPolicy) Wait(ctx context.Context, attempt int) (bool, error) {
	d := p.rawDelay(attempt)
	if p.cfg.MaxWait > 0 && d > p.cfg.MaxWait {
		return false, nil
	}
	if err := sleepContext(ctx, d); err != nil {
		return false, err
	}
	return true, nil
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
