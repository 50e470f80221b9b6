package tablesync

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RequestController composes a retry policy and a rate limiter around single
// remote calls. Either part may be nil. One controller instance is built per
// sync run and passed into every component that talks to the remote side, so
// the rate window is shared across all operations of the run.
type RequestController struct {
	retry   *RetryPolicy
	limiter Limiter
	logger  zerolog.Logger
}

// ControllerOption configures a RequestController.
type ControllerOption func(*RequestController)

// WithRetry installs a retry policy.
func WithRetry(p *RetryPolicy) ControllerOption {
	return func(c *RequestController) { c.retry = p }
}

// WithLimiter installs a rate limiter.
func WithLimiter(l Limiter) ControllerOption {
	return func(c *RequestController) { c.limiter = l }
}

// WithLogger installs a logger; the default discards everything.
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *RequestController) { c.logger = logger }
}

// NewRequestController builds a controller from the given options.
func NewRequestController(opts ...ControllerOption) *RequestController {
	c := &RequestController{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs fn under the controller's rate limit, retrying transient failures
// until the retry budget is spent. The thunk must be idempotent. Permanent
// errors and the payload-too-large signal propagate immediately without
// consuming the budget.
func (c *RequestController) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.limiter != nil {
			if err := c.limiter.WaitIfNeeded(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}

		elapsed := time.Since(start)
		if c.retry == nil || !c.retry.ShouldRetry(attempt, elapsed) {
			c.logger.Error().
				Err(err).
				Str("op", op).
				Int("attempts", attempt+1).
				Msg("retry budget exhausted")
			return err
		}

		ok, waitErr := c.retry.Wait(ctx, attempt)
		if waitErr != nil {
			return waitErr
		}
		if !ok {
			c.logger.Error().
				Err(err).
				Str("op", op).
				Int("attempts", attempt+1).
				Msg("retry delay exceeds wait budget")
			return err
		}

		attempt++
		c.logger.Warn().
			Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Msg("retrying after transient error")
	}
}
