package tablesync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Chunk is a half-open offset range [Start, End) into the unit sequence of
// one transfer. Chunks exist only while a transfer runs; the positional
// metadata survives bisection so failures always name the exact sub-range.
type Chunk struct {
	Start int
	End   int
}

// Len returns the number of units covered by the chunk.
func (c Chunk) Len() int {
	return c.End - c.Start
}

func (c Chunk) String() string {
	return fmt.Sprintf("[%d,%d)", c.Start, c.End)
}

// TransferManager sends an ordered unit sequence in size-bounded chunks and
// bisects on the payload-too-large signal. Splitting is driven by an
// explicit work stack rather than recursion: a pathological input that is
// rejected all the way down to single units must not grow the call stack.
type TransferManager struct {
	ctrl       *RequestController
	interDelay time.Duration
	logger     zerolog.Logger
}

// NewTransferManager builds a transfer manager on top of ctrl. interDelay is
// slept after every successful chunk; zero disables it.
func NewTransferManager(ctrl *RequestController, interDelay time.Duration, logger zerolog.Logger) *TransferManager {
	return &TransferManager{ctrl: ctrl, interDelay: interDelay, logger: logger}
}

// Transfer sends total units in chunks of at most batchSize via send. The
// sender receives offset ranges and is expected to slice its own backing
// collection; it must surface ErrPayloadTooLarge distinctly for oversized
// requests.
//
// The concatenation of all successfully sent chunks, in send order, equals
// the original sequence exactly once each. Any failure other than a
// bisectable payload-too-large aborts the whole transfer.
func (m *TransferManager) Transfer(ctx context.Context, op string, total, batchSize int, send func(ctx context.Context, c Chunk) error) error {
	if total == 0 {
		return nil
	}
	if batchSize <= 0 {
		return NewConfigError("batch_size", "must be positive")
	}

	// Seed the stack in reverse so chunks pop in original order.
	var stack []Chunk
	for start := ((total - 1) / batchSize) * batchSize; start >= 0; start -= batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		stack = append(stack, Chunk{Start: start, End: end})
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		err := m.ctrl.Do(ctx, op, func(ctx context.Context) error {
			return send(ctx, chunk)
		})
		if err == nil {
			m.logger.Debug().
				Str("op", op).
				Stringer("chunk", chunk).
				Msg("chunk sent")
			if m.interDelay > 0 {
				if err := sleepContext(ctx, m.interDelay); err != nil {
					return err
				}
			}
			continue
		}

		if IsPayloadTooLarge(err) {
			if chunk.Len() <= 1 {
				// A single unit cannot be reduced further.
				return fmt.Errorf("%s: unit %d rejected as too large: %w", op, chunk.Start, err)
			}
			mid := chunk.Start + chunk.Len()/2
			m.logger.Warn().
				Str("op", op).
				Stringer("chunk", chunk).
				Int("mid", mid).
				Msg("payload too large, bisecting")
			// Second half first so the first half pops next.
			stack = append(stack, Chunk{Start: mid, End: chunk.End})
			stack = append(stack, Chunk{Start: chunk.Start, End: mid})
			continue
		}

		return fmt.Errorf("%s: chunk %s failed: %w", op, chunk, err)
	}

	return nil
}
