package engine

import (
	"context"
	"time"

	"github.com/sicko7947/approvalflow"
)

const maxConflictBackoff = time.Second

// calculateBackoff doubles base for every attempt after the first, capped at maxConflictBackoff
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxConflictBackoff {
			return maxConflictBackoff
		}
	}
	return delay
}

// retryOnConflict re-runs fn while it fails with CONFLICT, up to
// config.ConflictRetries extra attempts. fn must re-read what it writes.
func (e *Engine) retryOnConflict(ctx context.Context, operation string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= e.config.ConflictRetries; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(e.config.ConflictBackoff, attempt)
			e.logger.Debug().
				Str("operation", operation).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("Retrying after version conflict")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = fn()
		if !approvalflow.IsConflict(err) {
			return err
		}
	}
	return err
}
