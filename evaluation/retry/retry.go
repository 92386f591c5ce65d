/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config configures linear retry of judge calls.
type Config struct {
	// Attempts is the total number of tries, including the first (default: 3).
	Attempts int
	// Delay is multiplied by the attempt number to get the pause after a
	// failed attempt: Delay after the first, 2*Delay after the second.
	Delay time.Duration
}

// Validate checks that the retry configuration has valid values.
func (c Config) Validate() error {
	if c.Attempts < 1 {
		return errors.New("attempts must be at least 1")
	}
	if c.Delay < 0 {
		return errors.New("delay cannot be negative")
	}
	return nil
}

// DefaultConfig returns three attempts one second apart (then two).
func DefaultConfig() Config {
	return Config{
		Attempts: 3,
		Delay:    time.Second,
	}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a permanent or context error, or
// cfg.Attempts tries are used up. fn receives the 1-based attempt number.
// The returned int is the number of attempts made.
func Do[T any](ctx context.Context, cfg Config, operation string, fn func(attempt int) (T, error)) (T, int, error) {
	var result T
	var lastErr error

	attempts := max(cfg.Attempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, attempt - 1, err
		}

		result, lastErr = fn(attempt)
		if lastErr == nil {
			return result, attempt, nil
		}
		if IsPermanent(lastErr) || errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return result, attempt, lastErr
		}

		log := clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt).
			With("max_attempts", attempts).
			With("error", lastErr.Error())
		if attempt >= attempts {
			log.Warn("Attempt failed, giving up")
			break
		}

		backoff := cfg.Delay * time.Duration(attempt)
		log.With("backoff", backoff).Warn("Attempt failed, retrying")

		select {
		case <-ctx.Done():
			return result, attempt, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return result, attempts, fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}
