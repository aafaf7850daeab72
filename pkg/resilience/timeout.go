// SPDX-License-Identifier: Apache-2.0
// Package resilience provides the timeout boundary for external step
// execution. Timeouts surface as typed errors that the supervisor converts
// into limit violations; there are no silent aborts and no retry helpers.
// Repeated failure is a halt condition, never a retry.
package resilience

import (
	"context"
	"time"

	"github.com/atelier-ide/warden/pkg/errors"
)

// TimeoutConfig controls timeout behavior.
type TimeoutConfig struct {
	// Duration is the maximum time allowed for the operation. Zero means no
	// boundary.
	Duration time.Duration
}

// WithTimeout executes fn with a timeout boundary.
// Returns errors.CodeTimeout if the deadline is exceeded.
func WithTimeout(ctx context.Context, config TimeoutConfig, fn func() error) error {
	if config.Duration == 0 {
		return fn()
	}

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", config.Duration.String()).
			WithRecoverable(true)
	case err := <-done:
		return err
	}
}

// WithTimeoutResult executes fn with a timeout boundary, returning both
// result and error.
func WithTimeoutResult[T any](ctx context.Context, config TimeoutConfig, fn func() (T, error)) (T, error) {
	var zero T
	if config.Duration == 0 {
		return fn()
	}

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := fn()
		done <- outcome{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", config.Duration.String()).
			WithRecoverable(true)
	case out := <-done:
		return out.value, out.err
	}
}

// IsTimeout reports whether the error is a timeout boundary error.
func IsTimeout(err error) bool {
	we := errors.AsWardenError(err)
	return we != nil && we.Code == errors.CodeTimeout
}
