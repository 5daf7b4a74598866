package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"holiday-pipeline/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PipelineError struct {
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ PipelineError }
type StorageError struct{ PipelineError }
type ValidationError struct{ PipelineError }
type MigrationError struct{ PipelineError }

// NetworkError is a generic fetch failure. StatusCode is 0 for transport errors.
type NetworkError struct {
	PipelineError
	StatusCode int
}

func NewNetworkError(message string, status int, cause error) *NetworkError {
	return &NetworkError{PipelineError: PipelineError{Message: message, Cause: cause}, StatusCode: status}
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{PipelineError{Message: message, Cause: cause}}
}

func NewMigrationError(message string, cause error) *MigrationError {
	return &MigrationError{PipelineError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{PipelineError{Message: message, Cause: cause}}
}

// ErrHolidayDataNotFound means no persisted file exists for a (country, year).
var ErrHolidayDataNotFound = errors.New("holiday data not found")

// Fatal migration conditions, matched with errors.Is
var (
	ErrSourceNotFound    = errors.New("migration source file not found")
	ErrInvalidSourceJSON = errors.New("migration source file is not valid JSON")
	ErrTargetUnreachable = errors.New("migration target unreachable")
	ErrRolledBack        = errors.New("migration rolled back after batch failure")
)

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// Retry defaults
const (
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = 1000 * time.Millisecond
)

// RetryPolicy is linear: the delay before attempt n (n > 1) is BaseDelay * (n-1).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns 3 attempts with a 1s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultRetryBaseDelay, Sleep: SleepContext}
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retry runs fn up to policy.MaxAttempts times. When every attempt fails the
// last error is returned as-is so callers can inspect the root cause.
func Retry[T any](ctx context.Context, policy RetryPolicy, operation string, log *logger.Logger, fn func() (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := policy.BaseDelay * time.Duration(attempt-1)
			if log != nil {
				log.Warning("%s failed (attempt %d/%d): %v. Retrying in %v", operation, attempt-1, attempts, lastErr, delay)
			}
			if err := sleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}
		lastErr = err
	}

	if log != nil {
		log.Error("%s failed after %d attempts: %v", operation, attempts, lastErr)
	}
	return zero, lastErr
}
