package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rohmanhakim/canonurl/pkg/failure"
	"github.com/rohmanhakim/canonurl/pkg/timeutil"
)

// Retry executes fn until it succeeds, returns a non-retryable error, the attempts
// run out, or ctx is done. Between attempts it waits for an exponential backoff
// with jitter.
//
// Type parameter T represents the return type of the function being retried.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func(ctx context.Context) (T, failure.ClassifiedError),
) Result[T] {
	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: true,
			},
		}
	}

	rng := rand.New(rand.NewSource(retryParam.RandomSeed))

	var lastErr failure.ClassifiedError
	for attempt := 1; attempt <= retryParam.MaxAttempts; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return Result[T]{value: value, attempts: attempt}
		}
		lastErr = err

		if !isErrorRetryable(err) {
			return Result[T]{err: err, attempts: attempt}
		}

		if attempt == retryParam.MaxAttempts {
			break
		}

		delay := timeutil.ExponentialBackoffDelay(
			attempt,
			retryParam.Jitter,
			rng,
			retryParam.BackoffParam,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result[T]{
				err: &RetryError{
					Message:   fmt.Sprintf("stopped after %d attempts: %v", attempt, ctx.Err()),
					Cause:     ErrCancelled,
					Retryable: false,
					Last:      lastErr,
				},
				attempts: attempt,
			}
		case <-timer.C:
		}
	}

	return Result[T]{
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: true,
			Last:      lastErr,
		},
		attempts: retryParam.MaxAttempts,
	}
}

// isErrorRetryable checks if an error should be retried.
// Errors that do not expose IsRetryable fall back to their severity.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}

	return err.Severity() == failure.SeverityRecoverable
}
