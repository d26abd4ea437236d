package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/canonurl/pkg/failure"
	"github.com/rohmanhakim/canonurl/pkg/retry"
	"github.com/rohmanhakim/canonurl/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultBackoffParam() timeutil.BackoffParam {
	return timeutil.NewBackoffParam(
		time.Millisecond,
		2.0,
		10*time.Millisecond,
	)
}

type mockError struct {
	msg       string
	retryable bool
	severity  failure.Severity
}

func (m *mockError) Error() string {
	return m.msg
}

func (m *mockError) Severity() failure.Severity {
	return m.severity
}

func (m *mockError) IsRetryable() bool {
	return m.retryable
}

func transient() *mockError {
	return &mockError{msg: "transient error", retryable: true, severity: failure.SeverityRecoverable}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	callCount := 0
	fn := func(context.Context) (string, failure.ClassifiedError) {
		callCount++
		return "success", nil
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(time.Millisecond, 42, 3, defaultBackoffParam()), fn)

	require.True(t, result.IsSuccess())
	assert.Equal(t, "success", result.Value())
	assert.Equal(t, 1, result.Attempts())
	assert.Equal(t, 1, callCount)
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	fn := func(context.Context) (int, failure.ClassifiedError) {
		callCount++
		if callCount < 3 {
			return 0, transient()
		}
		return 42, nil
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(time.Millisecond, 42, 5, defaultBackoffParam()), fn)

	require.True(t, result.IsSuccess())
	assert.Equal(t, 42, result.Value())
	assert.Equal(t, 3, result.Attempts())
}

func TestRetry_NonRetryableErrorReturnsImmediately(t *testing.T) {
	expectedErr := &mockError{msg: "fatal error", retryable: false, severity: failure.SeverityFatal}
	callCount := 0
	fn := func(context.Context) (string, failure.ClassifiedError) {
		callCount++
		return "", expectedErr
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(time.Millisecond, 42, 5, defaultBackoffParam()), fn)

	require.True(t, result.IsFailure())
	assert.Equal(t, 1, result.Attempts())
	assert.Equal(t, 1, callCount)
	assert.Same(t, expectedErr, result.Err())
}

func TestRetry_ExhaustedAttempts(t *testing.T) {
	callCount := 0
	fn := func(context.Context) (int, failure.ClassifiedError) {
		callCount++
		return 0, transient()
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(time.Millisecond, 42, 3, defaultBackoffParam()), fn)

	require.True(t, result.IsFailure())
	assert.Equal(t, 3, result.Attempts())
	assert.Equal(t, 3, callCount)
	assert.Equal(t, failure.SeverityRecoverable, result.Err().Severity())

	var retryErr *retry.RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, retry.ErrExhaustedAttempts, retryErr.Cause)

	var last *mockError
	assert.True(t, errors.As(result.Err(), &last), "last error should be reachable through Unwrap")
}

func TestRetry_MaxAttemptsLessThanOne(t *testing.T) {
	called := false
	fn := func(context.Context) (string, failure.ClassifiedError) {
		called = true
		return "success", nil
	}

	result := retry.Retry(context.Background(), retry.NewRetryParam(time.Millisecond, 42, 0, defaultBackoffParam()), fn)

	require.True(t, result.IsFailure())
	assert.False(t, called)
	assert.Equal(t, 0, result.Attempts())

	var retryErr *retry.RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, retry.ErrZeroAttempt, retryErr.Cause)
}

func TestRetry_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0
	fn := func(context.Context) (string, failure.ClassifiedError) {
		callCount++
		cancel()
		return "", transient()
	}

	backoff := timeutil.NewBackoffParam(time.Minute, 2.0, time.Minute)
	result := retry.Retry(ctx, retry.NewRetryParam(0, 42, 5, backoff), fn)

	require.True(t, result.IsFailure())
	assert.Equal(t, 1, callCount)
	assert.Equal(t, failure.SeverityFatal, result.Err().Severity())

	var retryErr *retry.RetryError
	require.True(t, errors.As(result.Err(), &retryErr))
	assert.Equal(t, retry.ErrCancelled, retryErr.Cause)
}

type errorWithoutIsRetryable struct {
	severity failure.Severity
}

func (e *errorWithoutIsRetryable) Error() string {
	return "error without retryable flag"
}

func (e *errorWithoutIsRetryable) Severity() failure.Severity {
	return e.severity
}

func TestRetry_FallsBackToSeverity(t *testing.T) {
	tests := []struct {
		name          string
		severity      failure.Severity
		expectedCalls int
	}{
		{name: "recoverable is retried", severity: failure.SeverityRecoverable, expectedCalls: 2},
		{name: "fatal is not retried", severity: failure.SeverityFatal, expectedCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callCount := 0
			fn := func(context.Context) (string, failure.ClassifiedError) {
				callCount++
				if callCount < 2 {
					return "", &errorWithoutIsRetryable{severity: tt.severity}
				}
				return "success", nil
			}

			retry.Retry(context.Background(), retry.NewRetryParam(time.Millisecond, 42, 3, defaultBackoffParam()), fn)

			assert.Equal(t, tt.expectedCalls, callCount)
		})
	}
}
