package storage

import (
	"fmt"

	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/pkg/failure"
)

type StorageErrorCause string

const (
	ErrCauseConnectionFailure StorageErrorCause = "connection failed"
	ErrCauseMigrationFailure  StorageErrorCause = "migration failed"
	ErrCauseReadFailure       StorageErrorCause = "read failed"
	ErrCauseWriteFailure      StorageErrorCause = "write failed"
	ErrCauseDecodeFailure     StorageErrorCause = "decode failed"
	ErrCauseUnknownDriver     StorageErrorCause = "unknown driver"
)

type StorageError struct {
	Message   string
	Retryable bool
	Cause     StorageErrorCause
	Backend   string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage error (%s): %s, %s: %v", e.Backend, e.Cause, e.Message, e.Err)
	}
	return fmt.Sprintf("storage error (%s): %s, %s", e.Backend, e.Cause, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *StorageError) IsRetryable() bool {
	return e.Retryable
}

// NewError builds a StorageError. Connection, read and write failures are retryable;
// decode, migration and driver failures are not.
func NewError(backend string, cause StorageErrorCause, message string, err error) *StorageError {
	return &StorageError{
		Message:   message,
		Retryable: cause == ErrCauseConnectionFailure || cause == ErrCauseReadFailure || cause == ErrCauseWriteFailure,
		Cause:     cause,
		Backend:   backend,
		Err:       err,
	}
}

// MapStorageErrorToMetadataCause maps storage-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func MapStorageErrorToMetadataCause(err *StorageError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseConnectionFailure,
		ErrCauseMigrationFailure,
		ErrCauseReadFailure,
		ErrCauseWriteFailure,
		ErrCauseDecodeFailure:
		return metadata.CauseStorageFailure
	case ErrCauseUnknownDriver:
		return metadata.CauseConfigInvalid
	default:
		return metadata.CauseUnknown
	}
}
