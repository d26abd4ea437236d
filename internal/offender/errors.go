package offender

import (
	"fmt"

	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/pkg/failure"
)

type RegistryErrorCause string

const (
	ErrCauseInvalidHostname RegistryErrorCause = "invalid hostname"
	ErrCauseStoreWrite      RegistryErrorCause = "store write failed"
	ErrCauseStoreRead       RegistryErrorCause = "store read failed"
)

type RegistryError struct {
	Message   string
	Retryable bool
	Cause     RegistryErrorCause
	Err       error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry error: %s, %s: %v", e.Cause, e.Message, e.Err)
	}
	return fmt.Sprintf("registry error: %s, %s", e.Cause, e.Message)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

func (e *RegistryError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *RegistryError) IsRetryable() bool {
	return e.Retryable
}

// mapRegistryErrorToMetadataCause maps registry-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapRegistryErrorToMetadataCause(err *RegistryError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidHostname:
		return metadata.CauseContentInvalid
	case ErrCauseStoreWrite, ErrCauseStoreRead:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
