package identity

import (
	"fmt"

	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/pkg/failure"
)

type IdentityErrorCause string

const (
	ErrCauseHashFailure     IdentityErrorCause = "hash failed"
	ErrCauseRegisterFailure IdentityErrorCause = "register failed"
)

type IdentityError struct {
	Message   string
	Retryable bool
	Cause     IdentityErrorCause
	Err       error
}

func (e *IdentityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity error: %s, %s: %v", e.Cause, e.Message, e.Err)
	}
	return fmt.Sprintf("identity error: %s, %s", e.Cause, e.Message)
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

func (e *IdentityError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *IdentityError) IsRetryable() bool {
	return e.Retryable
}

func mapIdentityErrorToMetadataCause(err *IdentityError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseHashFailure:
		return metadata.CauseConfigInvalid
	case ErrCauseRegisterFailure:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
