package extract

import (
	"fmt"

	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseReadFailure   ExtractionErrorCause = "read failed"
	ErrCauseUnknownFormat  ExtractionErrorCause = "unknown format"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction error: %s, %s: %v", e.Cause, e.Message, e.Err)
	}
	return fmt.Sprintf("extraction error: %s, %s", e.Cause, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// MapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func MapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseReadFailure, ErrCauseUnknownFormat:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
