package slug

import (
	"fmt"

	"github.com/rohmanhakim/canonurl/internal/metadata"
	"github.com/rohmanhakim/canonurl/pkg/failure"
)

type SlugErrorCause string

const (
	ErrCauseInvalidPattern  SlugErrorCause = "invalid pattern"
	ErrCauseMissingCapture  SlugErrorCause = "missing capture group"
	ErrCauseInvalidHostname SlugErrorCause = "invalid hostname"
)

type SlugError struct {
	Message string
	Cause   SlugErrorCause
}

func (e *SlugError) Error() string {
	return fmt.Sprintf("slug rule error: %s, %s", e.Cause, e.Message)
}

// Severity is always fatal: a broken rule table is a configuration mistake.
func (e *SlugError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// MapSlugErrorToMetadataCause maps slug-table error semantics to the canonical
// metadata.ErrorCause table. Observational only.
func MapSlugErrorToMetadataCause(err *SlugError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInvalidPattern, ErrCauseMissingCapture, ErrCauseInvalidHostname:
		return metadata.CauseConfigInvalid
	default:
		return metadata.CauseUnknown
	}
}
