package failure

import "errors"

type Severity int

// caller control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}

// IsFatal reports whether err carries a fatal classification anywhere in its chain.
// Unclassified errors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var classified ClassifiedError
	if errors.As(err, &classified) {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// Classify returns err as a ClassifiedError. An error that is not classified itself
// takes the severity of the first classified error in its chain, or fatal if none.
func Classify(err error) ClassifiedError {
	if err == nil {
		return nil
	}
	if classified, ok := err.(ClassifiedError); ok {
		return classified
	}
	severity := SeverityFatal
	if !IsFatal(err) {
		severity = SeverityRecoverable
	}
	return &classifiedError{err: err, severity: severity}
}

type classifiedError struct {
	err      error
	severity Severity
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

func (e *classifiedError) Severity() Severity {
	return e.severity
}

func (e *classifiedError) IsRetryable() bool {
	return e.severity == SeverityRecoverable
}
