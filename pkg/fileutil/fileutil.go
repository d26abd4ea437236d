package fileutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rohmanhakim/canonurl/pkg/failure"
)

// Extension returns the lower-cased file extension of path without the leading dot,
// or an empty string if there is none.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) failure.ClassifiedError {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &FileError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      dir,
		}
	}
	return nil
}

// EnsureParentDir creates the directory that will hold the file at path.
func EnsureParentDir(path string) failure.ClassifiedError {
	return EnsureDir(filepath.Dir(path))
}
