package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is fatal immediately: missing/oversized file, malformed
	// payload. No fallback runs after it.
	ErrValidation = errors.New("validation error")
	// ErrServiceUnavailable marks a backend being down or answering garbage.
	// Recoverable inside the extraction fallback chain, fatal once exhausted.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrOutputWrite is a disk or permission failure writing results.
	ErrOutputWrite = errors.New("output write error")

	ErrJobNotFound     = errors.New("job not found")
	ErrDatasetNotFound = errors.New("dataset not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
