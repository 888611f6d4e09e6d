package content

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("content not found")
	// ErrNoChanges rejects a version whose fingerprint equals the current one.
	ErrNoChanges       = errors.New("no changes detected")
	ErrVersionConflict = errors.New("content was modified concurrently")
	ErrSlugTaken       = errors.New("content with this slug already exists")
)

// ValidationError lists the problems found in a draft or update.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid content: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(msg string) {
	e.Problems = append(e.Problems, msg)
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
