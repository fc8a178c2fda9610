package pipeline

import (
	"errors"
	"fmt"

	"github.com/jonathan/career-transitions/internal/directory"
)

// ResolveError reports a company named in a query that the directory could not resolve.
type ResolveError struct {
	Company string
	Cause   error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve company %q: %v", e.Company, e.Cause)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err means the company does not exist upstream.
func IsNotFound(err error) bool {
	return errors.Is(err, directory.ErrNotFound)
}
