package cli

import (
	"errors"
	"fmt"

	"github.com/brandonbloom/runstub/internal/patch"
	"github.com/brandonbloom/runstub/internal/planfile"
)

// usageError marks a malformed command line, as opposed to I/O or template
// trouble.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

// ExitCode classifies an Execute error per the finalizer contract: 2 for a
// malformed command line or plan, 1 for I/O and template failures.
func ExitCode(err error) int {
	var ue *usageError
	switch {
	case errors.As(err, &ue),
		errors.Is(err, patch.ErrBadPlan),
		errors.Is(err, planfile.ErrInvalid):
		return 2
	}
	return 1
}
