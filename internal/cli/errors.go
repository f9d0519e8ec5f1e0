package cli

import (
	"errors"

	"github.com/example/taskly/internal/errs"
)

// Exit codes by error kind.
const (
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
	exitConflict   = 4
	exitStore      = 5
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errs.ErrValidation):
		return exitValidation
	case errors.Is(err, errs.ErrNotFound):
		return exitNotFound
	case errors.Is(err, errs.ErrConflict):
		return exitConflict
	case errors.Is(err, errs.ErrStore):
		return exitStore
	default:
		return exitFailure
	}
}
