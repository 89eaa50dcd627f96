package harness

import (
	"errors"
	"fmt"
)

// Process exit statuses.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
	ExitFatal  = 5
)

// FatalError aborts the batch. No further tests run after it.
type FatalError struct {
	Path string
	Err  error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fatal error in %s", e.Path)
	}
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error { return e.Err }

// Status is the exit status for a fatal error.
func (e *FatalError) Status() int { return ExitFatal }

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
