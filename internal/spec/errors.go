package spec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec marks a header that is malformed in a way that fails only the
	// test it belongs to.
	ErrInvalidSpec = errors.New("invalid test case spec")

	// ErrCannotOpen is returned when the test source cannot be opened.
	ErrCannotOpen = errors.New("cannot open")

	// ErrCannotRead is returned when the test source is empty or unreadable.
	ErrCannotRead = errors.New("cannot read")
)

// ParseError is a malformed header. It aborts the whole batch.
type ParseError struct {
	Path   string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("invalid input spec @ %d", e.Offset)
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
