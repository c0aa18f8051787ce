package display

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoGammaControlSupport is returned when the display server does not
	// advertise the gamma control extension.
	ErrNoGammaControlSupport = errors.New("compositor doesn't support wlr-gamma-control-unstable-v1")
	// ErrResourceExhausted is returned when the shared memory for a gamma
	// table cannot be allocated or mapped.
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrOutputFailed      = errors.New("output failed")
	ErrAllOutputsFailed  = errors.New("all outputs failed")
	ErrUnknownOutput     = errors.New("unknown output")
	ErrInvalidRampSize   = errors.New("invalid ramp size")
	ErrClosed            = errors.New("display closed")
)

// OutputError describes why a single output could not be updated.
type OutputError struct {
	ID  OutputID
	Err error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output %d: %s", e.ID, e.Err)
}

func (e *OutputError) Unwrap() []error {
	return []error{ErrOutputFailed, e.Err}
}

// AggregateError is returned by Session.Apply when every ready output that was
// attempted failed.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("%s: %s", ErrAllOutputsFailed, strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error {
	return append([]error{ErrAllOutputsFailed}, e.Errors...)
}
