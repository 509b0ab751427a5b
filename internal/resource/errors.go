package resource

import (
	"errors"
	"fmt"
)

// InvalidArgumentError reports a malformed constructor argument.
type InvalidArgumentError struct {
	Argument string
	Value    string
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Argument, e.Value, e.Message)
}

// Unwrap returns the parse error, if any.
func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}

// IsInvalidArgument reports whether err is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ie *InvalidArgumentError
	return errors.As(err, &ie)
}
