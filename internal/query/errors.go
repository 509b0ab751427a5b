package query

import (
	"errors"
	"fmt"
	"strings"
)

// MaxSubQueryDepth bounds how deeply groups and existence matches may nest.
const MaxSubQueryDepth = 32

// UnsupportedOperationError reports an aggregation method outside the
// supported set.
type UnsupportedOperationError struct {
	Operation string
	Supported []string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s aggregation method is not supported, supported methods are %s",
		e.Operation, strings.Join(e.Supported, ", "))
}

// IsUnsupportedOperation reports whether err is an UnsupportedOperationError.
func IsUnsupportedOperation(err error) bool {
	var ue *UnsupportedOperationError
	return errors.As(err, &ue)
}

// NestingError reports a sub-query nested deeper than MaxSubQueryDepth.
type NestingError struct {
	Depth int
	Max   int
}

// Error implements the error interface.
func (e *NestingError) Error() string {
	return fmt.Sprintf("sub-query nesting depth %d exceeds maximum %d", e.Depth, e.Max)
}

// ParseError reports a malformed _query document.
type ParseError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Kind == "" {
		return "parse query: " + msg
	}
	return fmt.Sprintf("parse query: %s: %s", e.Kind, msg)
}

// Unwrap returns the underlying decode error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}
