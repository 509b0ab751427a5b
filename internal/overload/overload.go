// Package overload selects a handler for a call based on the runtime shape
// of its arguments.
//
// Public entry points such as Get or Update accept several argument shapes.
// Each shape is described by a Candidate: an ordered list of parameter
// matchers plus a typed handler. Dispatch walks the candidates in
// declaration order and calls the first whose parameters accept every
// argument, so more specific shapes must be listed before general ones.
package overload

import (
	"errors"
	"fmt"
	"strings"
)

// Candidate is one accepted argument shape and the handler bound to it.
type Candidate[R any] struct {
	// Name identifies the shape in logs and errors.
	Name string

	// Params are matched positionally against the arguments.
	Params []Param

	// Call receives the normalized arguments, with defaults filled in for
	// omitted optional parameters.
	Call func(args []any) (R, error)
}

// NoMatchingOverloadError reports that no candidate accepted the arguments.
type NoMatchingOverloadError struct {
	ArgTypes   []string
	Candidates []string
}

// Error implements the error interface.
func (e *NoMatchingOverloadError) Error() string {
	return fmt.Sprintf("no matching overload for arguments (%s); tried %d candidate(s): %s",
		strings.Join(e.ArgTypes, ", "), len(e.Candidates), strings.Join(e.Candidates, " | "))
}

// IsNoMatchingOverload reports whether err is a NoMatchingOverloadError.
func IsNoMatchingOverload(err error) bool {
	var ne *NoMatchingOverloadError
	return errors.As(err, &ne)
}

// Resolve returns the first candidate whose parameters accept args, along
// with the normalized argument list. It has no side effects.
func Resolve[R any](args []any, candidates ...Candidate[R]) (Candidate[R], []any, error) {
	for _, c := range candidates {
		if bound, ok := bind(c.Params, args); ok {
			return c, bound, nil
		}
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.signature()
	}
	return Candidate[R]{}, nil, &NoMatchingOverloadError{ArgTypes: typeNames(args), Candidates: names}
}

// Dispatch resolves the candidate for args and calls it.
func Dispatch[R any](args []any, candidates ...Candidate[R]) (R, error) {
	c, bound, err := Resolve(args, candidates...)
	if err != nil {
		var zero R
		return zero, err
	}
	return c.Call(bound)
}

// bind checks arity and per-position types. Trailing optional parameters
// may be omitted; a nil argument also takes an optional parameter's default.
func bind(params []Param, args []any) ([]any, bool) {
	if len(args) > len(params) {
		return nil, false
	}

	out := make([]any, len(params))
	for i, p := range params {
		def, optional := defaultOf(p)
		if i >= len(args) {
			if !optional {
				return nil, false
			}
			out[i] = def
			continue
		}
		if args[i] == nil && optional {
			out[i] = def
			continue
		}
		v, ok := p.Match(args[i])
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (c Candidate[R]) signature() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.String()
	}
	sig := "(" + strings.Join(parts, ", ") + ")"
	if c.Name != "" {
		return c.Name + sig
	}
	return sig
}

func typeNames(args []any) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			out[i] = "nil"
			continue
		}
		out[i] = fmt.Sprintf("%T", a)
	}
	return out
}
