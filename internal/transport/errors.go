package transport

import (
	"errors"
	"fmt"
)

// RequestError reports a failed exchange. Status is 0 when no response was
// received.
type RequestError struct {
	Method string
	URL    string
	Status int
	Body   []byte
	Err    error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// Unwrap returns the transport failure, if any.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsRequestError reports whether err is a RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// StatusOf returns the HTTP status carried by a RequestError in err's chain,
// or 0.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// ResponseDecodeError reports a response body that is not valid JSON.
type ResponseDecodeError struct {
	Status int
	Body   []byte
	Err    error
}

// Error implements the error interface.
func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("decode response (status %d): %v", e.Status, e.Err)
}

// Unwrap returns the decoder error.
func (e *ResponseDecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is a ResponseDecodeError.
func IsDecodeError(err error) bool {
	var de *ResponseDecodeError
	return errors.As(err, &de)
}
