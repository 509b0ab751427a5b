// Package transport sends restq requests and returns raw responses.
//
// Client is the single seam between query construction and the network.
// HTTPClient talks to a real backend; BreakerClient, Recorder and Replayer
// wrap any Client; transporttest provides an in-memory routing table.
//
// Every Client applies the same status rule: a response whose status lies
// outside [200, 204] is reported as a *RequestError carrying the status and
// body.
package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/roach88/restq/internal/result"
)

// Request is a single outbound call.
type Request struct {
	Method string
	URL    string

	// Body is JSON encoded when non-nil. GET requests carry a body too; the
	// backend reads the query envelope from it.
	Body any

	Header http.Header
}

// Client sends a request and returns its response.
type Client interface {
	SendRequest(ctx context.Context, req *Request) (*Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *Request) (*Response, error)

// SendRequest calls f.
func (f ClientFunc) SendRequest(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Response is a raw response. The With* methods return modified copies.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse builds a response with a cloned header set.
func NewResponse(status int, body []byte, header http.Header) *Response {
	if header == nil {
		header = http.Header{}
	}
	return &Response{Status: status, Header: header.Clone(), Body: body}
}

// JSONResponse builds a 200 response whose body is v encoded as JSON.
func JSONResponse(v any) (*Response, error) {
	raw, err := encodeBody(v)
	if err != nil {
		return nil, err
	}
	return NewResponse(http.StatusOK, raw, http.Header{"Content-Type": {"application/json"}}), nil
}

// WithBody returns a copy with the body replaced.
func (r *Response) WithBody(body []byte) *Response {
	out := r.clone()
	out.Body = append([]byte(nil), body...)
	return out
}

// WithHeaders returns a copy with the header set replaced.
func (r *Response) WithHeaders(h http.Header) *Response {
	out := r.clone()
	out.Header = h.Clone()
	if out.Header == nil {
		out.Header = http.Header{}
	}
	return out
}

// WithAddedHeader returns a copy with value appended to the named header.
func (r *Response) WithAddedHeader(name, value string) *Response {
	out := r.clone()
	for k := range out.Header {
		if strings.EqualFold(k, name) {
			out.Header[k] = append(out.Header[k], value)
			return out
		}
	}
	out.Header.Add(name, value)
	return out
}

func (r *Response) clone() *Response {
	return &Response{Status: r.Status, Header: r.Header.Clone(), Body: r.Body}
}

// Result decodes the body into a navigable result.
func (r *Response) Result() (*result.Result, error) {
	res, err := result.Decode(r.Status, r.Header, r.Body)
	if err != nil {
		return nil, &ResponseDecodeError{Status: r.Status, Body: r.Body, Err: err}
	}
	return res, nil
}

// CheckStatus returns a *RequestError when resp.Status lies outside
// [200, 204].
func CheckStatus(req *Request, resp *Response) error {
	if resp.Status >= 200 && resp.Status <= 204 {
		return nil
	}
	return &RequestError{
		Method: req.Method,
		URL:    req.URL,
		Status: resp.Status,
		Body:   resp.Body,
	}
}
