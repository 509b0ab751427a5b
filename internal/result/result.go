// Package result wraps a decoded JSON response with status, headers and
// dot-path lookup.
package result

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Result is a decoded response. Body holds generic JSON values
// (map[string]any, []any, string, float64 or json.Number, bool, nil).
type Result struct {
	status int
	header http.Header
	body   any
}

// New wraps an already decoded body.
func New(status int, header http.Header, body any) *Result {
	if header == nil {
		header = http.Header{}
	}
	return &Result{status: status, header: header, body: body}
}

// Decode parses raw JSON into a Result. An empty payload yields a nil body.
func Decode(status int, header http.Header, raw []byte) (*Result, error) {
	var body any
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
	}
	return New(status, header, body), nil
}

// Status returns the HTTP status code.
func (r *Result) Status() int { return r.status }

// IsOK reports whether the status is 2xx.
func (r *Result) IsOK() bool { return r.status >= 200 && r.status < 300 }

// Body returns the decoded body.
func (r *Result) Body() any { return r.body }

// Headers returns a copy of the response headers.
func (r *Result) Headers() http.Header { return r.header.Clone() }

// Header returns the comma-joined values of the named header, matching the
// name case-insensitively, or def when absent.
func (r *Result) Header(name string, def ...string) string {
	var values []string
	for k, vs := range r.header {
		if strings.EqualFold(k, name) {
			values = append(values, vs...)
		}
	}
	if len(values) == 0 {
		if len(def) > 0 {
			return def[0]
		}
		return ""
	}
	return strings.Join(values, ",")
}

// Lookup walks a dot-separated path through the body. Numeric segments
// index into arrays. It reports false when any segment is missing or when
// the walk reaches null.
func (r *Result) Lookup(path string) (any, bool) {
	if path == "" {
		return r.body, r.body != nil
	}
	current := r.body
	for _, seg := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
		if current == nil {
			return nil, false
		}
	}
	return current, true
}

// Get returns the value at path, or the default when the path does not
// resolve. The default may be a plain value, a func() any, or a
// func(string) any that receives the path.
func (r *Result) Get(path string, def ...any) any {
	if v, ok := r.Lookup(path); ok {
		return v
	}
	if len(def) == 0 {
		return nil
	}
	switch d := def[0].(type) {
	case func() any:
		return d()
	case func(string) any:
		return d(path)
	default:
		return d
	}
}

// DecodePath re-encodes the value at path and decodes it into target.
func (r *Result) DecodePath(path string, target any) error {
	v, ok := r.Lookup(path)
	if !ok {
		return fmt.Errorf("result path %q not found", path)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

// MarshalJSON encodes the body.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.body)
}
