// Package resource is the caller-facing query client for one REST resource.
//
// A Query pairs a resource URL and request headers with a query.Builder and
// a transport.Client. Filter methods mutate the Query in place and return it
// for chaining; header methods return a deep copy so a configured base query
// can be shared:
//
//	posts, err := resource.New("https://api.example.com/posts")
//	authed := posts.WithBearerAuthorization(token)
//	res, err := authed.Clone().Eq("status", "open").Sort("id", -1).Execute(ctx)
//
// The CRUD verbs (Create, Update, Get, Delete) accept several argument
// shapes and route them through the overload dispatcher.
package resource

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jzelinskie/stringz"

	"github.com/roach88/restq/internal/query"
	"github.com/roach88/restq/internal/transport"
)

// Query is a query client bound to one resource URL.
//
// A Query is not safe for concurrent use; Clone it per goroutine.
type Query struct {
	host    string
	path    string
	header  http.Header
	client  transport.Client
	builder *query.Builder
}

// Option configures a Query.
type Option func(*Query)

// WithClient sets the transport. The default is a transport.HTTPClient.
func WithClient(c transport.Client) Option {
	return func(q *Query) { q.client = c }
}

// New validates rawURL and returns a Query for it. The URL must be absolute
// with a scheme and host.
func New(rawURL string, opts ...Option) (*Query, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &InvalidArgumentError{
			Argument: "url",
			Value:    rawURL,
			Message:  "expected a valid resource url",
			Err:      err,
		}
	}

	q := &Query{
		host: strings.TrimRight(rawURL, "/"),
		header: http.Header{
			"Content-Type": {"application/json"},
			"Accept":       {"*"},
		},
		builder: query.New(),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.client == nil {
		q.client = transport.NewHTTPClient()
	}
	return q, nil
}

// From appends path to the base URL. A later call replaces the earlier path.
func (q *Query) From(path string) *Query {
	q.path = strings.TrimLeft(path, "/")
	return q
}

// URL returns the resource URL.
func (q *Query) URL() string {
	if q.path == "" {
		return q.host
	}
	return stringz.Join("/", q.host, q.path)
}

// Headers returns a copy of the request headers.
func (q *Query) Headers() http.Header {
	return q.header.Clone()
}

// Builder returns the underlying builder. Mutating it mutates the Query.
func (q *Query) Builder() *query.Builder {
	return q.builder
}

// Clone returns a deep copy sharing only the transport.
func (q *Query) Clone() *Query {
	return &Query{
		host:    q.host,
		path:    q.path,
		header:  q.header.Clone(),
		client:  q.client,
		builder: q.builder.Clone(),
	}
}

// WithHeader returns a copy with value appended to the named header.
func (q *Query) WithHeader(name, value string) *Query {
	out := q.Clone()
	out.header.Add(name, value)
	return out
}

// WithContentType returns a copy with the content type replaced.
func (q *Query) WithContentType(value string) *Query {
	out := q.Clone()
	out.header.Set("Content-Type", value)
	return out
}

// WithAuthorization returns a copy whose Authorization header is
// "<scheme> <token>". An empty scheme means Bearer.
func (q *Query) WithAuthorization(token, scheme string) *Query {
	scheme = stringz.DefaultEmpty(strings.TrimSpace(scheme), "Bearer")
	out := q.Clone()
	out.header.Set("Authorization", scheme+" "+strings.TrimSpace(token))
	return out
}

// WithBearerAuthorization is WithAuthorization(token, "Bearer").
func (q *Query) WithBearerAuthorization(token string) *Query {
	return q.WithAuthorization(token, "Bearer")
}

// WithBasicAuthorization returns a copy carrying HTTP basic credentials.
func (q *Query) WithBasicAuthorization(user string, password any) *Query {
	cred := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%v", user, password)))
	return q.WithAuthorization(cred, "Basic")
}

// Body implements query.BodyBuilder, so a Query can be passed to Get.
func (q *Query) Body() (map[string]any, error) {
	return q.builder.Body()
}

// Envelope serializes the accumulated query.
func (q *Query) Envelope() (query.Envelope, error) {
	return q.builder.Envelope()
}
