// Package transporttest provides an in-memory transport.Client backed by a
// routing table of canned responses.
//
// Routes are keyed by URL path and method; the scheme, host and query
// string of an incoming request are ignored. Paths are normalized with a
// leading slash, so "posts" and "/posts" name the same route.
//
//	tbl := transporttest.New()
//	tbl.For("/posts/2", transporttest.JSON(200, map[string]any{"data": ...}), "GET")
//	q, _ := resource.New("http://api.test/posts", resource.WithClient(tbl))
package transporttest

import (
	"context"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/roach88/restq/internal/transport"
)

// Route is one canned response.
type Route struct {
	Method   string
	Response *transport.Response
}

// Table is a routing table. It is safe for concurrent use.
type Table struct {
	mu       sync.Mutex
	routes   map[string][]Route
	requests []transport.Request
}

// New returns an empty table.
func New() *Table {
	return &Table{routes: make(map[string][]Route)}
}

// For registers resp for path and method. An empty method accepts GET only.
// A path may carry one route per method; the first registration for a
// method wins.
func (t *Table) For(path string, resp *transport.Response, method string) *Table {
	if method == "" {
		method = http.MethodGet
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	key := normalize(path)
	t.routes[key] = append(t.routes[key], Route{Method: method, Response: resp})
	return t
}

// SetRouteResponses registers several routes at once, keeping the order
// given for each path.
func (t *Table) SetRouteResponses(routes map[string][]Route) *Table {
	for path, rs := range routes {
		for _, r := range rs {
			t.For(path, r.Response, r.Method)
		}
	}
	return t
}

// Requests returns every request the table has received, in order.
func (t *Table) Requests() []transport.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]transport.Request(nil), t.requests...)
}

// LastRequest returns the most recent request, or nil.
func (t *Table) LastRequest() *transport.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return nil
	}
	r := t.requests[len(t.requests)-1]
	return &r
}

// SendRequest implements transport.Client.
//
// Unknown paths fail with a 404 RequestError; a known path requested with a
// different method fails with 403. Methods compare case-insensitively.
func (t *Table) SendRequest(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &transport.RequestError{Method: req.Method, URL: req.URL, Err: err}
	}

	t.mu.Lock()
	t.requests = append(t.requests, snapshot(req))
	routes, ok := t.routes[normalize(pathOf(req.URL))]
	t.mu.Unlock()

	if !ok {
		resp := transport.NewResponse(http.StatusNotFound, []byte("Bad request"), nil)
		return resp, transport.CheckStatus(req, resp)
	}
	idx := slices.IndexFunc(routes, func(r Route) bool { return strings.EqualFold(r.Method, req.Method) })
	if idx < 0 {
		resp := transport.NewResponse(http.StatusForbidden, []byte("Unauthorized request method"), nil)
		return resp, transport.CheckStatus(req, resp)
	}
	route := routes[idx]

	resp := transport.NewResponse(route.Response.Status, route.Response.Body, route.Response.Header)
	return resp, transport.CheckStatus(req, resp)
}

// JSON builds a response with a JSON encoded body.
func JSON(status int, body any) *transport.Response {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return transport.NewResponse(status, raw, http.Header{"Content-Type": {"application/json"}})
}

// snapshot copies req so later changes by the caller do not alter what was
// recorded. Map bodies are copied one level deep.
func snapshot(req *transport.Request) transport.Request {
	out := *req
	out.Header = req.Header.Clone()
	if m, ok := req.Body.(map[string]any); ok {
		out.Body = maps.Clone(m)
	}
	return out
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

func normalize(path string) string {
	return "/" + strings.TrimLeft(path, "/")
}
