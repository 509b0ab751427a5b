package resource

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/restq/internal/overload"
	"github.com/roach88/restq/internal/query"
	"github.com/roach88/restq/internal/result"
	"github.com/roach88/restq/internal/transport"
)

const (
	defaultPage    = 1
	defaultPerPage = 100
)

var allColumns = []string{"*"}

// Create sends POST <url> with the attributes plus {"_query": {"relations": [...]}}.
//
// Accepted shapes:
//
//	Create(ctx, attributes map[string]any, relations ...[]string)
//	Create(ctx, attributes query.BodyBuilder, relations ...[]string)
func (q *Query) Create(ctx context.Context, args ...any) (*result.Result, error) {
	send := func(attrs map[string]any, relations []string) (*result.Result, error) {
		return q.send(ctx, http.MethodPost, q.URL(), withRelations(attrs, relations))
	}
	return overload.Dispatch(args,
		overload.Func2("attributes", overload.Map(), overload.Optional(overload.Strings(), nil),
			func(attrs map[string]any, relations []string) (*result.Result, error) {
				return send(attrs, relations)
			}),
		overload.Func2("builder", overload.Implements[query.BodyBuilder](), overload.Optional(overload.Strings(), nil),
			func(b query.BodyBuilder, relations []string) (*result.Result, error) {
				attrs, err := b.Body()
				if err != nil {
					return nil, err
				}
				return send(attrs, relations)
			}),
	)
}

// Update sends PUT <url>/<id> with the attributes plus the relations
// directive.
//
// Accepted shapes:
//
//	Update(ctx, id int|string, attributes map[string]any, relations ...[]string)
//	Update(ctx, id int|string, attributes query.BodyBuilder, relations ...[]string)
func (q *Query) Update(ctx context.Context, args ...any) (*result.Result, error) {
	send := func(id string, attrs map[string]any, relations []string) (*result.Result, error) {
		return q.send(ctx, http.MethodPut, q.itemURL(id), withRelations(attrs, relations))
	}
	fromBuilder := func(id string, b query.BodyBuilder, relations []string) (*result.Result, error) {
		attrs, err := b.Body()
		if err != nil {
			return nil, err
		}
		return send(id, attrs, relations)
	}
	relations := overload.Optional(overload.Strings(), nil)

	return overload.Dispatch(args,
		overload.Func3("int,attributes", overload.Integer(), overload.Map(), relations,
			func(id int64, attrs map[string]any, rel []string) (*result.Result, error) {
				return send(strconv.FormatInt(id, 10), attrs, rel)
			}),
		overload.Func3("string,attributes", overload.String(), overload.Map(), relations,
			func(id string, attrs map[string]any, rel []string) (*result.Result, error) {
				return send(id, attrs, rel)
			}),
		overload.Func3("int,builder", overload.Integer(), overload.Implements[query.BodyBuilder](), relations,
			func(id int64, b query.BodyBuilder, rel []string) (*result.Result, error) {
				return fromBuilder(strconv.FormatInt(id, 10), b, rel)
			}),
		overload.Func3("string,builder", overload.String(), overload.Implements[query.BodyBuilder](), relations,
			func(id string, b query.BodyBuilder, rel []string) (*result.Result, error) {
				return fromBuilder(id, b, rel)
			}),
	)
}

// Get sends a GET request. The shapes are tried in this order:
//
//	Get(ctx, columns ...[]string)                                  GET <url>
//	Get(ctx, id int, columns ...[]string)                          GET <url>/<id>
//	Get(ctx, id string, columns ...[]string)                       GET <url>/<id>
//	Get(ctx, q query.BodyBuilder, columns []string, page, perPage) GET <url>?page=&per_page=
//	Get(ctx, q map[string]any, columns []string, page, perPage)
//	Get(ctx, q query.BodyBuilder, page, perPage)
//	Get(ctx, q map[string]any, page, perPage)
//
// page and perPage are optional and default to 1 and 100. Without explicit
// columns a query keeps the columns it selected, or "*".
func (q *Query) Get(ctx context.Context, args ...any) (*result.Result, error) {
	columns := overload.Optional(overload.Strings(), allColumns)
	page := overload.Optional(overload.Integer(), int64(defaultPage))
	perPage := overload.Optional(overload.Integer(), int64(defaultPerPage))

	byID := func(id string, cols []string) (*result.Result, error) {
		return q.send(ctx, http.MethodGet, q.itemURL(id), map[string]any{"_columns": cols})
	}
	paged := func(body map[string]any, cols []string, p, pp int64) (*result.Result, error) {
		body = cloneMap(body)
		if cols != nil {
			body["_columns"] = cols
		} else if _, ok := body["_columns"]; !ok {
			body["_columns"] = allColumns
		}
		return q.send(ctx, http.MethodGet, pagedURL(q.URL(), p, pp), body)
	}
	built := func(b query.BodyBuilder, cols []string, p, pp int64) (*result.Result, error) {
		body, err := b.Body()
		if err != nil {
			return nil, err
		}
		return paged(body, cols, p, pp)
	}

	return overload.Dispatch(args,
		overload.Func1("columns", columns, func(cols []string) (*result.Result, error) {
			return q.send(ctx, http.MethodGet, q.URL(), map[string]any{"_columns": cols})
		}),
		overload.Func2("int", overload.Integer(), columns, func(id int64, cols []string) (*result.Result, error) {
			return byID(strconv.FormatInt(id, 10), cols)
		}),
		overload.Func2("string", overload.String(), columns, func(id string, cols []string) (*result.Result, error) {
			return byID(id, cols)
		}),
		overload.Func4("builder,columns", overload.Implements[query.BodyBuilder](), overload.Strings(), page, perPage, built),
		overload.Func4("map,columns", overload.Map(), overload.Strings(), page, perPage, paged),
		overload.Func3("builder", overload.Implements[query.BodyBuilder](), page, perPage,
			func(b query.BodyBuilder, p, pp int64) (*result.Result, error) {
				return built(b, nil, p, pp)
			}),
		overload.Func3("map", overload.Map(), page, perPage,
			func(body map[string]any, p, pp int64) (*result.Result, error) {
				return paged(body, nil, p, pp)
			}),
	)
}

// Delete sends DELETE <url>/<id> with no body.
//
//	Delete(ctx, id int|string)
func (q *Query) Delete(ctx context.Context, args ...any) (*result.Result, error) {
	send := func(id string) (*result.Result, error) {
		return q.send(ctx, http.MethodDelete, q.itemURL(id), nil)
	}
	return overload.Dispatch(args,
		overload.Func1("int", overload.Integer(), func(id int64) (*result.Result, error) {
			return send(strconv.FormatInt(id, 10))
		}),
		overload.Func1("string", overload.String(), send),
	)
}

func (q *Query) send(ctx context.Context, method, target string, body any) (*result.Result, error) {
	slog.Debug("resource request", "method", method, "url", target)

	resp, err := q.client.SendRequest(ctx, &transport.Request{
		Method: method,
		URL:    target,
		Body:   body,
		Header: q.header.Clone(),
	})
	if err != nil {
		return nil, err
	}
	return resp.Result()
}

func (q *Query) itemURL(id string) string {
	return strings.TrimRight(q.URL(), "/") + "/" + id
}

func withRelations(attrs map[string]any, relations []string) map[string]any {
	body := cloneMap(attrs)
	if relations == nil {
		relations = []string{}
	}
	body["_query"] = map[string]any{"relations": relations}
	return body
}

func pagedURL(base string, page, perPage int64) string {
	params := url.Values{}
	params.Set("page", strconv.FormatInt(page, 10))
	params.Set("per_page", strconv.FormatInt(perPage, 10))
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + params.Encode()
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
