package resource

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/roach88/restq/internal/query"
	"github.com/roach88/restq/internal/result"
)

// Execute sends the accumulated query as GET <url> with the envelope body.
// The Query is only read and can be executed again.
func (q *Query) Execute(ctx context.Context) (*result.Result, error) {
	env, err := q.builder.Envelope()
	if err != nil {
		return nil, err
	}
	return q.send(ctx, http.MethodGet, q.URL(), env)
}

// First executes the query with a limit of 1 and returns data.0, or nil
// when nothing matched. The receiver's limit is left untouched.
func (q *Query) First(ctx context.Context) (any, error) {
	c := q.Clone()
	c.builder.Limit(1)
	res, err := c.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return res.Get("data.0"), nil
}

// Count returns the number of matching rows, or of related rows when
// relation is set. An empty column counts "*".
func (q *Query) Count(ctx context.Context, column, relation string) (int64, error) {
	v, err := q.aggregate(ctx, query.MethodCount, column, relation)
	if err != nil {
		return 0, err
	}
	return toInt64(v)
}

// Min returns the smallest value of column.
func (q *Query) Min(ctx context.Context, column, relation string) (any, error) {
	return q.aggregate(ctx, query.MethodMin, column, relation)
}

// Max returns the largest value of column.
func (q *Query) Max(ctx context.Context, column, relation string) (any, error) {
	return q.aggregate(ctx, query.MethodMax, column, relation)
}

// Sum returns the sum of column.
func (q *Query) Sum(ctx context.Context, column, relation string) (any, error) {
	return q.aggregate(ctx, query.MethodSum, column, relation)
}

// Avg returns the average of column.
func (q *Query) Avg(ctx context.Context, column, relation string) (any, error) {
	return q.aggregate(ctx, query.MethodAvg, column, relation)
}

// aggregate runs a single aggregation on a copy of the query, so previously
// registered aggregations and the caller's limit are not affected, and reads
// data.0.<aggregate name> from the response.
func (q *Query) aggregate(ctx context.Context, method query.Method, column, relation string) (any, error) {
	agg, err := query.NewAggregationColumn(string(method), column, relation)
	if err != nil {
		return nil, err
	}

	c := q.Clone()
	c.builder.ResetAggregations()
	if err := c.builder.Aggregate(string(agg.Method), agg.Column, agg.Relation); err != nil {
		return nil, err
	}
	c.builder.Limit(1)

	res, err := c.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return res.Get("data.0." + agg.String()), nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("count: %w", err)
		}
		return int64(f), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("count: %w", err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("count: unexpected value %T", v)
}
