package resource

import "github.com/roach88/restq/internal/query"

// Filter methods forward to the underlying query.Builder and return the
// receiver. See query.Builder for clause semantics.

func (q *Query) And(column, operator string, value any) *Query {
	q.builder.And(column, operator, value)
	return q
}

func (q *Query) Or(column, operator string, value any) *Query {
	q.builder.Or(column, operator, value)
	return q
}

func (q *Query) AndGroup(fn query.Nested) *Query {
	q.builder.AndGroup(fn)
	return q
}

func (q *Query) OrGroup(fn query.Nested) *Query {
	q.builder.OrGroup(fn)
	return q
}

func (q *Query) Eq(column string, value any) *Query {
	q.builder.Eq(column, value)
	return q
}

func (q *Query) Neq(column string, value any) *Query {
	q.builder.Neq(column, value)
	return q
}

func (q *Query) Lt(column string, value any) *Query {
	q.builder.Lt(column, value)
	return q
}

func (q *Query) Lte(column string, value any) *Query {
	q.builder.Lte(column, value)
	return q
}

func (q *Query) Gt(column string, value any) *Query {
	q.builder.Gt(column, value)
	return q
}

func (q *Query) Gte(column string, value any) *Query {
	q.builder.Gte(column, value)
	return q
}

func (q *Query) Like(column string, value any) *Query {
	q.builder.Like(column, value)
	return q
}

func (q *Query) OrEq(column string, value any) *Query {
	q.builder.OrEq(column, value)
	return q
}

func (q *Query) OrNeq(column string, value any) *Query {
	q.builder.OrNeq(column, value)
	return q
}

func (q *Query) OrLt(column string, value any) *Query {
	q.builder.OrLt(column, value)
	return q
}

func (q *Query) OrLte(column string, value any) *Query {
	q.builder.OrLte(column, value)
	return q
}

func (q *Query) OrGt(column string, value any) *Query {
	q.builder.OrGt(column, value)
	return q
}

func (q *Query) OrGte(column string, value any) *Query {
	q.builder.OrGte(column, value)
	return q
}

func (q *Query) OrLike(column string, value any) *Query {
	q.builder.OrLike(column, value)
	return q
}

func (q *Query) In(column string, values []any) *Query {
	q.builder.In(column, values)
	return q
}

func (q *Query) NotIn(column string, values []any) *Query {
	q.builder.NotIn(column, values)
	return q
}

func (q *Query) Exists(relation string, fn query.Nested) *Query {
	q.builder.Exists(relation, fn)
	return q
}

func (q *Query) OrExists(relation string, fn query.Nested) *Query {
	q.builder.OrExists(relation, fn)
	return q
}

func (q *Query) NotExists(relation string, fn query.Nested) *Query {
	q.builder.NotExists(relation, fn)
	return q
}

func (q *Query) OrNotExists(relation string, fn query.Nested) *Query {
	q.builder.OrNotExists(relation, fn)
	return q
}

func (q *Query) Date(column, operator string, value any) *Query {
	q.builder.Date(column, operator, value)
	return q
}

func (q *Query) OrDate(column, operator string, value any) *Query {
	q.builder.OrDate(column, operator, value)
	return q
}

func (q *Query) Sort(column string, order int) *Query {
	q.builder.Sort(column, order)
	return q
}

func (q *Query) IsNull(column string) *Query {
	q.builder.IsNull(column)
	return q
}

func (q *Query) OrIsNull(column string) *Query {
	q.builder.OrIsNull(column)
	return q
}

func (q *Query) NotNull(column string) *Query {
	q.builder.NotNull(column)
	return q
}

func (q *Query) OrNotNull(column string) *Query {
	q.builder.OrNotNull(column)
	return q
}

func (q *Query) Between(column string, low, high any) *Query {
	q.builder.Between(column, low, high)
	return q
}

func (q *Query) Group(column string) *Query {
	q.builder.Group(column)
	return q
}

func (q *Query) Join(table, first, operator, second string) *Query {
	q.builder.Join(table, first, operator, second)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.builder.Limit(n)
	return q
}

// Select adds columns to the inclusion set. Use Get to send a read request.
func (q *Query) Select(columns ...any) *Query {
	q.builder.Select(columns...)
	return q
}

func (q *Query) Excludes(columns ...any) *Query {
	q.builder.Excludes(columns...)
	return q
}

// Aggregate registers an aggregation directive to be sent with Execute.
func (q *Query) Aggregate(method, column, relation string) error {
	return q.builder.Aggregate(method, column, relation)
}
