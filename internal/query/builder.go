package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jzelinskie/stringz"
)

// Nested receives a fresh builder and returns the builder whose expression
// becomes the sub-query. Returning nil uses the builder that was passed in.
type Nested func(*Builder) *Builder

// Builder accumulates a filter expression, a column set and aggregation
// directives. Filter methods mutate the receiver and return it for chaining.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	expr         *Expression
	columns      []string
	excludes     []string
	aggregations []AggregationColumn
	err          error
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{expr: NewExpression()}
}

// And appends a [column, operator, value] comparison under where. An empty
// operator means "=".
func (b *Builder) And(column, operator string, value any) *Builder {
	return b.compare(KindWhere, column, operator, value)
}

// Or appends a comparison under orwhere. It never touches where.
func (b *Builder) Or(column, operator string, value any) *Builder {
	return b.compare(KindOrWhere, column, operator, value)
}

// AndGroup appends the expression built by fn as a sub-query under where.
func (b *Builder) AndGroup(fn Nested) *Builder {
	return b.group(KindWhere, fn)
}

// OrGroup appends the expression built by fn as a sub-query under orwhere.
func (b *Builder) OrGroup(fn Nested) *Builder {
	return b.group(KindOrWhere, fn)
}

func (b *Builder) Eq(column string, value any) *Builder  { return b.And(column, "=", value) }
func (b *Builder) Neq(column string, value any) *Builder { return b.And(column, "<>", value) }
func (b *Builder) Lt(column string, value any) *Builder  { return b.And(column, "<", value) }
func (b *Builder) Lte(column string, value any) *Builder { return b.And(column, "<=", value) }
func (b *Builder) Gt(column string, value any) *Builder  { return b.And(column, ">", value) }
func (b *Builder) Gte(column string, value any) *Builder { return b.And(column, ">=", value) }

// Like appends a like comparison, wrapping value in % unless it already
// contains one.
func (b *Builder) Like(column string, value any) *Builder { return b.And(column, "like", value) }

func (b *Builder) OrEq(column string, value any) *Builder   { return b.Or(column, "=", value) }
func (b *Builder) OrNeq(column string, value any) *Builder  { return b.Or(column, "<>", value) }
func (b *Builder) OrLt(column string, value any) *Builder   { return b.Or(column, "<", value) }
func (b *Builder) OrLte(column string, value any) *Builder  { return b.Or(column, "<=", value) }
func (b *Builder) OrGt(column string, value any) *Builder   { return b.Or(column, ">", value) }
func (b *Builder) OrGte(column string, value any) *Builder  { return b.Or(column, ">=", value) }
func (b *Builder) OrLike(column string, value any) *Builder { return b.Or(column, "like", value) }

// In appends a membership clause under in.
func (b *Builder) In(column string, values []any) *Builder {
	b.expr.add(KindIn, Membership{Column: column, Values: append([]any(nil), values...)})
	return b
}

// NotIn appends a membership clause under notin.
func (b *Builder) NotIn(column string, values []any) *Builder {
	b.expr.add(KindNotIn, Membership{Column: column, Values: append([]any(nil), values...)})
	return b
}

// Exists requires the relation to exist, optionally matching the
// expression built by fn.
func (b *Builder) Exists(relation string, fn Nested) *Builder {
	return b.exists(KindHas, relation, fn)
}

func (b *Builder) OrExists(relation string, fn Nested) *Builder {
	return b.exists(KindOrHas, relation, fn)
}

func (b *Builder) NotExists(relation string, fn Nested) *Builder {
	return b.exists(KindDoesntHave, relation, fn)
}

func (b *Builder) OrNotExists(relation string, fn Nested) *Builder {
	return b.exists(KindOrDoesntHave, relation, fn)
}

// Date appends a comparison under wheredate.
func (b *Builder) Date(column, operator string, value any) *Builder {
	return b.compare(KindWhereDate, column, operator, value)
}

// OrDate appends a comparison under orwheredate.
func (b *Builder) OrDate(column, operator string, value any) *Builder {
	return b.compare(KindOrWhereDate, column, operator, value)
}

// Sort sets the ordering record. Non-negative order sorts ascending.
// Calling Sort again replaces the previous record.
func (b *Builder) Sort(column string, order int) *Builder {
	dir := "ASC"
	if order < 0 {
		dir = "DESC"
	}
	b.expr.setSort(Sort{Order: dir, By: column})
	return b
}

func (b *Builder) IsNull(column string) *Builder {
	b.expr.add(KindIsNull, ColumnRef(column))
	return b
}

func (b *Builder) OrIsNull(column string) *Builder {
	b.expr.add(KindOrIsNull, ColumnRef(column))
	return b
}

func (b *Builder) NotNull(column string) *Builder {
	b.expr.add(KindNotNull, ColumnRef(column))
	return b
}

func (b *Builder) OrNotNull(column string) *Builder {
	b.expr.add(KindOrNotNull, ColumnRef(column))
	return b
}

// Between appends [column, [low, high]] under between.
func (b *Builder) Between(column string, low, high any) *Builder {
	b.expr.add(KindBetween, Range{Column: column, Low: low, High: high})
	return b
}

// Group appends a groupby column.
func (b *Builder) Group(column string) *Builder {
	b.expr.add(KindGroupBy, ColumnRef(column))
	return b
}

// Join appends a [table, first, operator, second] join directive.
func (b *Builder) Join(table, first, operator, second string) *Builder {
	b.expr.add(KindJoin, JoinClause{Table: table, First: first, Operator: operator, Second: second})
	return b
}

// Limit sets the row limit, replacing any previous one.
func (b *Builder) Limit(n int) *Builder {
	b.expr.setLimit(n)
	return b
}

// Select adds columns to the inclusion set. Arguments may be strings or
// arbitrarily nested slices of them; duplicates are dropped.
func (b *Builder) Select(columns ...any) *Builder {
	b.columns = stringz.Dedup(append(b.columns, flatten(columns)...))
	return b
}

// Excludes adds columns to the exclusion set, flattened like Select.
func (b *Builder) Excludes(columns ...any) *Builder {
	b.excludes = stringz.Dedup(append(b.excludes, flatten(columns)...))
	return b
}

// Aggregate registers an aggregation directive. It is the only builder
// method that validates its input.
func (b *Builder) Aggregate(method, column, relation string) error {
	a, err := NewAggregationColumn(method, column, relation)
	if err != nil {
		return err
	}
	b.aggregations = append(b.aggregations, a)
	return nil
}

// ResetAggregations drops every registered aggregation directive.
func (b *Builder) ResetAggregations() *Builder {
	b.aggregations = nil
	return b
}

// Query returns a copy of the accumulated expression, without aggregations.
func (b *Builder) Query() *Expression {
	return b.expr.Clone()
}

// Columns returns the inclusion set.
func (b *Builder) Columns() []string {
	return append([]string(nil), b.columns...)
}

// Excluded returns the exclusion set.
func (b *Builder) Excluded() []string {
	return append([]string(nil), b.excludes...)
}

// Aggregations returns the registered aggregation directives.
func (b *Builder) Aggregations() []AggregationColumn {
	return append([]AggregationColumn(nil), b.aggregations...)
}

// Err returns the first deferred construction error, such as a sub-query
// nested past MaxSubQueryDepth.
func (b *Builder) Err() error {
	return b.err
}

// Clone returns a deep copy of the builder.
func (b *Builder) Clone() *Builder {
	return &Builder{
		expr:         b.expr.Clone(),
		columns:      append([]string(nil), b.columns...),
		excludes:     append([]string(nil), b.excludes...),
		aggregations: append([]AggregationColumn(nil), b.aggregations...),
		err:          b.err,
	}
}

func (b *Builder) compare(kind Kind, column, operator string, value any) *Builder {
	if operator == "" {
		operator = "="
	}
	op := strings.ToLower(operator)
	if op == "like" || op == "match" {
		value = wildcard(value)
	}
	b.expr.add(kind, Comparison{Column: column, Operator: operator, Value: value})
	return b
}

func (b *Builder) group(kind Kind, fn Nested) *Builder {
	sq, ok := b.subQuery(fn)
	if ok {
		b.expr.add(kind, sq)
	}
	return b
}

func (b *Builder) exists(kind Kind, relation string, fn Nested) *Builder {
	if fn == nil {
		b.expr.add(kind, Existence{Relation: relation})
		return b
	}
	sq, ok := b.subQuery(fn)
	if ok {
		b.expr.add(kind, Existence{Relation: relation, Match: &sq})
	}
	return b
}

func (b *Builder) subQuery(fn Nested) (SubQuery, bool) {
	inner := New()
	out := fn(inner)
	if out == nil {
		out = inner
	}
	if out.err != nil {
		b.fail(out.err)
		return SubQuery{}, false
	}
	if d := out.expr.Depth() + 1; d > MaxSubQueryDepth {
		b.fail(&NestingError{Depth: d, Max: MaxSubQueryDepth})
		return SubQuery{}, false
	}
	return SubQuery{Method: "query", Params: out.expr.Clone()}, true
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func wildcard(value any) any {
	if value == nil {
		return nil
	}
	s := fmt.Sprint(value)
	if strings.Contains(s, "%") {
		return value
	}
	return "%" + s + "%"
}

func flatten(values []any) []string {
	var out []string
	for _, v := range values {
		out = appendFlat(out, v)
	}
	return out
}

func appendFlat(out []string, v any) []string {
	switch t := v.(type) {
	case nil:
		return out
	case string:
		return append(out, t)
	case []string:
		return append(out, t...)
	case []any:
		for _, x := range t {
			out = appendFlat(out, x)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			out = appendFlat(out, rv.Index(i).Interface())
		}
		return out
	}
	return append(out, fmt.Sprint(v))
}
