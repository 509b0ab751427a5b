package query

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Kind names a clause bucket in the filter expression.
type Kind string

const (
	KindWhere        Kind = "where"
	KindOrWhere      Kind = "orwhere"
	KindWhereDate    Kind = "wheredate"
	KindOrWhereDate  Kind = "orwheredate"
	KindIn           Kind = "in"
	KindNotIn        Kind = "notin"
	KindHas          Kind = "has"
	KindOrHas        Kind = "orhas"
	KindDoesntHave   Kind = "doesnthave"
	KindOrDoesntHave Kind = "ordoesnthave"
	KindIsNull       Kind = "isnull"
	KindOrIsNull     Kind = "orisnull"
	KindNotNull      Kind = "notnull"
	KindOrNotNull    Kind = "ornotnull"
	KindBetween      Kind = "between"
	KindGroupBy      Kind = "groupby"
	KindJoin         Kind = "join"
	KindSort         Kind = "sort"
	KindLimit        Kind = "limit"
	KindAggregate    Kind = "aggregate"
)

// kinds lists every known kind in declaration order. ParseExpression uses it
// to rebuild a deterministic kind order from a decoded JSON object.
var kinds = []Kind{
	KindWhere, KindOrWhere, KindWhereDate, KindOrWhereDate,
	KindIn, KindNotIn,
	KindHas, KindOrHas, KindDoesntHave, KindOrDoesntHave,
	KindIsNull, KindOrIsNull, KindNotNull, KindOrNotNull,
	KindBetween, KindGroupBy, KindJoin,
	KindSort, KindLimit, KindAggregate,
}

// Clause is a single entry in an expression bucket.
//
// This is a sealed interface: only types in this package implement it, so
// type switches over clauses are exhaustive.
type Clause interface {
	clauseNode()
}

// Comparison is a [column, operator, value] triple.
type Comparison struct {
	Column   string
	Operator string
	Value    any
}

func (Comparison) clauseNode() {}

// MarshalJSON encodes the comparison as a three element array.
func (c Comparison) MarshalJSON() ([]byte, error) {
	return marshal([]any{c.Column, c.Operator, c.Value})
}

// SubQuery is a nested expression. Method is always "query" for builder
// generated groups.
type SubQuery struct {
	Method string
	Params *Expression
}

func (SubQuery) clauseNode() {}

// MarshalJSON encodes {"method": ..., "params": {...}}.
func (s SubQuery) MarshalJSON() ([]byte, error) {
	params := s.Params
	if params == nil {
		params = NewExpression()
	}
	p, err := params.MarshalJSON()
	if err != nil {
		return nil, err
	}
	m, err := marshal(s.Method)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"method":`)
	buf.Write(m)
	buf.WriteString(`,"params":`)
	buf.Write(p)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Membership is a [column, [values...]] pair used by in and notin.
type Membership struct {
	Column string
	Values []any
}

func (Membership) clauseNode() {}

// MarshalJSON encodes the membership pair. A nil value list encodes as [].
func (m Membership) MarshalJSON() ([]byte, error) {
	values := m.Values
	if values == nil {
		values = []any{}
	}
	return marshal([]any{m.Column, values})
}

// Existence is a has-family clause. Without Match it encodes as the bare
// relation name.
type Existence struct {
	Relation string
	Match    *SubQuery
}

func (Existence) clauseNode() {}

// MarshalJSON encodes "relation" or {"column": relation, "match": subquery}.
func (e Existence) MarshalJSON() ([]byte, error) {
	if e.Match == nil {
		return marshal(e.Relation)
	}
	col, err := marshal(e.Relation)
	if err != nil {
		return nil, err
	}
	match, err := e.Match.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"column":`)
	buf.Write(col)
	buf.WriteString(`,"match":`)
	buf.Write(match)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ColumnRef is a bare column entry (null checks, groupby).
type ColumnRef string

func (ColumnRef) clauseNode() {}

// Range is a [column, [low, high]] entry used by between.
type Range struct {
	Column string
	Low    any
	High   any
}

func (Range) clauseNode() {}

// MarshalJSON encodes the range pair.
func (r Range) MarshalJSON() ([]byte, error) {
	return marshal([]any{r.Column, []any{r.Low, r.High}})
}

// JoinClause is a [table, first, operator, second] entry.
type JoinClause struct {
	Table    string
	First    string
	Operator string
	Second   string
}

func (JoinClause) clauseNode() {}

// MarshalJSON encodes the join quadruple.
func (j JoinClause) MarshalJSON() ([]byte, error) {
	return marshal([]string{j.Table, j.First, j.Operator, j.Second})
}

// Sort is the single ordering record of an expression.
type Sort struct {
	Order string `json:"order"`
	By    string `json:"by"`
}

// Expression is the ordered filter expression accumulated by a Builder.
//
// The zero value is not usable; construct with NewExpression.
type Expression struct {
	order        []Kind
	clauses      map[Kind][]Clause
	sort         *Sort
	limit        *int
	aggregations []AggregationColumn
}

// NewExpression returns an empty expression.
func NewExpression() *Expression {
	return &Expression{clauses: make(map[Kind][]Clause)}
}

func (e *Expression) touch(kind Kind) {
	for _, k := range e.order {
		if k == kind {
			return
		}
	}
	e.order = append(e.order, kind)
}

func (e *Expression) add(kind Kind, c Clause) {
	e.touch(kind)
	e.clauses[kind] = append(e.clauses[kind], c)
}

func (e *Expression) setSort(s Sort) {
	e.touch(KindSort)
	e.sort = &s
}

func (e *Expression) setLimit(n int) {
	e.touch(KindLimit)
	e.limit = &n
}

// Kinds returns the kinds present in the expression in first-use order.
// The aggregate kind is reported only for expressions that carry
// aggregations, which happens for parsed or serialized expressions.
func (e *Expression) Kinds() []Kind {
	out := make([]Kind, len(e.order), len(e.order)+1)
	copy(out, e.order)
	if len(e.aggregations) > 0 {
		out = append(out, KindAggregate)
	}
	return out
}

// Clauses returns a copy of the clauses registered under kind.
func (e *Expression) Clauses(kind Kind) []Clause {
	cs := e.clauses[kind]
	if cs == nil {
		return nil
	}
	out := make([]Clause, len(cs))
	copy(out, cs)
	return out
}

// Sort returns the ordering record, if any.
func (e *Expression) Sort() (Sort, bool) {
	if e.sort == nil {
		return Sort{}, false
	}
	return *e.sort, true
}

// Limit returns the limit, if any.
func (e *Expression) Limit() (int, bool) {
	if e.limit == nil {
		return 0, false
	}
	return *e.limit, true
}

// Aggregations returns the aggregation directives attached to the expression.
func (e *Expression) Aggregations() []AggregationColumn {
	if len(e.aggregations) == 0 {
		return nil
	}
	out := make([]AggregationColumn, len(e.aggregations))
	copy(out, e.aggregations)
	return out
}

// IsEmpty reports whether the expression has no clauses at all.
func (e *Expression) IsEmpty() bool {
	return len(e.order) == 0 && len(e.aggregations) == 0
}

// Depth returns the deepest sub-query nesting level. A flat expression has
// depth 0.
func (e *Expression) Depth() int {
	deepest := 0
	for _, cs := range e.clauses {
		for _, c := range cs {
			var sq *SubQuery
			switch v := c.(type) {
			case SubQuery:
				sq = &v
			case Existence:
				sq = v.Match
			}
			if sq == nil || sq.Params == nil {
				continue
			}
			if d := sq.Params.Depth() + 1; d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}

// Clone returns a deep copy of the expression. Scalar clause values are
// shared; they are never mutated by this package.
func (e *Expression) Clone() *Expression {
	out := &Expression{
		order:   append([]Kind(nil), e.order...),
		clauses: make(map[Kind][]Clause, len(e.clauses)),
	}
	for k, cs := range e.clauses {
		cloned := make([]Clause, len(cs))
		for i, c := range cs {
			cloned[i] = cloneClause(c)
		}
		out.clauses[k] = cloned
	}
	if e.sort != nil {
		s := *e.sort
		out.sort = &s
	}
	if e.limit != nil {
		n := *e.limit
		out.limit = &n
	}
	out.aggregations = append([]AggregationColumn(nil), e.aggregations...)
	return out
}

func cloneClause(c Clause) Clause {
	switch v := c.(type) {
	case SubQuery:
		if v.Params != nil {
			v.Params = v.Params.Clone()
		}
		return v
	case Existence:
		if v.Match != nil {
			m := cloneClause(*v.Match).(SubQuery)
			v.Match = &m
		}
		return v
	case Membership:
		v.Values = append([]any(nil), v.Values...)
		return v
	default:
		return c
	}
}

// MarshalJSON encodes the expression as a JSON object whose keys follow
// first-use order. Aggregations, when present, are appended under the
// aggregate key grouped by method.
func (e *Expression) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKey := func(k Kind) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteByte('"')
		buf.WriteString(string(k))
		buf.WriteString(`":`)
	}

	for _, k := range e.order {
		var (
			v   []byte
			err error
		)
		switch k {
		case KindSort:
			v, err = marshal(e.sort)
		case KindLimit:
			v, err = marshal(e.limit)
		default:
			v, err = marshalClauses(e.clauses[k])
		}
		if err != nil {
			return nil, err
		}
		writeKey(k)
		buf.Write(v)
	}

	if len(e.aggregations) > 0 {
		v, err := marshalAggregations(e.aggregations)
		if err != nil {
			return nil, err
		}
		writeKey(KindAggregate)
		buf.Write(v)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal encodes v without HTML escaping. Marshalers are called directly;
// going back through the encoder would escape <, > and & in their output.
func marshal(v any) ([]byte, error) {
	if m, ok := v.(json.Marshaler); ok {
		if _, isClause := v.(Clause); isClause {
			return m.MarshalJSON()
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalClauses(cs []Clause) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, c := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		v, err := marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalAggregations groups directives by method, keeping the order in
// which each method was first registered.
func marshalAggregations(aggs []AggregationColumn) ([]byte, error) {
	var methods []Method
	grouped := make(map[Method][][]string)
	for _, a := range aggs {
		if _, ok := grouped[a.Method]; !ok {
			methods = append(methods, a.Method)
		}
		grouped[a.Method] = append(grouped[a.Method], a.params())
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range methods {
		if i > 0 {
			buf.WriteByte(',')
		}
		v, err := marshal(grouped[m])
		if err != nil {
			return nil, err
		}
		buf.WriteByte('"')
		buf.WriteString(string(m))
		buf.WriteString(`":`)
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
