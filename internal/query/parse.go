package query

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// ParseExpression decodes a _query document back into an Expression.
//
// JSON objects carry no key order, so the parsed expression lists its kinds
// in the package's canonical kind order rather than the order of the
// original builder calls. Clause order within a kind is preserved. Numbers
// decode as json.Number.
func ParseExpression(data []byte) (*Expression, error) {
	return parseExpression(data, 0)
}

func parseExpression(data []byte, depth int) (*Expression, error) {
	if depth > MaxSubQueryDepth {
		return nil, &NestingError{Depth: depth, Max: MaxSubQueryDepth}
	}

	data = bytes.TrimSpace(data)
	expr := NewExpression()
	// An empty group may arrive as [] from backends that do not distinguish
	// empty objects from empty lists.
	if bytes.Equal(data, []byte("[]")) {
		return expr, nil
	}

	var fields map[string]json.RawMessage
	if err := decode(data, &fields); err != nil {
		return nil, &ParseError{Message: "expression must be a JSON object", Err: err}
	}

	known := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		known[k] = true
	}
	for name := range fields {
		if !known[Kind(name)] {
			return nil, &ParseError{Kind: Kind(name), Message: "unknown clause kind"}
		}
	}

	for _, k := range kinds {
		raw, ok := fields[string(k)]
		if !ok {
			continue
		}
		if err := parseKind(expr, k, raw, depth); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func parseKind(expr *Expression, k Kind, raw json.RawMessage, depth int) error {
	switch k {
	case KindSort:
		var s Sort
		if err := decode(raw, &s); err != nil {
			return &ParseError{Kind: k, Message: "invalid sort record", Err: err}
		}
		expr.setSort(s)
		return nil
	case KindLimit:
		var n int
		if err := decode(raw, &n); err != nil {
			return &ParseError{Kind: k, Message: "invalid limit", Err: err}
		}
		expr.setLimit(n)
		return nil
	case KindAggregate:
		aggs, err := parseAggregations(raw)
		if err != nil {
			return err
		}
		expr.aggregations = aggs
		return nil
	}

	var items []json.RawMessage
	if err := decode(raw, &items); err != nil {
		return &ParseError{Kind: k, Message: "clauses must be a JSON array", Err: err}
	}
	expr.touch(k)
	for i, item := range items {
		c, err := parseClause(k, item, depth)
		if err != nil {
			return &ParseError{Kind: k, Message: "clause " + strconv.Itoa(i), Err: err}
		}
		expr.clauses[k] = append(expr.clauses[k], c)
	}
	return nil
}

func parseClause(k Kind, raw json.RawMessage, depth int) (Clause, error) {
	switch k {
	case KindWhere, KindOrWhere, KindWhereDate, KindOrWhereDate:
		switch firstByte(raw) {
		case '{':
			return parseSubQuery(raw, depth)
		case '"':
			var col string
			if err := decode(raw, &col); err != nil {
				return nil, err
			}
			return ColumnRef(col), nil
		}
		var tuple []any
		if err := decode(raw, &tuple); err != nil {
			return nil, err
		}
		if len(tuple) != 3 {
			return nil, fmt.Errorf("comparison needs 3 elements, got %d", len(tuple))
		}
		col, ok1 := tuple[0].(string)
		op, ok2 := tuple[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("comparison column and operator must be strings")
		}
		return Comparison{Column: col, Operator: op, Value: tuple[2]}, nil

	case KindIn, KindNotIn:
		var pair []json.RawMessage
		if err := decode(raw, &pair); err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("membership needs 2 elements, got %d", len(pair))
		}
		var m Membership
		if err := decode(pair[0], &m.Column); err != nil {
			return nil, err
		}
		if err := decode(pair[1], &m.Values); err != nil {
			return nil, err
		}
		return m, nil

	case KindHas, KindOrHas, KindDoesntHave, KindOrDoesntHave:
		if firstByte(raw) == '"' {
			var rel string
			if err := decode(raw, &rel); err != nil {
				return nil, err
			}
			return Existence{Relation: rel}, nil
		}
		var obj struct {
			Column string          `json:"column"`
			Match  json.RawMessage `json:"match"`
		}
		if err := decode(raw, &obj); err != nil {
			return nil, err
		}
		sq, err := parseSubQuery(obj.Match, depth)
		if err != nil {
			return nil, err
		}
		return Existence{Relation: obj.Column, Match: &sq}, nil

	case KindIsNull, KindOrIsNull, KindNotNull, KindOrNotNull, KindGroupBy:
		var col string
		if err := decode(raw, &col); err != nil {
			return nil, err
		}
		return ColumnRef(col), nil

	case KindBetween:
		var pair []json.RawMessage
		if err := decode(raw, &pair); err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("range needs 2 elements, got %d", len(pair))
		}
		var r Range
		if err := decode(pair[0], &r.Column); err != nil {
			return nil, err
		}
		var bounds []any
		if err := decode(pair[1], &bounds); err != nil {
			return nil, err
		}
		if len(bounds) != 2 {
			return nil, fmt.Errorf("range bounds need 2 elements, got %d", len(bounds))
		}
		r.Low, r.High = bounds[0], bounds[1]
		return r, nil

	case KindJoin:
		var quad []string
		if err := decode(raw, &quad); err != nil {
			return nil, err
		}
		if len(quad) != 4 {
			return nil, fmt.Errorf("join needs 4 elements, got %d", len(quad))
		}
		return JoinClause{Table: quad[0], First: quad[1], Operator: quad[2], Second: quad[3]}, nil
	}
	return nil, fmt.Errorf("unexpected clause kind %q", k)
}

func parseSubQuery(raw json.RawMessage, depth int) (SubQuery, error) {
	var obj struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := decode(raw, &obj); err != nil {
		return SubQuery{}, err
	}
	params := NewExpression()
	if len(obj.Params) > 0 && string(obj.Params) != "null" {
		p, err := parseExpression(obj.Params, depth+1)
		if err != nil {
			return SubQuery{}, err
		}
		params = p
	}
	return SubQuery{Method: obj.Method, Params: params}, nil
}

func parseAggregations(raw json.RawMessage) ([]AggregationColumn, error) {
	var grouped map[string][][]string
	if err := decode(raw, &grouped); err != nil {
		return nil, &ParseError{Kind: KindAggregate, Message: "invalid aggregate map", Err: err}
	}
	var out []AggregationColumn
	for _, m := range Methods {
		for _, params := range grouped[string(m)] {
			a := AggregationColumn{Method: m}
			switch len(params) {
			case 1:
				a.Column = params[0]
			case 2:
				a.Column, a.Relation = params[0], params[1]
			default:
				return nil, &ParseError{Kind: KindAggregate, Message: fmt.Sprintf("%s needs 1 or 2 params, got %d", m, len(params))}
			}
			out = append(out, a)
		}
		delete(grouped, string(m))
	}
	for name := range grouped {
		return nil, &UnsupportedOperationError{Operation: name, Supported: methodNames()}
	}
	return out, nil
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func firstByte(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}
