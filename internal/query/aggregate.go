package query

import (
	"strings"

	"github.com/ettle/strcase"
)

// Method is an aggregation method understood by the backend.
type Method string

const (
	MethodCount Method = "count"
	MethodMin   Method = "min"
	MethodMax   Method = "max"
	MethodSum   Method = "sum"
	MethodAvg   Method = "avg"
)

// Methods lists the supported aggregation methods.
var Methods = []Method{MethodCount, MethodMin, MethodMax, MethodSum, MethodAvg}

// ParseMethod normalizes name and checks it against Methods.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", &UnsupportedOperationError{Operation: name, Supported: methodNames()}
}

func methodNames() []string {
	out := make([]string, len(Methods))
	for i, m := range Methods {
		out[i] = string(m)
	}
	return out
}

// AggregationColumn is an aggregation directive: apply Method to Column,
// optionally over the related collection Relation.
type AggregationColumn struct {
	Method   Method
	Column   string
	Relation string
}

// NewAggregationColumn validates method and builds a directive. An empty
// column means "*".
func NewAggregationColumn(method, column, relation string) (AggregationColumn, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return AggregationColumn{}, err
	}
	if column == "" {
		column = "*"
	}
	return AggregationColumn{Method: m, Column: column, Relation: relation}, nil
}

// String returns the result field name the backend uses for this aggregate:
// <relation>_<method>_<column>, with the relation snake-cased and the column
// suffix omitted for "*".
//
//	count *              -> count
//	count id             -> count_id
//	sum amount on orders -> orders_sum_amount
//	count * on lineItems -> line_items_count
func (a AggregationColumn) String() string {
	var b strings.Builder
	if a.Relation != "" {
		b.WriteString(snake(a.Relation))
		b.WriteByte('_')
	}
	b.WriteString(string(a.Method))
	if a.Column != "*" && a.Column != "" {
		b.WriteByte('_')
		b.WriteString(a.Column)
	}
	return b.String()
}

func (a AggregationColumn) params() []string {
	if a.Relation == "" {
		return []string{a.Column}
	}
	return []string{a.Column, a.Relation}
}

func snake(s string) string {
	return strings.Trim(strcase.ToSnake(strings.ReplaceAll(s, " ", "")), "_")
}
