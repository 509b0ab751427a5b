package query

import (
	"github.com/jzelinskie/stringz"
)

// Envelope is the request body shape carrying a serialized query.
//
// Query holds the expression as a JSON string, not a nested object; the
// backend decodes it separately.
type Envelope struct {
	Query   string   `json:"_query"`
	Hidden  []string `json:"_hidden"`
	Columns []string `json:"_columns"`
}

// Map returns the envelope as a body map, for merging with other fields.
func (e Envelope) Map() map[string]any {
	return map[string]any{
		"_query":   e.Query,
		"_hidden":  e.Hidden,
		"_columns": e.Columns,
	}
}

// BodyBuilder is implemented by values that can produce a request body from
// an accumulated query.
type BodyBuilder interface {
	Body() (map[string]any, error)
}

// Envelope serializes the builder. The receiver is only read, so the builder
// stays reusable afterwards.
//
// Columns default to ["*"]; the field name of every aggregation directive is
// appended and the result de-duplicated.
func (b *Builder) Envelope() (Envelope, error) {
	if b.err != nil {
		return Envelope{}, b.err
	}

	expr := b.expr.Clone()
	expr.aggregations = append([]AggregationColumn(nil), b.aggregations...)
	raw, err := expr.MarshalJSON()
	if err != nil {
		return Envelope{}, err
	}

	columns := b.columns
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	columns = append([]string(nil), columns...)
	for _, a := range b.aggregations {
		columns = append(columns, a.String())
	}

	hidden := b.excludes
	if hidden == nil {
		hidden = []string{}
	}

	return Envelope{
		Query:   string(raw),
		Hidden:  append([]string{}, hidden...),
		Columns: stringz.Dedup(columns),
	}, nil
}

// Body implements BodyBuilder.
func (b *Builder) Body() (map[string]any, error) {
	env, err := b.Envelope()
	if err != nil {
		return nil, err
	}
	return env.Map(), nil
}

// MarshalEnvelope serializes the builder straight to wire bytes.
func MarshalEnvelope(b *Builder) ([]byte, error) {
	env, err := b.Envelope()
	if err != nil {
		return nil, err
	}
	return marshal(env)
}
