package querydef

import (
	"github.com/roach88/restq/internal/query"
)

// Apply adds the definition's clauses, projection, sort, limit and
// aggregations to b. Any builder error, including one recorded while
// nesting relation filters, is returned.
func (d *Definition) Apply(b *query.Builder) error {
	d.Filters.apply(b)

	if len(d.Select) > 0 {
		b.Select(toAny(d.Select)...)
	}
	if len(d.Exclude) > 0 {
		b.Excludes(toAny(d.Exclude)...)
	}
	if d.Sort != nil {
		order := 1
		if d.Sort.Order == "desc" {
			order = -1
		}
		b.Sort(d.Sort.By, order)
	}
	if d.Limit != nil {
		b.Limit(*d.Limit)
	}
	for _, a := range d.Aggregate {
		if err := b.Aggregate(a.Method, a.Column, a.Relation); err != nil {
			return err
		}
	}
	return b.Err()
}

// Builder returns a new builder with the definition applied.
func (d *Definition) Builder() (*query.Builder, error) {
	b := query.New()
	if err := d.Apply(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (f *Filters) apply(b *query.Builder) {
	for _, c := range f.Where {
		b.And(c.Column, c.Op, c.Value)
	}
	for _, c := range f.OrWhere {
		b.Or(c.Column, c.Op, c.Value)
	}
	for _, c := range f.WhereDate {
		b.Date(c.Column, c.Op, c.Value)
	}
	for _, s := range f.In {
		b.In(s.Column, s.Values)
	}
	for _, s := range f.NotIn {
		b.NotIn(s.Column, s.Values)
	}
	for _, col := range f.IsNull {
		b.IsNull(col)
	}
	for _, col := range f.NotNull {
		b.NotNull(col)
	}
	for _, r := range f.Between {
		b.Between(r.Column, r.Low, r.High)
	}
	for _, r := range f.Has {
		b.Exists(r.Relation, r.nested())
	}
	for _, r := range f.DoesntHave {
		b.NotExists(r.Relation, r.nested())
	}
	for _, col := range f.GroupBy {
		b.Group(col)
	}
}

// nested returns nil for a bare existence test.
func (r Relation) nested() query.Nested {
	if r.Match == nil {
		return nil
	}
	match := r.Match
	return func(inner *query.Builder) *query.Builder {
		match.apply(inner)
		return inner
	}
}

func toAny(xs []string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
