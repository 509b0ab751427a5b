// Package querydef loads query definitions written in CUE (or JSON, which
// CUE accepts as-is) and applies them to a query.Builder.
//
// A definition is checked against an embedded #Query schema before it is
// decoded:
//
//	resource: "posts"
//	select: ["id", "title"]
//	where: [{column: "status", value: "open"}]
//	has: [{relation: "comments", match: where: [{column: "likes", op: ">=", value: 100}]}]
//	sort: {by: "id", order: "desc"}
//	aggregate: [{method: "count", relation: "comments"}]
package querydef

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource []byte

// Condition is a single comparison.
type Condition struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value"`
}

// Set is an in / not-in membership test.
type Set struct {
	Column string `json:"column"`
	Values []any  `json:"values"`
}

// Range is an inclusive between test.
type Range struct {
	Column string `json:"column"`
	Low    any    `json:"low"`
	High   any    `json:"high"`
}

// Relation is an existence test, optionally constrained by nested filters.
type Relation struct {
	Relation string   `json:"relation"`
	Match    *Filters `json:"match,omitempty"`
}

// Filters is the recursive filter part of a definition.
type Filters struct {
	Where      []Condition `json:"where,omitempty"`
	OrWhere    []Condition `json:"orWhere,omitempty"`
	WhereDate  []Condition `json:"whereDate,omitempty"`
	In         []Set       `json:"in,omitempty"`
	NotIn      []Set       `json:"notIn,omitempty"`
	IsNull     []string    `json:"isNull,omitempty"`
	NotNull    []string    `json:"notNull,omitempty"`
	Between    []Range     `json:"between,omitempty"`
	Has        []Relation  `json:"has,omitempty"`
	DoesntHave []Relation  `json:"doesntHave,omitempty"`
	GroupBy    []string    `json:"groupBy,omitempty"`
}

// SortSpec orders the result.
type SortSpec struct {
	By    string `json:"by"`
	Order string `json:"order"`
}

// Aggregate is one aggregation directive.
type Aggregate struct {
	Method   string `json:"method"`
	Column   string `json:"column"`
	Relation string `json:"relation"`
}

// Definition is a decoded query file.
type Definition struct {
	Filters

	Resource  string      `json:"resource,omitempty"`
	Select    []string    `json:"select,omitempty"`
	Exclude   []string    `json:"exclude,omitempty"`
	Sort      *SortSpec   `json:"sort,omitempty"`
	Limit     *int        `json:"limit,omitempty"`
	Aggregate []Aggregate `json:"aggregate,omitempty"`
}

// DefinitionError is a schema or syntax error with its source position.
type DefinitionError struct {
	Message string
	Pos     token.Pos
}

func (e *DefinitionError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// LoadFile reads and parses the definition at path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query definition: %w", err)
	}
	return Parse(path, data)
}

// Parse compiles data, unifies it with the #Query schema, requires every
// field to be concrete, then decodes it. name is used in error positions.
func Parse(name string, data []byte) (*Definition, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile query schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Query"))

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var out Definition
	if err := unified.Decode(&out); err != nil {
		return nil, formatCUEError(err)
	}
	return &out, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	de := &DefinitionError{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		de.Pos = positions[0]
	}
	return de
}
