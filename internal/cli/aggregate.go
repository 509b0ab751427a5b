package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/restq/internal/query"
	"github.com/roach88/restq/internal/resource"
)

// AggregateOptions holds flags for the aggregate command.
type AggregateOptions struct {
	*RootOptions
	Relation   string
	Definition string
}

// AggregateResult is the output of the aggregate command.
type AggregateResult struct {
	Method   string `json:"method"`
	Column   string `json:"column"`
	Relation string `json:"relation,omitempty"`
	Name     string `json:"name"`
	Value    any    `json:"value"`
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AggregateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "aggregate <resource> <count|min|max|sum|avg> [column]",
		Short: "Compute an aggregate over a resource",
		Long: `Compute an aggregate over a resource.

The column defaults to "*". --relation aggregates over a related resource,
and --definition narrows the rows with a query definition file.

Examples:
  restq aggregate posts count
  restq aggregate posts count --relation comments
  restq aggregate orders sum amount --definition paid.cue`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Relation, "relation", "", "related resource to aggregate over")
	cmd.Flags().StringVar(&opts.Definition, "definition", "", "query definition file narrowing the rows")

	return cmd
}

func runAggregate(cmd *cobra.Command, opts *AggregateOptions, args []string) error {
	out := opts.formatter(cmd)

	column := ""
	if len(args) == 3 {
		column = args[2]
	}
	agg, err := query.NewAggregationColumn(args[1], column, opts.Relation)
	if err != nil {
		return out.Fail("aggregate", err)
	}

	var (
		q       *resource.Query
		closeFn func() error
	)
	if opts.Definition != "" {
		q, closeFn, err = opts.loadDefinition(opts.Definition, args[0])
	} else {
		q, closeFn, err = opts.newQuery(args[0])
	}
	if err != nil {
		return out.Fail("aggregate", err)
	}
	defer closeFn()

	out.VerboseLog("GET %s (%s)", q.URL(), agg.String())
	value, err := aggregate(cmd.Context(), q, agg)
	if err != nil {
		return out.Fail("aggregate", err)
	}

	return out.Success(AggregateResult{
		Method:   string(agg.Method),
		Column:   agg.Column,
		Relation: agg.Relation,
		Name:     agg.String(),
		Value:    value,
	})
}

func aggregate(ctx context.Context, q *resource.Query, agg query.AggregationColumn) (any, error) {
	switch agg.Method {
	case query.MethodCount:
		return q.Count(ctx, agg.Column, agg.Relation)
	case query.MethodMin:
		return q.Min(ctx, agg.Column, agg.Relation)
	case query.MethodMax:
		return q.Max(ctx, agg.Column, agg.Relation)
	case query.MethodSum:
		return q.Sum(ctx, agg.Column, agg.Relation)
	default:
		return q.Avg(ctx, agg.Column, agg.Relation)
	}
}
