package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/restq/internal/query"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Columns string
	Page    int
	PerPage int
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <resource> [id]",
		Short: "Fetch a resource collection or a single item",
		Long: `Fetch a resource collection or a single item.

With an id, sends GET <resource>/<id>. Without one, sends GET <resource>;
--page or --per-page switch to a paginated request.

Examples:
  restq get posts
  restq get posts 2 --columns id,title
  restq get https://api.example.com/posts --page 2 --per-page 25 --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Columns, "columns", "", "comma separated columns to return")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 0, "items per page")

	return cmd
}

func runGet(cmd *cobra.Command, opts *GetOptions, args []string) error {
	out := opts.formatter(cmd)

	q, closeFn, err := opts.newQuery(args[0])
	if err != nil {
		return out.Fail("get", err)
	}
	defer closeFn()

	columns := splitList(opts.Columns)
	var callArgs []any
	switch {
	case len(args) == 2:
		callArgs = []any{parseID(args[1])}
		if columns != nil {
			callArgs = append(callArgs, columns)
		}
	case opts.Page > 0 || opts.PerPage > 0:
		callArgs = []any{query.New()}
		if columns != nil {
			callArgs = append(callArgs, columns)
		}
		callArgs = append(callArgs, positive(opts.Page), positive(opts.PerPage))
	case columns != nil:
		callArgs = []any{columns}
	}

	out.VerboseLog("GET %s", q.URL())
	res, err := q.Get(cmd.Context(), callArgs...)
	if err != nil {
		return out.Fail("get", err)
	}
	return out.Success(res)
}

// positive returns nil for n <= 0 so the dispatcher applies the default.
func positive(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}
