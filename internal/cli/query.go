package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/restq/internal/querydef"
	"github.com/roach88/restq/internal/resource"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Resource string
	First    bool
	Envelope bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <definition>",
		Short: "Run a query described in a CUE or JSON file",
		Long: `Run a query described in a CUE or JSON file.

The file is checked against the query schema, applied to a new query and
sent as GET <resource> with the _query/_columns/_hidden envelope. The
resource comes from --resource or the file's resource field.

Example definition:
  resource: "posts"
  where: [{column: "status", value: "open"}]
  sort: {by: "id", order: "desc"}

Examples:
  restq query open-posts.cue
  restq query open-posts.cue --first
  restq query open-posts.cue --envelope`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Resource, "resource", "", "resource to query (overrides the file)")
	cmd.Flags().BoolVar(&opts.First, "first", false, "return only the first row")
	cmd.Flags().BoolVar(&opts.Envelope, "envelope", false, "print the request envelope without sending it")

	return cmd
}

// loadDefinition reads path and applies it to a query for the definition's
// resource, or for override when set.
func (o *RootOptions) loadDefinition(path, override string) (*resource.Query, func() error, error) {
	def, err := querydef.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	target := override
	if target == "" {
		target = def.Resource
	}
	if target == "" {
		return nil, nil, NewExitError(ExitCommandError, "no resource: set --resource or the definition's resource field")
	}

	q, closeFn, err := o.newQuery(target)
	if err != nil {
		return nil, nil, err
	}
	if err := def.Apply(q.Builder()); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return q, closeFn, nil
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, path string) error {
	out := opts.formatter(cmd)

	q, closeFn, err := opts.loadDefinition(path, opts.Resource)
	if err != nil {
		return out.Fail("query", err)
	}
	defer closeFn()

	if opts.Envelope {
		env, err := q.Envelope()
		if err != nil {
			return out.Fail("query", err)
		}
		return out.Success(env)
	}

	out.VerboseLog("GET %s", q.URL())
	if opts.First {
		row, err := q.First(cmd.Context())
		if err != nil {
			return out.Fail("query", err)
		}
		return out.Success(row)
	}

	res, err := q.Execute(cmd.Context())
	if err != nil {
		return out.Fail("query", err)
	}
	return out.Success(res)
}
