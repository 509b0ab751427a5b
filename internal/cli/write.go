package cli

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// WriteOptions holds flags shared by create and update.
type WriteOptions struct {
	*RootOptions
	Data      string
	DataFile  string
	Relations string
}

func (o *WriteOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Data, "data", "", "attributes as a JSON object")
	cmd.Flags().StringVar(&o.DataFile, "data-file", "", "read attributes from a JSON file")
	cmd.Flags().StringVar(&o.Relations, "relations", "", "comma separated relations to return")
}

// attributes decodes --data or --data-file into a JSON object.
func (o *WriteOptions) attributes() (map[string]any, error) {
	raw := []byte(o.Data)
	if o.DataFile != "" {
		b, err := os.ReadFile(o.DataFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read --data-file", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, NewExitError(ExitCommandError, "one of --data or --data-file is required")
	}

	var attrs map[string]any
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid attributes JSON", err)
	}
	return attrs, nil
}

// callArgs appends the relations list when one was given.
func (o *WriteOptions) callArgs(args ...any) []any {
	if rel := splitList(o.Relations); rel != nil {
		args = append(args, rel)
	}
	return args
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <resource>",
		Short: "Create a resource item",
		Long: `Create a resource item with POST <resource>.

Examples:
  restq create posts --data '{"title":"hello"}'
  restq create posts --data-file post.json --relations tags,author`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			attrs, err := opts.attributes()
			if err != nil {
				return out.Fail("create", err)
			}

			q, closeFn, err := opts.newQuery(args[0])
			if err != nil {
				return out.Fail("create", err)
			}
			defer closeFn()

			out.VerboseLog("POST %s", q.URL())
			res, err := q.Create(cmd.Context(), opts.callArgs(attrs)...)
			if err != nil {
				return out.Fail("create", err)
			}
			return out.Success(res)
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <resource> <id>",
		Short: "Update a resource item",
		Long: `Update a resource item with PUT <resource>/<id>.

Examples:
  restq update posts 4 --data '{"title":"renamed"}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			attrs, err := opts.attributes()
			if err != nil {
				return out.Fail("update", err)
			}

			q, closeFn, err := opts.newQuery(args[0])
			if err != nil {
				return out.Fail("update", err)
			}
			defer closeFn()

			out.VerboseLog("PUT %s/%s", q.URL(), args[1])
			res, err := q.Update(cmd.Context(), opts.callArgs(parseID(args[1]), attrs)...)
			if err != nil {
				return out.Fail("update", err)
			}
			return out.Success(res)
		},
	}
	opts.bind(cmd)

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a resource item",
		Long: `Delete a resource item with DELETE <resource>/<id>.

Examples:
  restq delete posts 4`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)

			q, closeFn, err := rootOpts.newQuery(args[0])
			if err != nil {
				return out.Fail("delete", err)
			}
			defer closeFn()

			out.VerboseLog("DELETE %s/%s", q.URL(), args[1])
			res, err := q.Delete(cmd.Context(), parseID(args[1]))
			if err != nil {
				return out.Fail("delete", err)
			}
			if res.Body() == nil {
				return out.Success(fmt.Sprintf("deleted %s/%s", q.URL(), args[1]))
			}
			return out.Success(res)
		},
	}

	return cmd
}
