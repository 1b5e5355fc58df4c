package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/model"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Where []string
	Like  []string
	All   bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <collection>",
		Short: "Delete the records matching a filter",
		Long: `Load the records matching every --where and --like condition and
delete them in a single request. Deleting every record of a collection
requires --all.

A record still referenced by another fails the whole delete with
IS_REFERENCE and nothing is removed.

Example:
  recstore delete comment --where userid=7
  recstore delete sessions --all`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality condition key=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Like, "like", nil, "pattern condition key=pattern (repeatable)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "delete every record when no condition is given")

	return cmd
}

func runDelete(opts *DeleteOptions, collection string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if len(opts.Where) == 0 && len(opts.Like) == 0 && !opts.All {
		return formatter.Fail(ExitCommandError, ErrCodeUsage,
			fmt.Errorf("refusing to delete every record of %s without --all", collection))
	}
	f, err := buildFilter(opts.Where, opts.Like)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.engine(collection, formatter)
	if err != nil {
		return err
	}

	m := model.NewMany(e)
	if err := m.Load(ctx, f, filter.Options{}); err != nil {
		return formatter.FailModel(err)
	}
	if err := m.DeleteAll(ctx); err != nil {
		return formatter.FailModel(err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]int{"deleted": m.Len()})
	}
	return formatter.Success(fmt.Sprintf("%s: deleted %d", collection, m.Len()))
}
