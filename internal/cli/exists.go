package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/model"
)

// ExistsOptions holds flags for the exists command.
type ExistsOptions struct {
	*RootOptions
	Where []string
	Like  []string
}

// NewExistsCommand creates the exists command.
func NewExistsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExistsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exists <collection>",
		Short: "Check that no record matches a filter",
		Long: `Check that no record of the collection matches every --where and
--like condition.

Exits with code 0 when nothing matches and 1 (DOES_EXIST) otherwise, so it
can guard scripts:

  recstore exists users --where email=hans@example.com || echo taken`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExists(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality condition key=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Like, "like", nil, "pattern condition key=pattern (repeatable)")

	return cmd
}

func runExists(opts *ExistsOptions, collection string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

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

	if err := model.NewNone(e).LoadNone(ctx, f); err != nil {
		return formatter.FailModel(err)
	}
	if opts.Format == "json" {
		return formatter.Success(map[string]bool{"exists": false})
	}
	return formatter.Success("no match")
}
