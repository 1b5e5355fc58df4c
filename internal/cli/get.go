package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/model"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <collection> <id | key=value...>",
		Short: "Load one record by key and print its public projection",
		Long: `Load exactly one record by key. Collections with a composite key take
one key=value pair per key field.

Exits with code 1 when no record matches.

Example:
  recstore get users 7
  recstore get memberships user=7 team=3`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, args[0], args[1:], cmd)
		},
	}
	return cmd
}

func runGet(opts *RootOptions, collection string, idArgs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	id, err := parseID(idArgs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, opts, formatter)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.engine(collection, formatter)
	if err != nil {
		return err
	}

	o := model.NewOne(e, nil)
	if err := o.LoadByID(ctx, id); err != nil {
		return formatter.FailModel(err)
	}
	out, err := public(ctx, e, o.GenerateDerived, o.Public)
	if err != nil {
		return formatter.FailModel(err)
	}
	return formatter.Success(out)
}
