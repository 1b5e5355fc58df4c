package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/model"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Where  []string
	Like   []string
	Limit  int
	Offset int
	Order  []string
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <collection>",
		Short: "Load records and print their public projection",
		Long: `Load the records of a collection matching every --where and --like
condition and print their public projection.

Values in --where are read as YAML scalars (3, true, null, text).
--like takes a SQL LIKE pattern where % matches any run of characters.

Example:
  recstore find users --where role=admin --limit 10
  recstore find users --like email=%@example.com --order -id`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality condition key=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Like, "like", nil, "pattern condition key=pattern (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of records (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "records to skip")
	cmd.Flags().StringArrayVar(&opts.Order, "order", nil, "sort field, -field for descending (repeatable)")

	return cmd
}

func runFind(opts *FindOptions, collection string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	f, err := buildFilter(opts.Where, opts.Like)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err)
	}
	loadOpts := filter.Options{Limit: opts.Limit, Offset: opts.Offset}
	for _, o := range opts.Order {
		loadOpts.Order = append(loadOpts.Order, filter.ParseOrder(o))
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
	if err := m.Load(ctx, f, loadOpts); err != nil {
		return formatter.FailModel(err)
	}
	formatter.VerboseLog("Loaded %d record(s) from %s", m.Len(), collection)

	out, err := public(ctx, e, m.GenerateDerived, m.Public)
	if err != nil {
		return formatter.FailModel(err)
	}
	return formatter.Success(out)
}
