package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Long: `Write a default configuration file (recstore.yaml unless a path is given).

An existing file is never overwritten.

Example:
  recstore init
  recstore init ./deploy/recstore.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "recstore.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			return runInit(rootOpts, path, cmd)
		},
	}
	return cmd
}

func runInit(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if err := config.WriteDefault(path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, fmt.Errorf("%s already exists", path))
		}
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]string{"path": path})
	}
	return formatter.Success("wrote " + path)
}
