package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recstore/internal/schema"
)

// CollectionInfo describes a compiled collection for check output.
type CollectionInfo struct {
	Name   string      `json:"name"`
	Keys   []string    `json:"keys"`
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo describes one field of a compiled collection.
type FieldInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Key       bool   `json:"key,omitempty"`
	Auto      bool   `json:"auto,omitempty"`
	Optional  bool   `json:"optional,omitempty"`
	Unique    bool   `json:"unique,omitempty"`
	Transient bool   `json:"transient,omitempty"`
	Public    bool   `json:"public,omitempty"`
	Mapped    string `json:"mapped,omitempty"`
	Default   bool   `json:"default,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [schemas-dir]",
		Short: "Compile CUE schemas and list their collections",
		Long: `Compile the CUE collection declarations and print every collection
with its fields. Does not open the database.

The directory defaults to the configured schemas directory.

Example:
  recstore check ./schemas
  recstore check --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	dir := opts.Schemas
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		cfg, err := loadConfig(opts)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, err)
		}
		dir = cfg.Schemas
	}

	formatter.VerboseLog("Compiling schemas in %s", dir)
	cols, err := schema.LoadDir(dir)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeSchema, err)
	}

	infos := make([]CollectionInfo, len(cols))
	for i, c := range cols {
		infos[i] = describe(c)
	}

	if opts.Format == "json" {
		return formatter.Success(infos)
	}
	lines := make([]string, len(infos))
	for i, info := range infos {
		lines[i] = info.String()
	}
	return formatter.Success(lines)
}

func describe(c schema.Collection) CollectionInfo {
	info := CollectionInfo{Name: c.Name, Keys: c.Schema.KeyNames()}
	for _, f := range c.Schema.Fields() {
		info.Fields = append(info.Fields, FieldInfo{
			Name:      f.Name,
			Type:      string(f.Type),
			Key:       f.Key,
			Auto:      f.Auto,
			Optional:  f.Optional,
			Unique:    f.Unique,
			Transient: f.Transient,
			Public:    f.Public,
			Mapped:    f.Mapped,
			Default:   f.HasDefault(),
		})
	}
	return info
}

// String renders the collection on one line: "users: id(id key auto) ...".
func (c CollectionInfo) String() string {
	parts := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		attrs := []string{f.Type}
		for _, a := range []struct {
			on   bool
			name string
		}{
			{f.Key, "key"}, {f.Auto, "auto"}, {f.Optional, "optional"},
			{f.Unique, "unique"}, {f.Transient, "transient"}, {f.Public, "public"},
			{f.Default, "default"},
		} {
			if a.on {
				attrs = append(attrs, a.name)
			}
		}
		if f.Mapped != "" {
			attrs = append(attrs, "as "+f.Mapped)
		}
		parts[i] = fmt.Sprintf("%s(%s)", f.Name, strings.Join(attrs, " "))
	}
	return c.Name + ": " + strings.Join(parts, " ")
}
