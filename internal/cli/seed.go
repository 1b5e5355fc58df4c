package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recstore/internal/model"
	"github.com/roach88/recstore/internal/record"
)

// SeedBatch is the records of one collection in a seed file.
type SeedBatch struct {
	Collection string
	Records    []record.Record
}

// SeedResult reports what seed stored per collection.
type SeedResult struct {
	Collection string          `json:"collection"`
	Stored     int             `json:"stored"`
	Records    []record.Record `json:"records,omitempty"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Store records from a YAML file",
		Long: `Store the records of a YAML file, one batch per collection, in file order.

The file maps collection names to lists of records:

  users:
    - email: hans@example.com
      name: Hans
  comment:
    - userid: 1
      comment: hello

Each batch is validated and stored as a whole. Seeding stops at the first
failing batch; earlier batches stay stored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

// ReadSeed parses a seed file, keeping the collection order of the file.
func ReadSeed(data []byte) ([]SeedBatch, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("seed file line %d: expected a mapping of collection names to records", root.Line)
	}

	batches := make([]SeedBatch, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, body := root.Content[i], root.Content[i+1]
		var raw []map[string]any
		if err := body.Decode(&raw); err != nil {
			return nil, fmt.Errorf("seed file line %d: collection %s: %w", body.Line, name.Value, err)
		}
		recs := make([]record.Record, len(raw))
		for j, r := range raw {
			recs[j] = record.Record(r)
		}
		batches = append(batches, SeedBatch{Collection: name.Value, Records: recs})
	}
	return batches, nil
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err)
	}
	batches, err := ReadSeed(data)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, opts, formatter)
	if err != nil {
		return err
	}
	defer a.Close()

	// Resolve every collection before storing anything.
	engines := make([]*model.Engine, len(batches))
	for i, b := range batches {
		if engines[i], err = a.engine(b.Collection, formatter); err != nil {
			return err
		}
	}

	results := make([]SeedResult, 0, len(batches))
	for i, b := range batches {
		m := model.NewMany(engines[i], b.Records...)
		if err := m.Store(ctx); err != nil {
			return formatter.FailModel(err)
		}
		formatter.VerboseLog("Stored %d record(s) in %s", m.Len(), b.Collection)
		results = append(results, SeedResult{Collection: b.Collection, Stored: m.Len(), Records: m.Contents()})
	}

	if opts.Format == "json" {
		return formatter.Success(results)
	}
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("%s: stored %d", r.Collection, r.Stored)
	}
	return formatter.Success(lines)
}
