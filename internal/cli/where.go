package cli

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/recstore/internal/filter"
	"github.com/roach88/recstore/internal/record"
)

// parseValue reads a flag value as a YAML scalar: 3 is an int, true a bool,
// null is nil and anything else a string.
func parseValue(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("parse value %q: %w", s, err)
	}
	switch v.(type) {
	case map[string]any, []any:
		return s, nil
	}
	return v, nil
}

// splitPair splits "key=value".
func splitPair(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return k, v, nil
}

// parseRecord turns key=value pairs into a record.
func parseRecord(pairs []string) (record.Record, error) {
	r := make(record.Record, len(pairs))
	for _, p := range pairs {
		k, raw, err := splitPair(p)
		if err != nil {
			return nil, err
		}
		v, err := parseValue(raw)
		if err != nil {
			return nil, err
		}
		r[k] = v
	}
	return r, nil
}

// buildFilter combines equality pairs and LIKE patterns into a filter.
func buildFilter(where, like []string) (filter.Filter, error) {
	eq, err := parseRecord(where)
	if err != nil {
		return nil, err
	}
	f := filter.FromRecord(eq)
	for _, p := range like {
		k, pattern, err := splitPair(p)
		if err != nil {
			return nil, err
		}
		f[k] = filter.Like{Pattern: pattern}
	}
	return f, nil
}

// parseID reads the id arguments of get: a single value for a single-key
// collection, or key=value pairs naming every key field.
func parseID(args []string) (any, error) {
	if len(args) == 1 && !strings.Contains(args[0], "=") {
		return parseValue(args[0])
	}
	r, err := parseRecord(args)
	if err != nil {
		return nil, err
	}
	return map[string]any(r), nil
}
