package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recstore/internal/filter"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"3", 3},
		{"1.5", 1.5},
		{"true", true},
		{"null", nil},
		{"Hans", "Hans"},
		{`"42"`, "42"},
		{"a: b", "a: b"},
		{"[1, 2]", "[1, 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildFilter(t *testing.T) {
	f, err := buildFilter([]string{"test=2", "name=Hans"}, []string{"email=%@example.com"})
	require.NoError(t, err)

	assert.Equal(t, filter.Filter{
		"test":  2,
		"name":  "Hans",
		"email": filter.Like{Pattern: "%@example.com"},
	}, f)

	_, err = buildFilter([]string{"test"}, nil)
	assert.Error(t, err)
	_, err = buildFilter(nil, []string{"=x"})
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID([]string{"7"})
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	id, err = parseID([]string{"email=a@example.com", "name=Hans"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "a@example.com", "name": "Hans"}, id)
}
