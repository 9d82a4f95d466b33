package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canarist/internal/core/domain"
)

func ptr(s string) *string { return &s }

func parse(t *testing.T, args ...string) []domain.RepositoryInput {
	t.Helper()
	collapsed, err := collapseSubArguments(args)
	require.NoError(t, err)

	var values []string
	for i := 0; i < len(collapsed); i++ {
		if collapsed[i] == "-r" || collapsed[i] == "--repository" {
			i++
			values = append(values, collapsed[i])
		}
	}
	inputs, err := parseRepositoryFlags(values)
	require.NoError(t, err)
	return inputs
}

func TestCollapseSubArguments(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "no groups",
			args:     []string{"-r", "https://github.com/xing/hops.git", "/tmp/out"},
			expected: []string{"-r", "https://github.com/xing/hops.git", "/tmp/out"},
		},
		{
			name:     "group",
			args:     []string{"-r", "[", "hops", "-b", "next", "]", "-u"},
			expected: []string{"-r", "[hops\x00-b\x00next]", "-u"},
		},
		{
			name:     "brackets attached to tokens",
			args:     []string{"-r", "[hops", "-c", "yarn lint]"},
			expected: []string{"-r", "[hops\x00-c\x00yarn lint]"},
		},
		{
			name:     "single token group",
			args:     []string{"-r", "[hops]"},
			expected: []string{"-r", "[hops]"},
		},
		{
			name:     "nested group is kept verbatim",
			args:     []string{"-r", "[hops", "[x]", "]"},
			expected: []string{"-r", "[hops\x00[x]]"},
		},
		{
			name:     "inline flag value",
			args:     []string{"--repository=[hops", "-d", "h]"},
			expected: []string{"--repository", "[hops\x00-d\x00h]"},
		},
		{
			name:     "arguments after double dash",
			args:     []string{"-u", "--", "[not-a-group"},
			expected: []string{"-u", "--", "[not-a-group"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := collapseSubArguments(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestCollapseSubArguments_Unterminated(t *testing.T) {
	_, err := collapseSubArguments([]string{"-r", "[hops", "-b", "next"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrInvalidRepositoryArgument.Error())
}

func TestParseRepositoryFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []domain.RepositoryInput
	}{
		{
			name:     "plain urls",
			args:     []string{"-r", "https://github.com/xing/hops.git", "--repository", "."},
			expected: []domain.RepositoryInput{{URL: "https://github.com/xing/hops.git"}, {URL: "."}},
		},
		{
			name: "all sub arguments",
			args: []string{"-r", "[", "https://github.com/xing/hops.git", "-b", "next", "-d", "hops-next", "-c", "yarn lint", "--command", "yarn test", "]"},
			expected: []domain.RepositoryInput{{
				URL:       "https://github.com/xing/hops.git",
				Branch:    ptr("next"),
				Directory: "hops-next",
				Commands:  []string{"yarn lint", "yarn test"},
			}},
		},
		{
			name:     "bare command means no command",
			args:     []string{"-r", "[hops", "-c]"},
			expected: []domain.RepositoryInput{{URL: "hops", Commands: []string{""}}},
		},
		{
			name:     "bare command followed by a flag",
			args:     []string{"-r", "[hops", "-c", "-b", "main]"},
			expected: []domain.RepositoryInput{{URL: "hops", Branch: ptr("main"), Commands: []string{""}}},
		},
		{
			name: "groups and plain urls keep their order",
			args: []string{"-r", "[a", "-b", "x]", "-r", "b", "-r", "[c]"},
			expected: []domain.RepositoryInput{
				{URL: "a", Branch: ptr("x")},
				{URL: "b"},
				{URL: "c"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parse(t, tt.args...))
		})
	}
}

func TestParseRepositoryFlags_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "empty group", value: "[]"},
		{name: "two urls", value: "[a\x00b]"},
		{name: "unknown flag", value: "[a\x00-x]"},
		{name: "missing branch value", value: "[a\x00-b]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRepositoryFlags([]string{tt.value})
			require.Error(t, err)
			assert.Contains(t, err.Error(), domain.ErrInvalidRepositoryArgument.Error())
		})
	}
}
