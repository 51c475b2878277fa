package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanAnswer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "banner stripped",
			in: "creating llm client\nSUCCESS: Global Search Response:\n" +
				"Decision trees are supervised models.\n",
			want: "Decision trees are supervised models.",
		},
		{
			name: "no banner",
			in:   "  Plain answer text.\n",
			want: "Plain answer text.",
		},
		{
			name: "marker without newline",
			in:   "SUCCESS:",
			want: "SUCCESS:",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanAnswer(tt.in))
		})
	}
}

func TestCLISearcher_Defaults(t *testing.T) {
	c := NewCLISearcher("/proj")
	assert.Equal(t, "graphrag", c.Bin)
	assert.Equal(t, "/proj", c.Root)
	assert.Equal(t, "Multiple Paragraphs", c.ResponseType)
}

func TestCLISearcher_GlobalSearch(t *testing.T) {
	// echo prints its arguments, so the answer is the argument vector the
	// searcher built.
	c := &CLISearcher{Bin: "echo", Root: "/proj", ResponseType: "Multiple Paragraphs"}

	out, err := c.GlobalSearch(context.Background(), "what is overfitting?", 2)
	require.NoError(t, err)

	assert.Contains(t, out, "query --root /proj --method global")
	assert.Contains(t, out, "--community-level 2")
	assert.Contains(t, out, "--response-type Multiple Paragraphs")
	assert.Contains(t, out, "--query what is overfitting?")
}

func TestCLISearcher_GlobalSearch_MissingBinary(t *testing.T) {
	c := &CLISearcher{Bin: "definitely-not-installed-anywhere", Root: "/proj"}

	_, err := c.GlobalSearch(context.Background(), "q", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graphrag query failed")
}
