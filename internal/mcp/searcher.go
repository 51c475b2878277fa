package mcp

// In this file: the search collaborator behind the rag_ml tool.

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// GlobalSearcher answers a query from the project's knowledge graph,
// searching across community reports. The retrieval engine itself is an
// external collaborator; implementations only carry the answer back.
type GlobalSearcher interface {
	GlobalSearch(ctx context.Context, query string, communityLevel int) (string, error)
}

// CLISearcher delegates global search to the external graphrag
// command-line tool, keeping the retrieval library fully opaque.
type CLISearcher struct {
	Bin          string // graphrag executable, defaults to "graphrag"
	Root         string // project root directory
	ResponseType string // e.g. "Multiple Paragraphs"
}

// NewCLISearcher creates a searcher for the project rooted at root.
func NewCLISearcher(root string) *CLISearcher {
	return &CLISearcher{
		Bin:          "graphrag",
		Root:         root,
		ResponseType: "Multiple Paragraphs",
	}
}

// GlobalSearch runs `graphrag query --method global` and returns its
// answer text.
func (c *CLISearcher) GlobalSearch(ctx context.Context, query string, communityLevel int) (string, error) {
	bin := c.Bin
	if bin == "" {
		bin = "graphrag"
	}

	args := []string{
		"query",
		"--root", c.Root,
		"--method", "global",
		"--community-level", strconv.Itoa(communityLevel),
	}
	if c.ResponseType != "" {
		args = append(args, "--response-type", c.ResponseType)
	}
	args = append(args, "--query", query)

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("graphrag query failed: %s", msg)
	}

	return cleanAnswer(stdout.String()), nil
}

// cleanAnswer strips the progress banner the graphrag CLI prints before
// the answer. Everything after the "SUCCESS:" marker line is the
// response; without a marker the whole output is returned trimmed.
func cleanAnswer(out string) string {
	if i := strings.Index(out, "SUCCESS:"); i >= 0 {
		rest := out[i:]
		if j := strings.IndexByte(rest, '\n'); j >= 0 {
			return strings.TrimSpace(rest[j+1:])
		}
	}
	return strings.TrimSpace(out)
}
