package mcp

// In this file: MCP tool definitions and handler implementations.

import (
	"context"
	"errors"
	"fmt"
	"sort"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
)

// errNoProject is returned by tool handlers when the server was started
// without a loadable project.
var errNoProject = errors.New("no project is loaded")

// defaultCommunityLevel matches the level the reference pipeline queries
// at: deep enough for specific answers, shallow enough to stay fast.
const defaultCommunityLevel = 2

// ─── rag_ml ───────────────────────────────────────────────────────────────────

func (s *Server) toolRagML() mcpsrv.ServerTool {
	tool := mcplib.NewTool("rag_ml",
		mcplib.WithDescription(`Answer a question about the machine-learning corpus indexed in this
project's knowledge graph.

Runs a global search across community reports and returns a synthesised
answer. Use this for conceptual questions (e.g. about decision trees)
rather than lookups of individual documents.`),
		mcplib.WithString("query",
			mcplib.Description("The question to answer."),
			mcplib.Required(),
		),
		mcplib.WithNumber("community_level",
			mcplib.Description("Community hierarchy level to search at (default 2)."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleRagML}
}

func (s *Server) handleRagML(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.project == nil || s.searcher == nil {
		return resultErr(errNoProject), nil
	}

	query, ok := stringArg(req, "query")
	if !ok || query == "" {
		return resultErr(errors.New("rag_ml: query is required")), nil
	}
	level := intArg(req, "community_level", defaultCommunityLevel)

	s.logger.InfoContext(ctx, "mcp: rag_ml: searching", "level", level)

	answer, err := s.searcher.GlobalSearch(ctx, query, level)
	if err != nil {
		return resultErr(fmt.Errorf("rag_ml: %w", err)), nil
	}
	return resultText(answer), nil
}

// ─── project_info ─────────────────────────────────────────────────────────────

func (s *Server) toolProjectInfo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("project_info",
		mcplib.WithDescription("Describe the GraphRAG project behind this server: name, root directory, configured models, and artifact inventory."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleProjectInfo}
}

// projectInfo is a JSON-serialisable project summary.
type projectInfo struct {
	Name      string   `json:"name"`
	Root      string   `json:"root"`
	OutputDir string   `json:"output_dir"`
	Models    []string `json:"models,omitempty"`
	Artifacts int      `json:"artifacts"`
}

func (s *Server) handleProjectInfo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.project == nil {
		return resultErr(errNoProject), nil
	}

	arts, err := s.project.Artifacts()
	if err != nil {
		return resultErr(fmt.Errorf("project_info: %w", err)), nil
	}

	info := projectInfo{
		Name:      s.project.Name(),
		Root:      s.project.Root,
		OutputDir: s.project.OutputDir(),
		Artifacts: len(arts),
	}
	for name := range s.project.Models {
		info.Models = append(info.Models, name)
	}
	sort.Strings(info.Models)

	result, err := resultJSON(info)
	if err != nil {
		return resultErr(fmt.Errorf("project_info: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── list_artifacts ───────────────────────────────────────────────────────────

func (s *Server) toolListArtifacts() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_artifacts",
		mcplib.WithDescription("List the parquet artifacts produced by the indexing pipeline, with file sizes."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListArtifacts}
}

// artifactSummary is a JSON-serialisable artifact entry.
type artifactSummary struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (s *Server) handleListArtifacts(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.project == nil {
		return resultErr(errNoProject), nil
	}

	arts, err := s.project.Artifacts()
	if err != nil {
		return resultErr(fmt.Errorf("list_artifacts: %w", err)), nil
	}

	summaries := make([]artifactSummary, 0, len(arts))
	for _, a := range arts {
		summaries = append(summaries, artifactSummary{Name: a.Name, Size: a.Size})
	}

	result, err := resultJSON(summaries)
	if err != nil {
		return resultErr(fmt.Errorf("list_artifacts: serialise: %w", err)), nil
	}
	return result, nil
}
