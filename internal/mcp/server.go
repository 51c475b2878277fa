package mcp

// In this file: MCP server construction and transport management.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/leiwang-ml/ragctl/internal/ragproj"
)

const (
	serverName    = "ragserver"
	serverVersion = "1.0.0"
)

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	// TransportStdio uses stdin/stdout (default, suitable for local agent
	// integrations).
	TransportStdio Transport = "stdio"
	// TransportHTTP uses Streamable HTTP (suitable for remote agents).
	TransportHTTP Transport = "http"
)

// Server wraps an MCP server, the GraphRAG project it serves, and the
// search collaborator that answers queries.
type Server struct {
	mcp      *mcpsrv.MCPServer
	project  *ragproj.Settings
	searcher GlobalSearcher
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithSearcher replaces the search collaborator.
func WithSearcher(gs GlobalSearcher) Option {
	return func(s *Server) {
		if gs != nil {
			s.searcher = gs
		}
	}
}

// New creates an MCP server for the given project. The server is
// populated with all tools but does not start listening until one of the
// Serve* methods is called.
func New(project *ragproj.Settings, opts ...Option) *Server {
	s := &Server{
		project: project,
		logger:  slog.Default(),
	}
	if project != nil {
		s.searcher = NewCLISearcher(project.Root)
	}
	for _, opt := range opts {
		opt(s)
	}

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions(project)),
	)
	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}

	s.mcp = mcpServer
	return s
}

// instructions returns the server instructions describing the knowledge
// graph to the connecting agent.
func instructions(p *ragproj.Settings) string {
	name := "(no project loaded)"
	if p != nil {
		name = p.Name()
	}
	return fmt.Sprintf(`You are connected to a GraphRAG MCP server.

The project %q exposes a knowledge graph built from a machine-learning
corpus. Available tools allow you to:
- Run a global search over the graph's community reports (rag_ml)
- Inspect the project configuration (project_info)
- List the indexed output artifacts (list_artifacts)

Answers come from the pre-built index; the server never mutates it.
`, name)
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is
// cancelled. This is the transport local agent integrations use.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the MCP server as a Streamable HTTP server on addr until
// ctx is cancelled. addr is a host:port string such as "127.0.0.1:8090".
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr}
	streamSrv := mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(httpSrv),
	)

	s.logger.InfoContext(ctx, "mcp server listening on http", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := streamSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.InfoContext(ctx, "mcp server shutting down")
		if err := streamSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// tools returns all MCP tools this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolRagML(),
		s.toolProjectInfo(),
		s.toolListArtifacts(),
	}
}

// resultText wraps text in a successful CallToolResult.
func resultText(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

// resultErr wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultJSON serialises v to JSON and returns a CallToolResult.
func resultJSON(v any) (*mcplib.CallToolResult, error) {
	return mcplib.NewToolResultJSON(v)
}

// stringArg extracts a named string argument from a tool call request.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg extracts a named int argument. The protocol serialises numbers
// as float64, so convert accordingly.
func intArg(req mcplib.CallToolRequest, name string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return defaultVal
}
