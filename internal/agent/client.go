package agent

// In this file: MCP stdio client session management.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const (
	clientName    = "ragctl"
	clientVersion = "1.0.0"
)

// ServerCommand determines how to launch a tool server from its path:
// Python and Node scripts run under their interpreters, anything else is
// treated as a directly executable binary.
func ServerCommand(path string) (cmd string, args []string) {
	switch {
	case strings.HasSuffix(path, ".py"):
		return "python", []string{path}
	case strings.HasSuffix(path, ".js"):
		return "node", []string{path}
	default:
		return path, nil
	}
}

// Client is an MCP client connected to a spawned stdio tool server.
type Client struct {
	mcp    *mcpclient.Client
	logger *slog.Logger
}

// Connect spawns the server at serverPath, initialises the MCP session
// and returns a connected client. env entries (KEY=VALUE) are passed to
// the spawned process in addition to the current environment.
func Connect(ctx context.Context, serverPath string, env []string, lg *slog.Logger) (*Client, error) {
	if lg == nil {
		lg = slog.Default()
	}

	cmd, args := ServerCommand(serverPath)
	lg.InfoContext(ctx, "connecting to tool server", "command", cmd, "args", args)

	cli, err := mcpclient.NewStdioMCPClient(cmd, env, args...)
	if err != nil {
		return nil, fmt.Errorf("spawning server %q: %w", serverPath, err)
	}

	initReq := mcplib.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcplib.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcplib.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		cli.Close()
		return nil, fmt.Errorf("initialising session: %w", err)
	}
	lg.InfoContext(ctx, "session initialised")

	return &Client{mcp: cli, logger: lg}, nil
}

// ListTools returns the tools the server advertises.
func (c *Client) ListTools(ctx context.Context) ([]mcplib.Tool, error) {
	res, err := c.mcp.ListTools(ctx, mcplib.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	return res.Tools, nil
}

// CallText invokes a tool and returns its concatenated text content. A
// tool-level error result is surfaced as a Go error.
func (c *Client) CallText(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcplib.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.mcp.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling tool %s: %w", name, err)
	}

	text := textContent(res)
	if res.IsError {
		return "", fmt.Errorf("tool %s failed: %s", name, text)
	}
	return text, nil
}

// Close terminates the session and the spawned server.
func (c *Client) Close() error {
	return c.mcp.Close()
}

func textContent(res *mcplib.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(mcplib.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
