package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leiwang-ml/ragctl/internal/entrypoint"
	"github.com/leiwang-ml/ragctl/internal/manifest"
	ragmcp "github.com/leiwang-ml/ragctl/internal/mcp"
	"github.com/leiwang-ml/ragctl/internal/ragproj"
)

var (
	manifestPath string
	verbose      bool

	projectRoot string
	transport   string
	httpAddr    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ragctl",
		Short: "Project manifest resolver and GraphRAG MCP toolkit",
		Long:  "ragctl resolves a project's pyproject.toml descriptor — entry points, dependency constraints, index mirror — and runs the GraphRAG MCP tool server and client declared by it.",
	}

	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "f", "./pyproject.toml", "Project descriptor path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	runCmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Resolve a declared entry point and invoke it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd.Context(), args[0])
		},
	}
	addServerFlags(runCmd)

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the GraphRAG MCP tool server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd.Context(), "start")
		},
	}
	addServerFlags(startCmd)

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Delegate to the declared test runner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd.Context(), "test")
		},
	}

	lintCmd := &cobra.Command{
		Use:   "lint",
		Short: "Delegate to the declared lint runner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd.Context(), "lint")
		},
	}

	rootCmd.AddCommand(runCmd, startCmd, testCmd, lintCmd, newDepsCmd(), newToolsCmd(), newAskCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Delegated runners own their exit codes; pass them through.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&projectRoot, "project", "p", "./graphrag", "GraphRAG project root directory")
	cmd.Flags().StringVarP(&transport, "transport", "t", "stdio", "MCP transport (stdio or http)")
	cmd.Flags().StringVar(&httpAddr, "addr", "127.0.0.1:8090", "Listen address for the http transport")
}

func logf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// loadResolver parses the descriptor once and builds the entry-point
// resolver over its script table.
func loadResolver() (*manifest.Manifest, *entrypoint.Resolver, error) {
	logf("Parsing manifest: %s", manifestPath)
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, nil, err
	}
	return m, entrypoint.NewResolver(m.Project.Scripts), nil
}

// newRegistry binds the targets this build knows how to invoke. The
// descriptor names the targets; these are the callables behind them.
func newRegistry() *entrypoint.Registry {
	reg := entrypoint.NewRegistry()
	reg.Register(entrypoint.Target{Module: "graphrag.app", Callable: "main"}, startServer)
	reg.Register(entrypoint.Target{Module: "pytest", Callable: "main"}, delegate("pytest"))
	reg.Register(entrypoint.Target{Module: "pylint", Callable: "run_pylint"}, delegate("pylint"))
	return reg
}

// delegate runs an external runner with inherited stdio. Its exit code is
// the process outcome.
func delegate(bin string) entrypoint.Func {
	return func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, bin)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
}

func dispatch(ctx context.Context, command string) error {
	_, res, err := loadResolver()
	if err != nil {
		return err
	}
	return newRegistry().Dispatch(ctx, res, command)
}

// startServer is the implementation behind the "graphrag.app:main" entry
// point.
func startServer(ctx context.Context) error {
	settings, err := ragproj.Load(projectRoot)
	if err != nil {
		return err
	}
	if err := settings.CheckArtifacts(); err != nil {
		return err
	}

	// On the stdio transport stdout carries the protocol; log to stderr.
	lg := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := ragmcp.New(settings, ragmcp.WithLogger(lg))

	switch ragmcp.Transport(transport) {
	case ragmcp.TransportHTTP:
		return srv.ServeHTTP(ctx, httpAddr)
	case ragmcp.TransportStdio:
		return srv.ServeStdio(ctx)
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
}
