package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leiwang-ml/ragctl/internal/agent"
)

var (
	serverPath string
	dotenvPath string
	asOpenAI   bool
	askLevel   int
)

func newToolsCmd() *cobra.Command {
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Connect to a tool server and list its tools",
		RunE:  runTools,
	}
	toolsCmd.Flags().StringVarP(&serverPath, "server", "s", "rag_server.py", "Tool server script or binary to spawn")
	toolsCmd.Flags().BoolVar(&asOpenAI, "openai", false, "Print tools as OpenAI function-calling declarations")
	return toolsCmd
}

func newAskCmd() *cobra.Command {
	askCmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Call the rag_ml tool and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}
	askCmd.Flags().StringVarP(&serverPath, "server", "s", "rag_server.py", "Tool server script or binary to spawn")
	askCmd.Flags().StringVar(&dotenvPath, "dotenv", ".env", "Env file with the model credentials")
	askCmd.Flags().IntVar(&askLevel, "community-level", 2, "Community hierarchy level to search at")
	return askCmd
}

func clientLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runTools(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cli, err := agent.Connect(ctx, serverPath, nil, clientLogger())
	if err != nil {
		return err
	}
	defer cli.Close()

	tools, err := cli.ListTools(ctx)
	if err != nil {
		return err
	}

	if asOpenAI {
		out, err := json.MarshalIndent(agent.OpenAIDecls(tools), "", "  ")
		if err != nil {
			return fmt.Errorf("serialising declarations: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(tools) == 0 {
		fmt.Println("Server advertises no tools")
		return nil
	}
	fmt.Printf("Available tools (%d):\n", len(tools))
	for _, t := range tools {
		fmt.Printf("  - %s: %s\n", t.Name, firstLine(t.Description))
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// The credentials are for the spawned server's model calls; the
	// client itself never talks to the model directly.
	env, err := agent.LoadEnv(dotenvPath)
	if err != nil {
		return err
	}
	childEnv := []string{"OPENAI_API_KEY=" + env.APIKey}
	if env.BaseURL != "" {
		childEnv = append(childEnv, "BASE_URL="+env.BaseURL)
	}
	if env.Model != "" {
		childEnv = append(childEnv, "MODEL="+env.Model)
	}

	cli, err := agent.Connect(ctx, serverPath, childEnv, clientLogger())
	if err != nil {
		return err
	}
	defer cli.Close()

	answer, err := cli.CallText(ctx, "rag_ml", map[string]any{
		"query":           args[0],
		"community_level": askLevel,
	})
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
