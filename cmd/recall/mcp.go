package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillnote/recall/internal/mcpserver"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve note search to agents over MCP (stdio)",
	Long: `Run a Model Context Protocol server on stdin/stdout with the tools
search_notes, build_context and related_notes. Notes are re-read on every
tool call.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// stdout carries the protocol; logs go to stderr only
	a := mustNewAppWithLogger(ctx, newLogger(slog.LevelInfo))
	defer a.Close()

	server, err := mcpserver.NewServer(a.engine, a.assembler, a.loadNotes, Version)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	go a.monitor.CheckConnection(ctx)
	return server.Serve(ctx)
}
