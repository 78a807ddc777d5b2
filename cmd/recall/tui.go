package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/quillnote/recall/internal/tui"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Search notes interactively",
	Long: `Open an interactive search screen. Type a query and press Enter;
use the arrow keys to move between results and Esc to quit.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a := mustNewApp(ctx)
	defer a.Close()

	// Start probing now so the first search rarely sees "connecting"
	go a.monitor.CheckConnection(ctx)

	m := tui.New(ctx, a.engine, a.mustLoadNotes()).WithConnection(a.monitor)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		exitWithError(ExitError, "running tui: %v", err)
	}
	return nil
}
