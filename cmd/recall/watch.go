package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillnote/recall/internal/watch"
)

var skipInitialIndex bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&skipInitialIndex, "no-initial-index", false, "Do not index changed notes before watching")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep embeddings current while notes are edited",
	Long: `Watch the notes directory and re-embed notes as they are written.

Before watching, notes changed since the last run are indexed. Deleted and
renamed files have their embeddings removed. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger(slog.LevelInfo)

	a := mustNewAppWithLogger(ctx, logger)
	defer a.Close()

	if a.settings.Notes.Dir == "" {
		exitWithError(ExitConfigError, "watch needs a notes directory; set notes.dir in the config file")
	}

	if !skipInitialIndex {
		stats, err := a.indexer.Reindex(ctx, a.mustLoadNotes(), false)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			exitWithError(ExitError, "indexing notes: %v", err)
		}
		logger.Info("initial index complete",
			"embedded", stats.Embedded,
			"unchanged", stats.Unchanged,
			"skipped", stats.Skipped,
			"removed", stats.Removed,
			"failed", stats.Failed,
		)
	}

	if humanOutput {
		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", a.settings.Notes.Dir)
	}
	if err := watch.New(a.settings.Notes.Dir, a.indexer, logger).Run(ctx); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return nil
}
