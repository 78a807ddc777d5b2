package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillnote/recall/internal/modelselect"
	"github.com/quillnote/recall/internal/semantic"
)

var (
	noProgress bool
	forceIndex bool
)

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
	indexCmd.Flags().BoolVar(&forceIndex, "force", false, "Re-embed every note even if unchanged")
}

// IndexResult is the response for the index command.
type IndexResult struct {
	Status          string             `json:"status"`
	Embedded        int                `json:"embedded"`
	Unchanged       int                `json:"unchanged"`
	Skipped         int                `json:"skipped"`
	Removed         int                `json:"removed"`
	Failed          int                `json:"failed"`
	Failures        []semantic.Failure `json:"failures,omitempty"`
	DurationSeconds float64            `json:"duration_seconds"`
	Model           string             `json:"model"`
	Records         int                `json:"records"`
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed new and changed notes",
	Long: `Bring the embedding store in line with the configured notes.

Notes whose text changed since they were last embedded are embedded again;
unchanged notes are left alone unless --force is given. Notes too short to
carry meaning are skipped, and records of trashed or deleted notes are
removed.

Requires the inference server to be running with an embedding model.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a := mustNewApp(ctx)
	defer a.Close()

	all := a.mustLoadNotes()

	// Fail fast with a clear message instead of one failure per note
	if err := a.backend.Ping(ctx); err != nil {
		exitWithError(ExitRetrievalUnavailable, "%v\n\n%v", semantic.ErrNotConnected, err)
	}
	model, err := a.models.ModelFor(ctx, modelselect.Embedding)
	if errors.Is(err, modelselect.ErrNoModel) {
		exitWithError(ExitModelNotFound, "%v\n\nRun 'ollama pull %s' to install one.", err, a.backend.ModelName())
	}
	if err != nil {
		exitWithCoreError("selecting embedding model", err)
	}

	if !noProgress && humanOutput {
		a.indexer.SetProgressReporter(semantic.ProgressFunc(printProgress))
		fmt.Fprintf(os.Stderr, "Indexing %d notes...\n", len(all))
	}

	stats, err := a.indexer.Reindex(ctx, all, forceIndex)

	// Clear progress line if we were showing progress
	if humanOutput && !noProgress {
		fmt.Fprintf(os.Stderr, "\r%*s\r", progressLineClearWidth, "")
	}
	if err != nil {
		exitWithError(ExitError, "indexing notes: %v", err)
	}

	records, err := a.store.Count(ctx)
	if err != nil {
		exitWithError(ExitError, "counting embeddings: %v", err)
	}

	outputIndexResults(IndexResult{
		Status:          "complete",
		Embedded:        stats.Embedded,
		Unchanged:       stats.Unchanged,
		Skipped:         stats.Skipped,
		Removed:         stats.Removed,
		Failed:          stats.Failed,
		Failures:        stats.Failures,
		DurationSeconds: stats.Duration.Seconds(),
		Model:           model,
		Records:         records,
	}, stats)
	return nil
}

// outputIndexResults outputs the index statistics in the appropriate format.
func outputIndexResults(result IndexResult, stats *semantic.IndexStats) {
	if !humanOutput {
		outputJSON(result)
		return
	}
	fmt.Printf("Index complete:\n")
	fmt.Printf("  Embedded: %d\n", result.Embedded)
	fmt.Printf("  Unchanged: %d\n", result.Unchanged)
	fmt.Printf("  Skipped: %d (too short)\n", result.Skipped)
	fmt.Printf("  Removed: %d\n", result.Removed)
	if result.Failed > 0 {
		fmt.Printf("  Failed: %d\n", result.Failed)
		for _, f := range stats.Failures {
			fmt.Printf("    %s: %s\n", f.PageID, f.Error)
		}
	}
	fmt.Printf("  Records: %d\n", result.Records)
	fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
	fmt.Printf("  Model: %s\n", result.Model)
}

const (
	// progressBarWidth is the width in characters for terminal progress display.
	progressBarWidth = 30
	// progressLineClearWidth is the width needed to clear the entire progress line.
	progressLineClearWidth = 50
)

// buildProgressBar creates a progress bar string of the given width.
// Returns a string like "[=====>    ]" showing progress.
func buildProgressBar(current, total, width int) string {
	if total == 0 {
		return strings.Repeat(" ", width)
	}
	filled := (width * current) / total
	if filled >= width {
		return strings.Repeat("=", width)
	}
	return strings.Repeat("=", filled) + ">" + strings.Repeat(" ", width-filled-1)
}

// printProgress prints a progress bar to stderr.
func printProgress(current, total int) {
	if total == 0 {
		return
	}
	pct := float64(current) / float64(total) * 100
	bar := buildProgressBar(current, total, progressBarWidth)
	fmt.Fprintf(os.Stderr, "\r[%s] %d/%d (%.0f%%)", bar, current, total, pct)
}
