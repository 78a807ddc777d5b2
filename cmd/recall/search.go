package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillnote/recall/internal/semantic"
)

var (
	searchLimit  int
	relatedLimit int
)

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(relatedCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", semantic.DefaultSearchLimit, "Maximum number of results")
	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "l", semantic.DefaultSearchLimit, "Maximum number of results")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes by meaning",
	Long: `Search notes by semantic similarity to the query.

Unlike keyword search, semantic search understands the meaning of your query
and finds notes about related ideas, even without exact word matches.

Only notes embedded by 'recall index' (or 'recall watch') are found.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := args[0]

	a := mustNewApp(ctx)
	defer a.Close()

	all := a.mustLoadNotes()
	hits, err := a.engine.Search(ctx, query, all, searchLimit)
	if err != nil {
		exitWithCoreError("searching", err)
	}

	if humanOutput {
		fmt.Printf("Results for %q:\n\n", query)
		printHitsHuman(hits)
		return nil
	}
	return outputJSON(SearchResponse{Query: query, Results: hits, Total: len(hits)})
}

var relatedCmd = &cobra.Command{
	Use:   "related <note-id>",
	Short: "Find notes similar to a note",
	Long: `List the notes most similar to an already indexed note.

The note's stored embedding is used as the query, so no inference call is
made and the server does not need to be running.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func runRelated(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pageID := args[0]

	a := mustNewApp(ctx)
	defer a.Close()

	all := a.mustLoadNotes()
	hits, err := a.engine.Related(ctx, pageID, all, relatedLimit)
	if err != nil {
		if errors.Is(err, semantic.ErrNotIndexed) {
			exitWithError(ExitConfigError, "note %s is not indexed\n\nRun 'recall index' to embed it.", pageID)
		}
		exitWithCoreError("finding related notes", err)
	}

	if humanOutput {
		fmt.Printf("Notes related to %s:\n\n", pageID)
		printHitsHuman(hits)
		return nil
	}
	return outputJSON(SearchResponse{PageID: pageID, Results: hits, Total: len(hits)})
}
