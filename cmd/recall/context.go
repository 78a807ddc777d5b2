package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillnote/recall/internal/clipboard"
	"github.com/quillnote/recall/internal/rag"
	"github.com/quillnote/recall/internal/upload"
)

var (
	contextLimit  int
	contextManual []string
	contextFiles  []string
	contextCopy   bool
)

func init() {
	rootCmd.AddCommand(contextCmd)

	contextCmd.Flags().IntVarP(&contextLimit, "limit", "l", rag.DefaultLimit, "Maximum number of searched notes")
	contextCmd.Flags().StringArrayVar(&contextManual, "manual", nil, "Note id to include regardless of search (repeatable)")
	contextCmd.Flags().StringArrayVar(&contextFiles, "file", nil, "File to include as uploaded material: .pdf, .html, or text (repeatable)")
	contextCmd.Flags().BoolVar(&contextCopy, "copy", false, "Also copy the context text to the clipboard")
}

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble note excerpts for answering a question",
	Long: `Build the context block a language model is given to answer a question.

Notes found by semantic search come first, then notes named with --manual,
then files given with --file. Each note appears once. If search is
unavailable the manual notes and files are still assembled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContext,
}

func runContext(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var query string
	if len(args) == 1 {
		query = args[0]
	}

	files := make([]rag.UploadedFile, 0, len(contextFiles))
	for _, path := range contextFiles {
		f, err := upload.Load(path)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		files = append(files, f)
	}

	a := mustNewApp(ctx)
	defer a.Close()

	all := a.mustLoadNotes()
	out := a.assembler.BuildContext(ctx, query, all, contextLimit, rag.Options{
		ManualIDs:     contextManual,
		UploadedFiles: files,
	})

	if contextCopy && out.Text != "" {
		if err := clipboard.Copy(ctx, out.Text); err != nil {
			exitWithError(ExitError, "copying to clipboard: %v", err)
		}
	}

	if humanOutput {
		if out.Text == "" {
			fmt.Println("No context found.")
			return nil
		}
		fmt.Println(out.Text)
		fmt.Println()
		fmt.Printf("Sources (%d):\n", len(out.Sources))
		for _, s := range out.Sources {
			fmt.Printf("  [%.2f] %s  %s\n", s.Similarity, s.PageID, s.Title)
		}
		return nil
	}
	return outputJSON(out)
}
