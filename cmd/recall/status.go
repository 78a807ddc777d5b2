package main

import (
	"cmp"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillnote/recall/internal/modelselect"
	"github.com/quillnote/recall/internal/notes"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusResult is the response for the status command.
type StatusResult struct {
	RetrievalEnabled bool   `json:"retrieval_enabled"`
	Backend          string `json:"backend"`
	Connection       string `json:"connection"`
	ConnectionError  string `json:"connection_error,omitempty"`
	EmbeddingModel   string `json:"embedding_model,omitempty"`
	DefaultModel     string `json:"default_model,omitempty"`
	ModelAvailable   bool   `json:"model_available"`
	ModelError       string `json:"model_error,omitempty"`
	Store            string `json:"store"`
	Records          int    `json:"records"`
	Notes            int    `json:"notes"`
	NotesActive      int    `json:"notes_active"`
	Recommendation   string `json:"recommendation,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show retrieval readiness",
	Long: `Report whether semantic retrieval can run: the feature flag, the
connection to the inference server, the embedding model, and how many
notes have embeddings.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a := mustNewApp(ctx)
	defer a.Close()

	result := StatusResult{
		RetrievalEnabled: a.settings.RetrievalEnabled(),
		Backend:          a.settings.Embedder.Backend,
		Store:            a.settings.Store.Backend,
		DefaultModel:     a.backend.ModelName(),
	}

	conn := a.monitor.CheckConnection(ctx)
	result.Connection = string(conn.Status)
	if conn.Err != nil {
		result.ConnectionError = conn.Err.Error()
	}

	if conn.Connected() {
		model, err := a.models.ModelFor(ctx, modelselect.Embedding)
		if err != nil {
			result.ModelError = err.Error()
		} else {
			result.EmbeddingModel = model
			ok, err := a.backend.HasModel(ctx, model)
			if err != nil {
				result.ModelError = err.Error()
			}
			result.ModelAvailable = ok
		}
	}

	records, err := a.store.Count(ctx)
	if err != nil {
		exitWithError(ExitError, "counting embeddings: %v", err)
	}
	result.Records = records

	if all, err := a.loadNotes(); err == nil {
		result.Notes = len(all)
		result.NotesActive = len(notes.Active(all))
	}

	result.Recommendation = recommendation(result)
	outputStatus(result)
	return nil
}

// recommendation returns the next step a user should take, if any.
func recommendation(r StatusResult) string {
	switch {
	case !r.RetrievalEnabled:
		return "Set retrieval.enabled: true in the config file to use semantic search."
	case r.Connection != "connected":
		return "Start the inference server (for Ollama: 'ollama serve')."
	case r.EmbeddingModel == "":
		return fmt.Sprintf("Install an embedding model (for Ollama: 'ollama pull %s').", cmp.Or(r.DefaultModel, "nomic-embed-text"))
	case !r.ModelAvailable:
		return fmt.Sprintf("Model %q is not installed on the server.", r.EmbeddingModel)
	case r.Records < r.NotesActive:
		return "Run 'recall index' to embed new notes."
	}
	return ""
}

func outputStatus(r StatusResult) {
	if !humanOutput {
		outputJSON(r)
		return
	}
	fmt.Printf("Retrieval: %s\n", enabledString(r.RetrievalEnabled))
	fmt.Printf("Backend: %s (%s)\n", r.Backend, r.Connection)
	if r.ConnectionError != "" {
		fmt.Printf("  %s\n", r.ConnectionError)
	}
	if r.EmbeddingModel != "" {
		fmt.Printf("Model: %s (installed: %t)\n", r.EmbeddingModel, r.ModelAvailable)
	}
	if r.ModelError != "" {
		fmt.Printf("  %s\n", r.ModelError)
	}
	fmt.Printf("Store: %s, %d embeddings\n", r.Store, r.Records)
	fmt.Printf("Notes: %d (%d active)\n", r.Notes, r.NotesActive)
	if r.Recommendation != "" {
		fmt.Printf("\n%s\n", r.Recommendation)
	}
}

func enabledString(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
