package main

import (
	"errors"

	"github.com/quillnote/recall/internal/config"
	"github.com/quillnote/recall/internal/modelselect"
	"github.com/quillnote/recall/internal/semantic"
)

// Exit codes
const (
	ExitSuccess              = 0 // Success
	ExitError                = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError          = 2 // Configuration error (bad config, no note source) / note not indexed
	ExitRetrievalUnavailable = 3 // Retrieval disabled, or inference server unreachable
	ExitModelNotFound        = 5 // No usable embedding model installed
)

// exitCodeFor maps an error from the core packages to an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, semantic.ErrRetrievalDisabled),
		errors.Is(err, semantic.ErrNotConnected),
		errors.Is(err, semantic.ErrStillConnecting):
		return ExitRetrievalUnavailable
	case errors.Is(err, modelselect.ErrNoModel):
		return ExitModelNotFound
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, ErrNoNoteSource),
		errors.Is(err, semantic.ErrNotIndexed):
		return ExitConfigError
	default:
		return ExitError
	}
}
