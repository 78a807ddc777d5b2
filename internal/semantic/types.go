// Package semantic keeps note embeddings in step with note content and
// ranks notes by meaning against a query.
package semantic

import (
	"context"
	"errors"
	"time"

	"github.com/quillnote/recall/internal/connectivity"
	"github.com/quillnote/recall/internal/storage"
)

// Errors returned by semantic operations. The first three are shown to
// users as they are.
var (
	ErrRetrievalDisabled = errors.New("semantic search is disabled; enable it in settings")
	ErrNotConnected      = errors.New("not connected to the inference server; check that it is running")
	ErrStillConnecting   = errors.New("still connecting to the inference server; try again in a moment")
	ErrNotIndexed        = errors.New("note has no embedding")
)

const (
	// MinEmbeddingTextLength is the minimum canonical text length, in
	// characters, for a note to be embedded. Shorter notes carry too little
	// meaning to rank and have no record.
	MinEmbeddingTextLength = 24

	// DefaultSearchLimit is the number of hits returned when no limit is given.
	DefaultSearchLimit = 15

	// UntitledNote is shown for notes with a blank title.
	UntitledNote = "Untitled"
)

// Store persists one embedding record per page.
type Store interface {
	All(ctx context.Context) ([]storage.Record, error)
	Get(ctx context.Context, pageID string) (*storage.Record, error)
	Upsert(ctx context.Context, rec storage.Record) error
	Delete(ctx context.Context, pageID string) error
}

// FeatureFlag reports whether retrieval is switched on.
type FeatureFlag interface {
	RetrievalEnabled() bool
}

// Enabled is a constant FeatureFlag.
type Enabled bool

// RetrievalEnabled returns e.
func (e Enabled) RetrievalEnabled() bool { return bool(e) }

// Prober reports whether the inference server is reachable.
type Prober interface {
	CheckConnection(ctx context.Context) connectivity.Result
}

// Invalidator is implemented by a Prober or Selector whose cached answer
// can be dropped.
type Invalidator interface {
	Invalidate()
}

// Hit is a note ranked against a query.
type Hit struct {
	PageID     string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	Preview    string  `json:"preview"`
}

// Outcome describes what an embed call did.
type Outcome int

const (
	// OutcomeEmbedded means a fresh vector was stored.
	OutcomeEmbedded Outcome = iota
	// OutcomeUnchanged means the stored vector already matched the text.
	OutcomeUnchanged
	// OutcomeSkipped means the text was too short and any record was removed.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmbedded:
		return "embedded"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IndexStats summarizes a Reindex run.
type IndexStats struct {
	Embedded  int           `json:"embedded"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"`
	Removed   int           `json:"removed"`
	Failed    int           `json:"failed"`
	Failures  []Failure     `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Failure records a note that could not be embedded.
type Failure struct {
	PageID string `json:"id"`
	Error  string `json:"error"`
}
