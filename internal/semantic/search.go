package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/quillnote/recall/internal/connectivity"
	"github.com/quillnote/recall/internal/embedding"
	"github.com/quillnote/recall/internal/modelselect"
	"github.com/quillnote/recall/internal/notes"
	"github.com/quillnote/recall/internal/storage"
	"github.com/quillnote/recall/internal/textnorm"
	"github.com/quillnote/recall/internal/vector"
)

// Engine ranks notes against a query by embedding similarity. It scans
// every stored vector; there is no approximate index.
type Engine struct {
	provider embedding.Provider
	models   modelselect.Selector
	store    Store
	flag     FeatureFlag
	prober   Prober
	logger   *slog.Logger
}

// NewEngine creates a search Engine.
func NewEngine(provider embedding.Provider, models modelselect.Selector, store Store, flag FeatureFlag, prober Prober) *Engine {
	return &Engine{
		provider: provider,
		models:   models,
		store:    store,
		flag:     flag,
		prober:   prober,
		logger:   discardLogger(),
	}
}

// SetLogger sets the logger. A nil logger discards output.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = discardLogger()
	}
	e.logger = logger
}

// IsAvailable reports whether retrieval is enabled and the inference
// server is connected. It never fails; a misbehaving probe counts as
// unavailable.
func (e *Engine) IsAvailable(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("connectivity probe panicked", "panic", r)
			ok = false
		}
	}()
	if !e.flag.RetrievalEnabled() {
		return false
	}
	return e.prober.CheckConnection(ctx).Status == connectivity.StatusConnected
}

// checkAvailable fails with the first unmet precondition. A cancelled or
// expired ctx is returned as ctx.Err() rather than ErrNotConnected.
func (e *Engine) checkAvailable(ctx context.Context) error {
	if !e.flag.RetrievalEnabled() {
		return ErrRetrievalDisabled
	}
	res := e.prober.CheckConnection(ctx)
	switch res.Status {
	case connectivity.StatusConnected:
		return nil
	case connectivity.StatusConnecting:
		return ErrStillConnecting
	default:
		// The caller gave up; that says nothing about the server.
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.Err != nil {
			e.logger.Debug("inference server unreachable", "status", res.Status, "error", res.Err)
		}
		return ErrNotConnected
	}
}

// Search embeds query and returns the active notes most similar to it,
// best first. Records whose vector size differs from the query's, such as
// those left by a previous model, are skipped. An empty query or an empty
// note set yields no hits without touching the server. A non-positive
// limit uses DefaultSearchLimit. When embedding the query fails, cached
// connectivity and model answers are dropped so the next call re-checks.
func (e *Engine) Search(ctx context.Context, query string, all []notes.Note, limit int) ([]Hit, error) {
	if err := e.checkAvailable(ctx); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []Hit{}, nil
	}
	active := notes.Active(all)
	if len(active) == 0 {
		return []Hit{}, nil
	}

	model, err := e.models.ModelFor(ctx, modelselect.Embedding)
	if err != nil {
		return nil, fmt.Errorf("selecting embedding model: %w", err)
	}
	emb, err := e.provider.Embed(ctx, model, query)
	if err != nil {
		if ctx.Err() == nil {
			e.invalidate()
		}
		return nil, err
	}

	records, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}

	cands := e.candidates(records, notes.ByID(active), emb.Dimensions(), "")
	return rank(emb.Vector, cands, limit), nil
}

func (e *Engine) invalidate() {
	for _, c := range []any{e.prober, e.models} {
		if inv, ok := c.(Invalidator); ok {
			inv.Invalidate()
		}
	}
}

// Related returns the active notes most similar to an already embedded
// page, excluding the page itself. It uses the stored vector, so it needs
// neither the feature flag nor a connection.
func (e *Engine) Related(ctx context.Context, pageID string, all []notes.Note, limit int) ([]Hit, error) {
	rec, err := e.store.Get(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("loading embedding for %s: %w", pageID, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, pageID)
	}

	records, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}

	cands := e.candidates(records, notes.ByID(notes.Active(all)), rec.Dimensions(), pageID)
	return rank(rec.Vector, cands, limit), nil
}

// candidate pairs an active note with its comparable record.
type candidate struct {
	note   notes.Note
	vector []float32
}

// candidates keeps the records that belong to an active note and have
// dims dimensions. Everything else is dropped before ranking.
func (e *Engine) candidates(records []storage.Record, active map[string]notes.Note, dims int, exclude string) []candidate {
	cands := make([]candidate, 0, len(records))
	for _, rec := range records {
		if rec.PageID == exclude {
			continue
		}
		n, ok := active[rec.PageID]
		if !ok {
			continue
		}
		if rec.Dimensions() != dims {
			e.logger.Debug("skipping embedding with mismatched dimensions",
				"page_id", rec.PageID, "record", rec.Dimensions(), "query", dims)
			continue
		}
		cands = append(cands, candidate{note: n, vector: rec.Vector})
	}
	return cands
}

// rank scores candidates against query and returns the top limit hits.
// Equal scores are ordered by page ID.
func rank(query []float32, cands []candidate, limit int) []Hit {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	type scored struct {
		note notes.Note
		sim  float64
	}
	results := make([]scored, 0, len(cands))
	for _, c := range cands {
		sim, err := vector.Similarity(query, c.vector)
		if err != nil {
			continue
		}
		results = append(results, scored{note: c.note, sim: sim})
	}

	// Sort by similarity descending
	sort.Slice(results, func(i, j int) bool {
		if results[i].sim != results[j].sim {
			return results[i].sim > results[j].sim
		}
		return results[i].note.ID < results[j].note.ID
	})

	// Apply limit
	if len(results) > limit {
		results = results[:limit]
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			PageID:     r.note.ID,
			Title:      DisplayTitle(r.note.Title),
			Similarity: r.sim,
			Preview:    textnorm.Preview(r.note.Body, textnorm.DefaultPreviewLength),
		}
	}
	return hits
}

// DisplayTitle returns title, or UntitledNote when it is blank.
func DisplayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return UntitledNote
	}
	return title
}
