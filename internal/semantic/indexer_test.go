package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quillnote/recall/internal/modelselect"
	"github.com/quillnote/recall/internal/notes"
	"github.com/quillnote/recall/internal/storage"
	"github.com/quillnote/recall/internal/textnorm"
)

const longBody = "a body long enough to be worth embedding"

func newTestIndexer(provider *fakeProvider) (*Indexer, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewIndexer(provider, testSelector, store), store
}

func TestIndexer_Embed(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0, 0}}
	ix, store := newTestIndexer(provider)
	ctx := context.Background()

	outcome, err := ix.Embed(ctx, "p1", "Title", longBody)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if outcome != OutcomeEmbedded {
		t.Errorf("Embed() outcome = %v, want embedded", outcome)
	}

	rec, _ := store.Get(ctx, "p1")
	if rec == nil {
		t.Fatal("Embed() did not store a record")
	}
	wantFP := textnorm.Fingerprint(textnorm.BuildEmbeddingText("Title", longBody))
	if rec.Fingerprint != wantFP {
		t.Errorf("Fingerprint = %s, want %s", rec.Fingerprint, wantFP)
	}
	if rec.Model != testModel {
		t.Errorf("Model = %s, want %s", rec.Model, testModel)
	}
	if provider.models[0] != testModel {
		t.Errorf("provider asked for model %s, want %s", provider.models[0], testModel)
	}
}

func TestIndexer_Embed_AlwaysCallsProvider(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	ix, _ := newTestIndexer(provider)
	ctx := context.Background()

	for range 2 {
		if _, err := ix.Embed(ctx, "p1", "Title", longBody); err != nil {
			t.Fatalf("Embed() error = %v", err)
		}
	}
	if provider.Calls() != 2 {
		t.Errorf("provider calls = %d, want 2", provider.Calls())
	}
}

func TestIndexer_EmbedIfChanged(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	ix, store := newTestIndexer(provider)
	ctx := context.Background()

	if _, err := ix.EmbedIfChanged(ctx, "p1", "Title", longBody); err != nil {
		t.Fatalf("EmbedIfChanged() error = %v", err)
	}
	outcome, err := ix.EmbedIfChanged(ctx, "p1", "Title", longBody)
	if err != nil {
		t.Fatalf("EmbedIfChanged() error = %v", err)
	}
	if outcome != OutcomeUnchanged {
		t.Errorf("second EmbedIfChanged() outcome = %v, want unchanged", outcome)
	}
	if provider.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.Calls())
	}

	// Markup-only edits do not change the canonical text.
	if _, err := ix.EmbedIfChanged(ctx, "p1", "Title", "<p>"+longBody+"</p>"); err != nil {
		t.Fatalf("EmbedIfChanged() error = %v", err)
	}
	if provider.Calls() != 1 {
		t.Errorf("provider calls after markup edit = %d, want 1", provider.Calls())
	}

	if _, err := ix.EmbedIfChanged(ctx, "p1", "Title", longBody+" and more"); err != nil {
		t.Fatalf("EmbedIfChanged() error = %v", err)
	}
	if provider.Calls() != 2 {
		t.Errorf("provider calls after edit = %d, want 2", provider.Calls())
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestIndexer_BelowThreshold(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	ix, store := newTestIndexer(provider)
	ctx := context.Background()

	if _, err := ix.Embed(ctx, "p1", "Title", longBody); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	// Shrinking the text below the threshold deletes the record.
	outcome, err := ix.EmbedIfChanged(ctx, "p1", "Hi", "")
	if err != nil {
		t.Fatalf("EmbedIfChanged() error = %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Errorf("outcome = %v, want skipped", outcome)
	}
	if rec, _ := store.Get(ctx, "p1"); rec != nil {
		t.Error("record should be deleted when text drops below threshold")
	}

	// Repeating is a no-op.
	if _, err := ix.Embed(ctx, "p1", "Hi", ""); err != nil {
		t.Errorf("Embed() on short text without record error = %v", err)
	}
	if provider.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.Calls())
	}
}

func TestIndexer_ThresholdBoundary(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1}}
	ix, store := newTestIndexer(provider)
	ctx := context.Background()

	exact := strings.Repeat("x", MinEmbeddingTextLength)
	if _, err := ix.Embed(ctx, "exact", exact, ""); err != nil {
		t.Fatal(err)
	}
	short := strings.Repeat("x", MinEmbeddingTextLength-1)
	if _, err := ix.Embed(ctx, "short", short, ""); err != nil {
		t.Fatal(err)
	}

	if rec, _ := store.Get(ctx, "exact"); rec == nil {
		t.Error("text at the threshold should be embedded")
	}
	if rec, _ := store.Get(ctx, "short"); rec != nil {
		t.Error("text below the threshold should not be embedded")
	}
}

func TestIndexer_ProviderErrorPropagates(t *testing.T) {
	boom := errors.New("request timed out")
	provider := &fakeProvider{err: boom}
	ix, store := newTestIndexer(provider)
	ctx := context.Background()

	_, err := ix.EmbedIfChanged(ctx, "p1", "Title", longBody)
	if err != boom {
		t.Errorf("EmbedIfChanged() error = %v, want provider error unchanged", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Error("failed embed should not write")
	}
}

func TestIndexer_NoModel(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1}}
	ix := NewIndexer(provider, modelselect.Fixed(""), storage.NewMemoryStore())

	_, err := ix.Embed(context.Background(), "p1", "Title", longBody)
	if !errors.Is(err, modelselect.ErrNoModel) {
		t.Errorf("Embed() error = %v, want ErrNoModel", err)
	}
	if provider.Calls() != 0 {
		t.Error("provider should not be called without a model")
	}
}

func TestIndexer_Remove(t *testing.T) {
	ix, store := newTestIndexer(&fakeProvider{fallback: []float32{1}})
	ctx := context.Background()

	if _, err := ix.Embed(ctx, "p1", "Title", longBody); err != nil {
		t.Fatal(err)
	}
	if err := ix.Remove(ctx, "p1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := ix.Remove(ctx, "p1"); err != nil {
		t.Errorf("Remove() of missing record error = %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestIndexer_Reindex(t *testing.T) {
	provider := &fakeProvider{
		fallback: []float32{1, 0},
		vectors:  map[string][]float32{},
	}
	ix, store := newTestIndexer(provider)
	ctx := context.Background()

	// Pre-existing state: an orphan, a trashed page, and an unchanged page.
	for _, id := range []string{"orphan", "trashed", "same"} {
		if _, err := ix.Embed(ctx, id, "Title "+id, longBody); err != nil {
			t.Fatal(err)
		}
	}
	callsBefore := provider.Calls()

	var progress []int
	ix.SetProgressReporter(ProgressFunc(func(current, total int) {
		progress = append(progress, current)
		if total != 5 {
			t.Errorf("progress total = %d, want 5", total)
		}
	}))

	all := []notes.Note{
		{ID: "same", Title: "Title same", Body: longBody},
		{ID: "trashed", Title: "Title trashed", Body: longBody, Trashed: true},
		{ID: "new", Title: "New", Body: longBody},
		{ID: "tiny", Title: "x"},
		{ID: "trashed-never-indexed", Title: "gone", Body: longBody, Trashed: true},
	}

	stats, err := ix.Reindex(ctx, all, false)
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}

	if stats.Embedded != 1 || stats.Unchanged != 1 || stats.Skipped != 1 || stats.Removed != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if provider.Calls()-callsBefore != 1 {
		t.Errorf("provider calls during reindex = %d, want 1", provider.Calls()-callsBefore)
	}
	if len(progress) != 5 || progress[4] != 5 {
		t.Errorf("progress = %v", progress)
	}

	records, _ := store.All(ctx)
	var ids []string
	for _, r := range records {
		ids = append(ids, r.PageID)
	}
	if strings.Join(ids, ",") != "new,same" {
		t.Errorf("stored ids = %v, want [new same]", ids)
	}
}

func TestIndexer_Reindex_Force(t *testing.T) {
	provider := &fakeProvider{fallback: []float32{1, 0}}
	ix, _ := newTestIndexer(provider)
	ctx := context.Background()
	all := []notes.Note{{ID: "a", Title: "A", Body: longBody}}

	if _, err := ix.Reindex(ctx, all, false); err != nil {
		t.Fatal(err)
	}
	stats, err := ix.Reindex(ctx, all, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Embedded != 1 || stats.Unchanged != 0 {
		t.Errorf("forced stats = %+v, want one embedded", stats)
	}
	if provider.Calls() != 2 {
		t.Errorf("provider calls = %d, want 2", provider.Calls())
	}
}

func TestIndexer_Reindex_ContinuesPastFailures(t *testing.T) {
	provider := &fakeProvider{err: errors.New("server error")}
	ix, _ := newTestIndexer(provider)

	all := []notes.Note{
		{ID: "a", Title: "A", Body: longBody},
		{ID: "b", Title: "B", Body: longBody},
	}
	stats, err := ix.Reindex(context.Background(), all, false)
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if stats.Failed != 2 || len(stats.Failures) != 2 {
		t.Errorf("stats = %+v, want 2 failures", stats)
	}
	if stats.Failures[0].PageID != "a" {
		t.Errorf("first failure = %+v", stats.Failures[0])
	}
}

func TestIndexer_Reindex_Cancelled(t *testing.T) {
	ix, _ := newTestIndexer(&fakeProvider{fallback: []float32{1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Reindex(ctx, []notes.Note{{ID: "a", Title: "A", Body: longBody}}, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Reindex() error = %v, want context.Canceled", err)
	}
}
