package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testStoreContract exercises the behaviour every Store must share.
func testStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing returns nil", func(t *testing.T) {
		rec, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if rec != nil {
			t.Errorf("Get(missing) = %+v, want nil", rec)
		}
	})

	t.Run("delete missing is a no-op", func(t *testing.T) {
		if err := store.Delete(ctx, "missing"); err != nil {
			t.Errorf("Delete(missing) error = %v", err)
		}
	})

	t.Run("upsert then get", func(t *testing.T) {
		updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		want := Record{
			PageID:      "page-a",
			Vector:      []float32{0.25, -0.5, 1},
			Fingerprint: "fp1",
			Model:       "all-minilm:l6-v2",
			UpdatedAt:   updated,
		}
		if err := store.Upsert(ctx, want); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		got, err := store.Get(ctx, "page-a")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got == nil {
			t.Fatal("Get() returned nil after Upsert")
		}
		if got.Fingerprint != want.Fingerprint || got.Model != want.Model {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}
		if !got.UpdatedAt.Equal(updated) {
			t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, updated)
		}
		if len(got.Vector) != 3 || got.Vector[0] != 0.25 || got.Vector[1] != -0.5 || got.Vector[2] != 1 {
			t.Errorf("Vector = %v, want %v", got.Vector, want.Vector)
		}
	})

	t.Run("upsert replaces", func(t *testing.T) {
		rec := Record{PageID: "page-a", Vector: []float32{1, 0}, Fingerprint: "fp2", Model: "m2"}
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		got, err := store.Get(ctx, "page-a")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Fingerprint != "fp2" || got.Dimensions() != 2 {
			t.Errorf("Get() after replace = %+v", got)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("UpdatedAt should default to now")
		}
		if n, _ := store.Count(ctx); n != 1 {
			t.Errorf("Count() = %d, want 1", n)
		}
	})

	t.Run("empty vector rejected", func(t *testing.T) {
		err := store.Upsert(ctx, Record{PageID: "page-empty", Fingerprint: "x"})
		if !errors.Is(err, ErrEmptyVector) {
			t.Errorf("Upsert(empty) error = %v, want ErrEmptyVector", err)
		}
	})

	t.Run("all is ordered", func(t *testing.T) {
		for _, id := range []string{"page-c", "page-b"} {
			if err := store.Upsert(ctx, Record{PageID: id, Vector: []float32{0, 1}, Fingerprint: id}); err != nil {
				t.Fatalf("Upsert(%s) error = %v", id, err)
			}
		}
		all, err := store.All(ctx)
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("All() returned %d records, want 3", len(all))
		}
		for i, want := range []string{"page-a", "page-b", "page-c"} {
			if all[i].PageID != want {
				t.Errorf("All()[%d].PageID = %s, want %s", i, all[i].PageID, want)
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.Delete(ctx, "page-b"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		got, err := store.Get(ctx, "page-b")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != nil {
			t.Error("record should be gone after Delete")
		}
		if n, _ := store.Count(ctx); n != 2 {
			t.Errorf("Count() = %d, want 2", n)
		}
	})
}
