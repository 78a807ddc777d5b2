// Package watch re-embeds notes as their files change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/quillnote/recall/internal/notes"
	"github.com/quillnote/recall/internal/semantic"
)

// Indexer is the part of semantic.Indexer the watcher drives.
type Indexer interface {
	EmbedIfChanged(ctx context.Context, pageID, title, body string) (semantic.Outcome, error)
	Remove(ctx context.Context, pageID string) error
}

// Watcher follows a notes directory and keeps embeddings current. Events
// are handled one at a time, so writes for a page never overlap.
type Watcher struct {
	dir     string
	indexer Indexer
	logger  *slog.Logger
}

// New creates a Watcher for dir.
func New(dir string, indexer Indexer, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{dir: dir, indexer: indexer, logger: logger}
}

// Run watches until ctx is cancelled. It fails only if the watch cannot be
// set up; errors while handling events are logged.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.dir); err != nil {
		return err
	}
	w.logger.Info("watching notes", "dir", w.dir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.logger.Warn("watching new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			w.handle(ctx, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			w.logger.Info("stopped watching notes", "dir", w.dir)
			return nil
		}
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// handle applies one file event. Create and Write re-embed the note;
// Remove and Rename retire it.
func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !notes.IsNoteFile(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		n, err := notes.LoadFile(event.Name)
		if err != nil {
			// Editors that save by rename can remove the file before we read it.
			if errors.Is(err, fs.ErrNotExist) {
				w.remove(ctx, event.Name)
				return
			}
			w.logger.Warn("reading changed note", "path", event.Name, "error", err)
			return
		}
		outcome, err := w.indexer.EmbedIfChanged(ctx, n.ID, n.Title, n.Body)
		if err != nil {
			w.logger.Warn("re-embedding note", "path", event.Name, "error", err)
			return
		}
		w.logger.Info("note changed", "path", event.Name, "outcome", outcome.String())

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.remove(ctx, event.Name)
	}
}

func (w *Watcher) remove(ctx context.Context, path string) {
	if err := w.indexer.Remove(ctx, notes.IDForPath(path)); err != nil {
		w.logger.Warn("removing note", "path", path, "error", err)
		return
	}
	w.logger.Info("note removed", "path", path)
}
