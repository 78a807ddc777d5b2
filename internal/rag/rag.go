// Package rag assembles the grounding context handed to a chat model from
// search hits, notes the user picked, and uploaded files.
package rag

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/quillnote/recall/internal/notes"
	"github.com/quillnote/recall/internal/semantic"
	"github.com/quillnote/recall/internal/textnorm"
)

const (
	// DefaultLimit is the number of search hits folded in when no limit is given.
	DefaultLimit = 10

	// ExcerptLength is the maximum length, in characters, of one excerpt body.
	ExcerptLength = 500

	// Header opens every non-empty context.
	Header = "Relevant notes and content (use as context to answer):"

	// Separator sits between excerpts.
	Separator = "\n\n---\n\n"

	// manualSimilarity marks notes the user picked rather than search found.
	manualSimilarity = 1.0
)

// Searcher ranks notes against a query. *semantic.Engine implements it.
type Searcher interface {
	Search(ctx context.Context, query string, all []notes.Note, limit int) ([]semantic.Hit, error)
}

// UploadedFile is user-supplied text that is not a note.
type UploadedFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Options carries material the user chose explicitly.
type Options struct {
	ManualIDs     []string
	UploadedFiles []UploadedFile
}

// Source attributes part of the context to a note.
type Source struct {
	PageID     string  `json:"id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// Context is the assembled grounding text and the notes it draws on.
type Context struct {
	Text    string   `json:"context"`
	Sources []Source `json:"sources"`
}

// Assembler builds chat contexts.
type Assembler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewAssembler creates an Assembler that draws hits from searcher.
func NewAssembler(searcher Searcher) *Assembler {
	return &Assembler{
		searcher: searcher,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger. A nil logger discards output.
func (a *Assembler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// searchResult is the outcome of the search step. A failed search is
// carried as a value so assembly can continue without it.
type searchResult struct {
	hits []semantic.Hit
	err  error
}

// BuildContext assembles the context for query. Search hits come first in rank
// order, then manually chosen notes, then uploaded files. A note appears
// at most once. Search failures of any kind are logged and dropped so
// that manual and uploaded material still reaches the model; it never
// fails.
func (a *Assembler) BuildContext(ctx context.Context, query string, all []notes.Note, limit int, opts Options) Context {
	if limit <= 0 {
		limit = DefaultLimit
	}

	active := notes.Active(all)
	byID := notes.ByID(active)

	found := a.search(ctx, query, active, limit)
	if found.err != nil {
		a.logger.Warn("search failed while building context", "error", found.err)
	}

	var excerpts []string
	sources := []Source{}
	seen := make(map[string]bool)

	for _, hit := range found.hits {
		if seen[hit.PageID] {
			continue
		}
		n, ok := byID[hit.PageID]
		if !ok {
			continue
		}
		seen[hit.PageID] = true
		excerpts = append(excerpts, noteExcerpt(n))
		sources = append(sources, Source{PageID: n.ID, Title: semantic.DisplayTitle(n.Title), Similarity: hit.Similarity})
	}

	for _, id := range opts.ManualIDs {
		if seen[id] {
			continue
		}
		n, ok := byID[id]
		if !ok {
			continue
		}
		seen[id] = true
		excerpts = append(excerpts, noteExcerpt(n))
		sources = append(sources, Source{PageID: n.ID, Title: semantic.DisplayTitle(n.Title), Similarity: manualSimilarity})
	}

	for _, f := range opts.UploadedFiles {
		excerpts = append(excerpts, fileExcerpt(f))
	}

	if len(excerpts) == 0 {
		return Context{Text: "", Sources: sources}
	}
	return Context{
		Text:    Header + "\n\n" + strings.Join(excerpts, Separator),
		Sources: sources,
	}
}

// search runs the search step when there is something to search.
func (a *Assembler) search(ctx context.Context, query string, active []notes.Note, limit int) searchResult {
	if strings.TrimSpace(query) == "" || len(active) == 0 || a.searcher == nil {
		return searchResult{}
	}
	hits, err := a.searcher.Search(ctx, query, active, limit)
	if err != nil {
		return searchResult{err: err}
	}
	return searchResult{hits: hits}
}

func noteExcerpt(n notes.Note) string {
	body := textnorm.Truncate(textnorm.ToPlainText(n.Body), ExcerptLength, textnorm.Ellipsis)
	return "[" + semantic.DisplayTitle(n.Title) + "]\n" + body
}

func fileExcerpt(f UploadedFile) string {
	return "[Uploaded: " + f.Name + "]\n" + textnorm.Truncate(f.Content, ExcerptLength, "")
}
