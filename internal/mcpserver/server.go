// Package mcpserver exposes note search and context assembly as MCP tools
// over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quillnote/recall/internal/notes"
	"github.com/quillnote/recall/internal/rag"
	"github.com/quillnote/recall/internal/semantic"
)

// Searcher is the part of semantic.Engine the tools use.
type Searcher interface {
	Search(ctx context.Context, query string, all []notes.Note, limit int) ([]semantic.Hit, error)
	Related(ctx context.Context, pageID string, all []notes.Note, limit int) ([]semantic.Hit, error)
}

// ContextBuilder is the part of rag.Assembler the tools use.
type ContextBuilder interface {
	BuildContext(ctx context.Context, query string, all []notes.Note, limit int, opts rag.Options) rag.Context
}

// NoteLoader returns the current note list. It is called once per tool call
// so edits made while the server runs are seen.
type NoteLoader func() ([]notes.Note, error)

// Server wraps the MCP server.
type Server struct {
	mcp     *gomcp.Server
	search  Searcher
	builder ContextBuilder
	load    NoteLoader
}

// NewServer creates an MCP server with the note tools registered.
func NewServer(search Searcher, builder ContextBuilder, load NoteLoader, version string) (*Server, error) {
	if search == nil {
		return nil, errors.New("searcher is required")
	}
	if builder == nil {
		return nil, errors.New("context builder is required")
	}
	if load == nil {
		return nil, errors.New("note loader is required")
	}
	if version == "" {
		version = "dev"
	}

	s := &Server{
		mcp: gomcp.NewServer(&gomcp.Implementation{
			Name:    "recall",
			Version: version,
		}, nil),
		search:  search,
		builder: builder,
		load:    load,
	}
	s.registerTools()
	return s, nil
}

// Serve runs the server on stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.mcp.Run(ctx, &gomcp.StdioTransport{}); err != nil {
		return fmt.Errorf("serving mcp: %w", err)
	}
	return nil
}
