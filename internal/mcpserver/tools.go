package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quillnote/recall/internal/rag"
	"github.com/quillnote/recall/internal/semantic"
)

type toolDef struct {
	tool    *gomcp.Tool
	handler func(context.Context, *gomcp.CallToolRequest) (*gomcp.CallToolResult, error)
}

func (s *Server) registerTools() {
	for _, def := range s.tools() {
		s.mcp.AddTool(def.tool, def.handler)
	}
}

func (s *Server) tools() []toolDef {
	return []toolDef{
		{&gomcp.Tool{
			Name:        "search_notes",
			Description: "Find notes by meaning rather than exact words. Returns notes ranked by similarity to the query, most similar first.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "What to look for. A blank query returns no results."},
					"limit": {"type": "integer", "minimum": 0, "description": "Maximum number of results (default 15)"}
				},
				"required": ["query"]
			}`),
		}, s.handleSearchNotes},
		{&gomcp.Tool{
			Name:        "build_context",
			Description: "Assemble note excerpts relevant to a question into one context block for answering it. Notes listed in manual_ids are always included.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The question being answered"},
					"limit": {"type": "integer", "minimum": 0, "description": "Maximum number of searched notes (default 10)"},
					"manual_ids": {"type": "array", "items": {"type": "string"}, "description": "Note ids to include regardless of search"}
				}
			}`),
		}, s.handleBuildContext},
		{&gomcp.Tool{
			Name:        "related_notes",
			Description: "List the notes most similar to an already indexed note.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"id": {"type": "string", "description": "Id of the source note"},
					"limit": {"type": "integer", "minimum": 0, "description": "Maximum number of results (default 15)"}
				},
				"required": ["id"]
			}`),
		}, s.handleRelatedNotes},
	}
}

type searchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type contextArgs struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit"`
	ManualIDs []string `json:"manual_ids"`
}

type relatedArgs struct {
	ID    string `json:"id"`
	Limit int    `json:"limit"`
}

type hitsResult struct {
	Results []semantic.Hit `json:"results"`
}

func (s *Server) handleSearchNotes(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args searchArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	// A blank query is passed on; the engine answers it with no results.
	all, err := s.load()
	if err != nil {
		return toolError("failed to load notes: %v", err), nil
	}
	hits, err := s.search.Search(ctx, args.Query, all, args.Limit)
	if err != nil {
		return toolError("%v", err), nil
	}
	return jsonResult(hitsResult{Results: hits})
}

func (s *Server) handleBuildContext(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args contextArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	all, err := s.load()
	if err != nil {
		return toolError("failed to load notes: %v", err), nil
	}
	out := s.builder.BuildContext(ctx, args.Query, all, args.Limit, rag.Options{ManualIDs: args.ManualIDs})
	return jsonResult(out)
}

func (s *Server) handleRelatedNotes(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args relatedArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.ID == "" {
		return toolError("id is required"), nil
	}

	all, err := s.load()
	if err != nil {
		return toolError("failed to load notes: %v", err), nil
	}
	hits, err := s.search.Related(ctx, args.ID, all, args.Limit)
	if err != nil {
		return toolError("%v", err), nil
	}
	return jsonResult(hitsResult{Results: hits})
}

func jsonResult(v any) (*gomcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: string(data)}},
	}, nil
}

func toolError(format string, args ...any) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
