// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notable's extraction and correction tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notable/internal/models"
	"github.com/starford/notable/internal/service"
)

// PromptURI addresses the current extraction prompt resource.
const PromptURI = "notable://extraction-prompt"

// Server wraps the MCP server with notable tools.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
}

// New creates a new MCP server with all notable tools registered.
func New(svc *service.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Notable",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("extract_proper_nouns",
		mcp.WithDescription("Find proper nouns in a transcript that may be misspelled, "+
			"with suggested corrections. Stored corrections bias the result unless "+
			"corrections are passed explicitly."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Transcript to analyze")),
		mcp.WithArray("corrections",
			mcp.Description("Optional list of {original, corrected} pairs replacing the stored ones"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"original":  map[string]any{"type": "string"},
					"corrected": map[string]any{"type": "string"},
				},
				"required": []string{"original", "corrected"},
			}),
		),
	), s.extractProperNouns)

	s.mcp.AddTool(mcp.NewTool("segment_transcript",
		mcp.WithDescription("Split a transcript into plain and proper-noun spans."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Transcript to segment")),
		mcp.WithArray("properNouns", mcp.Required(),
			mcp.Description("Proper nouns as returned by extract_proper_nouns"),
			mcp.Items(map[string]any{"type": "object"}),
		),
	), s.segmentTranscript)

	s.mcp.AddTool(mcp.NewTool("list_corrections",
		mcp.WithDescription("List stored proper-noun corrections, newest first."),
	), s.listCorrections)

	s.mcp.AddTool(mcp.NewTool("save_correction",
		mcp.WithDescription("Remember that a proper noun should be spelled differently. "+
			"Updates the existing entry when the original matches case-insensitively."),
		mcp.WithString("original", mcp.Required(), mcp.Description("Spelling as transcribed")),
		mcp.WithString("corrected", mcp.Required(), mcp.Description("Preferred spelling")),
	), s.saveCorrection)

	s.mcp.AddTool(mcp.NewTool("delete_correction",
		mcp.WithDescription("Delete a stored correction by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Correction id")),
	), s.deleteCorrection)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List saved notes, newest first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Save a finalized transcript as a note."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
	), s.saveNote)

	s.mcp.AddResource(
		mcp.NewResource(PromptURI, "Extraction Prompt",
			mcp.WithResourceDescription("System prompt used for the next extraction, including stored corrections."),
			mcp.WithMIMEType("text/plain"),
		),
		s.readPromptResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// bindArgs decodes the tool arguments into v through their JSON form.
func bindArgs(req mcp.CallToolRequest, v any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) extractProperNouns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Text        string                  `json:"text"`
		Corrections []models.CorrectionPair `json:"corrections"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.svc.Extract(ctx, args.Text, args.Corrections)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (s *Server) segmentTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Text        string              `json:"text"`
		ProperNouns []models.ProperNoun `json:"properNouns"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for i, n := range args.ProperNouns {
		if err := n.Validate(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("properNouns[%d]: %v", i, err)), nil
		}
	}
	return jsonResult(s.svc.Segment(args.Text, args.ProperNouns))
}

func (s *Server) listCorrections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListCorrections(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) saveCorrection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	original, err := req.RequireString("original")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	corrected, err := req.RequireString("corrected")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, created, err := s.svc.SaveCorrection(ctx, original, corrected)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	verb := "updated"
	if created {
		verb = "created"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s -> %s (%s)", verb, c.Original, c.Corrected, c.ID)), nil
}

func (s *Server) deleteCorrection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteCorrection(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("deleted: " + id), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListNotes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.CreateNote(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("saved: " + n.ID), nil
}

func (s *Server) readPromptResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	p, err := s.svc.Prompt(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PromptURI,
			MIMEType: "text/plain",
			Text:     p,
		},
	}, nil
}
