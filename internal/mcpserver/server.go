// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the reading library for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/larpo1/davidlarpent.com/internal/docservice"
	"github.com/larpo1/davidlarpent.com/internal/models"
	"github.com/larpo1/davidlarpent.com/internal/storage"
)

// Server wraps the MCP server with library tools.
type Server struct {
	mcp        *server.MCPServer
	svc        *docservice.Service
	imageStore storage.Provider
}

// New creates a new MCP server with all library tools registered.
// imageStore is rooted at the public images directory and may be nil to
// disable the upload tool.
func New(svc *docservice.Service, imageStore storage.Provider) *Server {
	s := &Server{svc: svc, imageStore: imageStore}

	s.mcp = server.NewMCPServer(
		"Larpo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_library",
		mcp.WithDescription("Full-text search across posts and reading sources."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchLibrary)

	s.mcp.AddTool(mcp.NewTool("read_source",
		mcp.WithDescription("Read the raw Markdown of a reading source, frontmatter and note blocks included."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Source slug (e.g. dune-frank-herbert)")),
	), s.readSource)

	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List reading sources, optionally filtered by tag."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
	), s.listSources)

	s.mcp.AddTool(mcp.NewTool("append_note",
		mcp.WithDescription("Append a reading note to a source. The note is stamped at the "+
			"current minute and added at the end of the document. Read the "+
			"library://note-format resource first for the block format."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Source slug")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown text of the note")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tags")),
	), s.appendNote)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns the note block format contract. "+
			"Call this before appending notes to ensure correct structure."),
	), s.getNoteFormat)

	if s.imageStore != nil {
		s.mcp.AddTool(mcp.NewTool("upload_image",
			mcp.WithDescription("Download an image from a URL (or decode a base64 data URI) and "+
				"store it in a post's image directory. Returns a markdownImage field ready to "+
				"paste into the post body."),
			mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug the image belongs to")),
			mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI of the image")),
			mcp.WithString("filename", mcp.Description("Optional filename override")),
		), s.uploadImage)
	}

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("library://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Note block format that all appended notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func (s *Server) searchLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := s.svc.RawDocument(ctx, models.CollectionSources, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) listSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := ""
	if v, tErr := req.RequireString("tag"); tErr == nil {
		tag = v
	}

	rows, _, err := s.svc.ListDocuments(ctx, models.CollectionSources, tag, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, row := range rows {
		line := row.Slug + "\t" + row.Title
		if row.Author != "" {
			line += " (" + row.Author + ")"
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) appendNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var tags []string
	if v, tErr := req.RequireString("tags"); tErr == nil && v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	if err := s.svc.AppendNote(ctx, slug, docservice.AppendNoteRequest{
		Content: content,
		Tags:    tags,
	}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("note appended to %s", slug)), nil
}

func (s *Server) getNoteFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "library://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
