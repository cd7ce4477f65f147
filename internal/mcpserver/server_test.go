package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/larpo1/davidlarpent.com/internal/docservice"
	"github.com/larpo1/davidlarpent.com/internal/storage"
	"github.com/larpo1/davidlarpent.com/internal/testutil"
)

const testSource = `---
title: Dune
author: Frank Herbert
type: book
---

<!-- note: 2025-01-15T09:12 -->
<!-- published: true -->

The spice economy chapter.
`

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestContentDir(t)
	db := testutil.TestDB(t)
	coord := testutil.SyncCoordinator(t, store)

	now := func() time.Time {
		return time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)
	}
	svc := docservice.NewService(store, coord, db, now)

	srv := New(svc, nil)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so dispatch
	// to the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_library":
		result, err = srv.searchLibrary(ctx, req)
	case "read_source":
		result, err = srv.readSource(ctx, req)
	case "list_sources":
		result, err = srv.listSources(ctx, req)
	case "append_note":
		result, err = srv.appendNote(ctx, req)
	case "get_note_format":
		result, err = srv.getNoteFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadSource(t *testing.T) {
	srv, store := testServer(t)
	if err := store.Write("sources/dune.md", []byte(testSource)); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "read_source", map[string]interface{}{"slug": "dune"})
	text := resultText(r)
	if text != testSource {
		t.Errorf("read result = %q", text)
	}
}

func TestReadSourceMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_source", map[string]interface{}{"slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing source")
	}
}

func TestAppendNote(t *testing.T) {
	srv, store := testServer(t)
	if err := store.Write("sources/dune.md", []byte(testSource)); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "append_note", map[string]interface{}{
		"slug":    "dune",
		"content": "A second read note.",
		"tags":    "ecology, politics",
	})
	text := resultText(r)
	if text != "note appended to dune" {
		t.Errorf("append result = %q", text)
	}

	raw, err := store.Read("sources/dune.md")
	if err != nil {
		t.Fatal(err)
	}
	got := string(raw)
	if !strings.Contains(got, "<!-- note: 2025-02-01T10:30 -->") {
		t.Errorf("missing new note header in %q", got)
	}
	if !strings.Contains(got, "<!-- tags: ecology, politics -->") {
		t.Errorf("missing tags line in %q", got)
	}
	if !strings.Contains(got, "A second read note.") {
		t.Errorf("missing note content in %q", got)
	}
}

func TestAppendNoteEmptyContent(t *testing.T) {
	srv, store := testServer(t)
	if err := store.Write("sources/dune.md", []byte(testSource)); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "append_note", map[string]interface{}{
		"slug":    "dune",
		"content": "   ",
	})
	if !r.IsError {
		t.Error("expected error for empty note content")
	}
}

func TestGetNoteFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_note_format", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "<!-- note:") {
		t.Errorf("contract missing note header example: %q", text)
	}
}
