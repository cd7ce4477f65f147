package docservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/larpo1/davidlarpent.com/internal/apperr"
	"github.com/larpo1/davidlarpent.com/internal/checksum"
	"github.com/larpo1/davidlarpent.com/internal/models"
	"github.com/larpo1/davidlarpent.com/internal/storage"
	"github.com/larpo1/davidlarpent.com/internal/testutil"
)

const sourceDoc = `---
title: Dune
author: Frank Herbert
type: book
tags:
  - ecology
---

<!-- note: 2025-01-15T09:12 -->
<!-- tags: ecology -->
<!-- published: true -->

First note.

<!-- note: 2025-01-20T14:30 -->
<!-- published: false -->

Second note.
`

const postDoc = `---
title: On Reading
description: Why read at all
draft: true
---

The post body.
`

func newTestService(t *testing.T) (*Service, storage.Provider) {
	t.Helper()
	_, store := testutil.TestContentDir(t)
	coord := testutil.SyncCoordinator(t, store)
	db := testutil.TestDB(t)
	now := func() time.Time { return time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC) }
	return NewService(store, coord, db, now), store
}

func writeFixture(t *testing.T, store storage.Provider, path, content string) {
	t.Helper()
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
}

func TestValidateSlug(t *testing.T) {
	for _, bad := range []string{"", "..", "../etc", "a/b", `a\b`} {
		if err := ValidateSlug(bad); !errors.Is(err, apperr.ErrInvalidArgument) {
			t.Errorf("ValidateSlug(%q) = %v, want ErrInvalidArgument", bad, err)
		}
	}
	if err := ValidateSlug("dune-frank-herbert"); err != nil {
		t.Errorf("valid slug rejected: %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Dune Frank Herbert", "dune-frank-herbert"},
		{"It's Complicated: A Memoir!", "its-complicated-a-memoir"},
		{"  spaced   out  ", "spaced-out"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := Slugify("Dune", "Frank Herbert"); got != "dune-frank-herbert" {
		t.Errorf("Slugify parts = %q", got)
	}
}

func TestGetDocument_SourceIncludesNotes(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	doc, err := svc.GetDocument(context.Background(), models.CollectionSources, "dune")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Frontmatter.Title != "Dune" {
		t.Errorf("title = %q", doc.Frontmatter.Title)
	}
	if len(doc.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(doc.Notes))
	}
	if doc.Checksum == "" {
		t.Error("checksum missing")
	}
}

func TestGetDocument_PostHasNoNotes(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "posts/on-reading.md", postDoc)

	doc, err := svc.GetDocument(context.Background(), models.CollectionPosts, "on-reading")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Notes != nil {
		t.Errorf("post should not carry parsed notes, got %v", doc.Notes)
	}
}

func TestGetDocument_TraversalRejected(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetDocument(context.Background(), models.CollectionSources, "../secrets")
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetDocument(context.Background(), models.CollectionSources, "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendNote(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	err := svc.AppendNote(context.Background(), "dune", AppendNoteRequest{
		Content:   "A third note.",
		Tags:      []string{"sand"},
		Published: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	raw, _ := store.Read("sources/dune.md")
	got := string(raw)
	if !strings.Contains(got, "<!-- note: 2025-02-01T10:30 -->") {
		t.Errorf("missing stamped header:\n%s", got)
	}
	if !strings.HasSuffix(strings.TrimRight(got, "\n"), "A third note.") {
		t.Errorf("note not at end of body:\n%s", got)
	}

	doc, _ := svc.GetDocument(context.Background(), models.CollectionSources, "dune")
	if len(doc.Notes) != 3 {
		t.Errorf("notes = %d, want 3", len(doc.Notes))
	}
}

func TestAppendNote_EmptyContent(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	err := svc.AppendNote(context.Background(), "dune", AppendNoteRequest{Content: "  \n "})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestReplaceNoteContent(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	err := svc.ReplaceNoteContent(context.Background(), "dune",
		NoteRef{Timestamp: "2025-01-20T14:30", Index: 1}, "Edited second note.")
	if err != nil {
		t.Fatal(err)
	}

	doc, _ := svc.GetDocument(context.Background(), models.CollectionSources, "dune")
	if doc.Notes[1].Content != "Edited second note." {
		t.Errorf("content = %q", doc.Notes[1].Content)
	}
	if doc.Notes[0].Content != "First note." {
		t.Errorf("other note changed: %q", doc.Notes[0].Content)
	}
}

func TestTogglePublished(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	err := svc.TogglePublished(context.Background(), "dune",
		NoteRef{Timestamp: "2025-01-15T09:12", Index: 0})
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := svc.GetDocument(context.Background(), models.CollectionSources, "dune")
	if doc.Notes[0].Published {
		t.Error("published should be false after toggle")
	}
}

func TestUpdateNoteTags_RecomputesAggregate(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	aggregate, err := svc.UpdateNoteTags(context.Background(), "dune",
		NoteRef{Timestamp: "2025-01-20T14:30", Index: 1}, []string{"c", "b"})
	if err != nil {
		t.Fatal(err)
	}
	// Sorted union of note 0's [ecology] and note 1's new [c, b].
	want := []string{"b", "c", "ecology"}
	if diff := cmp.Diff(want, aggregate); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}

	doc, _ := svc.GetDocument(context.Background(), models.CollectionSources, "dune")
	if diff := cmp.Diff(want, doc.Frontmatter.Tags); diff != "" {
		t.Errorf("frontmatter tags mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateNoteTags_NilTagsRejected(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	_, err := svc.UpdateNoteTags(context.Background(), "dune",
		NoteRef{Timestamp: "2025-01-15T09:12", Index: 0}, nil)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestDeleteNote(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	err := svc.DeleteNote(context.Background(), "dune",
		NoteRef{Timestamp: "2025-01-15T09:12", Index: 0})
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := svc.GetDocument(context.Background(), models.CollectionSources, "dune")
	if len(doc.Notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(doc.Notes))
	}
	if doc.Notes[0].Content != "Second note." {
		t.Errorf("remaining note = %q", doc.Notes[0].Content)
	}
}

func TestSaveSourceMeta_IfMatch(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	title := "Dune (annotated)"
	err := svc.SaveSourceMeta(context.Background(), "dune", SourceMeta{Title: &title}, "stale-checksum")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	raw, _ := store.Read("sources/dune.md")
	err = svc.SaveSourceMeta(context.Background(), "dune", SourceMeta{Title: &title}, checksum.Sum(raw))
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := svc.GetDocument(context.Background(), models.CollectionSources, "dune")
	if doc.Frontmatter.Title != title {
		t.Errorf("title = %q", doc.Frontmatter.Title)
	}
	// Unset fields stay put.
	if doc.Frontmatter.Author != "Frank Herbert" {
		t.Errorf("author changed: %q", doc.Frontmatter.Author)
	}
}

func TestSetArchived(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune.md", sourceDoc)

	if err := svc.SetArchived(context.Background(), "dune", true); err != nil {
		t.Fatal(err)
	}
	doc, _ := svc.GetDocument(context.Background(), models.CollectionSources, "dune")
	if !doc.Frontmatter.Archived {
		t.Error("archived not set")
	}
}

func TestCreateSource_New(t *testing.T) {
	svc, store := newTestService(t)

	slug, err := svc.CreateSource(context.Background(), CreateSourceRequest{
		Title:   "The Dispossessed",
		Author:  "Ursula K. Le Guin",
		Type:    "book",
		Link:    "https://example.com/book",
		Note:    "Picked up after a recommendation.",
		Spotify: "https://open.spotify.com/episode/xyz",
	})
	if err != nil {
		t.Fatal(err)
	}
	if slug != "the-dispossessed-ursula-k-le-guin" {
		t.Errorf("slug = %q", slug)
	}

	raw, err := store.Read("sources/" + slug + ".md")
	if err != nil {
		t.Fatal(err)
	}
	got := string(raw)
	if !strings.Contains(got, "title: The Dispossessed") {
		t.Errorf("missing title:\n%s", got)
	}
	if !strings.Contains(got, "<!-- spotify: https://open.spotify.com/episode/xyz -->") {
		t.Errorf("missing spotify line:\n%s", got)
	}
	if !strings.Contains(got, "Picked up after a recommendation.") {
		t.Errorf("missing first note:\n%s", got)
	}
}

func TestCreateSource_ExistingAppendsBookmark(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "sources/dune-frank-herbert.md", sourceDoc)

	slug, err := svc.CreateSource(context.Background(), CreateSourceRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
	})
	if err != nil {
		t.Fatal(err)
	}
	if slug != "dune-frank-herbert" {
		t.Errorf("slug = %q", slug)
	}

	raw, _ := store.Read("sources/dune-frank-herbert.md")
	if !strings.Contains(string(raw), "Bookmarked") {
		t.Errorf("default bookmark note missing:\n%s", raw)
	}
}

func TestCreateSource_TitleRequired(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateSource(context.Background(), CreateSourceRequest{Title: "  "})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestSavePost_ContentAndMeta(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "posts/on-reading.md", postDoc)

	draft := false
	slug, err := svc.SavePost(context.Background(), "on-reading", SavePostRequest{
		Content: "A fully rewritten body.\n",
		Draft:   &draft,
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if slug != "on-reading" {
		t.Errorf("slug = %q", slug)
	}
	doc, _ := svc.GetDocument(context.Background(), models.CollectionPosts, "on-reading")
	if doc.Body != "A fully rewritten body.\n" {
		t.Errorf("body = %q", doc.Body)
	}
	if doc.Frontmatter.Draft {
		t.Error("draft should be false")
	}
	// Untouched meta stays.
	if doc.Frontmatter.Description != "Why read at all" {
		t.Errorf("description changed: %q", doc.Frontmatter.Description)
	}
}

func TestSavePost_Rename(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "posts/on-reading.md", postDoc)

	slug, err := svc.SavePost(context.Background(), "on-reading", SavePostRequest{
		NewSlug: "on-rereading",
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if slug != "on-rereading" {
		t.Errorf("slug = %q", slug)
	}
	if _, err := store.Read("posts/on-reading.md"); err == nil {
		t.Error("old path still exists")
	}
	if _, err := store.Read("posts/on-rereading.md"); err != nil {
		t.Errorf("new path missing: %v", err)
	}
}

func TestSavePost_RenameRejectsBadSlug(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "posts/on-reading.md", postDoc)

	_, err := svc.SavePost(context.Background(), "on-reading", SavePostRequest{
		NewSlug: "Bad Slug!",
	}, "")
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestSavePost_RenameCollision(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "posts/on-reading.md", postDoc)
	writeFixture(t, store, "posts/taken.md", postDoc)

	_, err := svc.SavePost(context.Background(), "on-reading", SavePostRequest{
		NewSlug: "taken",
	}, "")
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestSavePost_IfMatchConflict(t *testing.T) {
	svc, store := newTestService(t)
	writeFixture(t, store, "posts/on-reading.md", postDoc)

	_, err := svc.SavePost(context.Background(), "on-reading", SavePostRequest{
		Content: "x",
	}, "wrong")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}
