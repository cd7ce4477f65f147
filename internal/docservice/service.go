// Package docservice implements document editing over the content
// directory: the read → decode → locate → mutate → encode → persist
// pipeline for posts and sources, including the note block operations.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/larpo1/davidlarpent.com/internal/apperr"
	"github.com/larpo1/davidlarpent.com/internal/checksum"
	"github.com/larpo1/davidlarpent.com/internal/frontmatter"
	"github.com/larpo1/davidlarpent.com/internal/index"
	"github.com/larpo1/davidlarpent.com/internal/models"
	"github.com/larpo1/davidlarpent.com/internal/noteblock"
	"github.com/larpo1/davidlarpent.com/internal/persist"
	"github.com/larpo1/davidlarpent.com/internal/storage"
)

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// NoteRef identifies a note inside a document: the header timestamp plus
// an optional position index. Index -1 means "not supplied"; timestamps
// collide, so callers that have an index must send it.
type NoteRef struct {
	Timestamp string
	Index     int
}

// Service coordinates storage, index, and persistence for document edits.
type Service struct {
	store storage.Provider
	coord *persist.Coordinator
	db    index.DocumentIndex
	now   func() time.Time
}

// NewService creates a document service. now may be nil (wall clock).
func NewService(store storage.Provider, coord *persist.Coordinator, db index.DocumentIndex, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, coord: coord, db: db, now: now}
}

// ValidateSlug rejects anything that could escape the content directory.
// This guard is non-negotiable: slugs arrive straight from the editing UI.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("docservice: empty slug: %w", apperr.ErrInvalidArgument)
	}
	if strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return fmt.Errorf("docservice: slug %q: path traversal not allowed: %w", slug, apperr.ErrInvalidArgument)
	}
	return nil
}

// Slugify derives a filesystem-safe slug from title text.
func Slugify(parts ...string) string {
	s := strings.ToLower(strings.Join(parts, " "))
	s = regexp.MustCompile(`[^a-z0-9\s-]`).ReplaceAllString(s, "")
	s = regexp.MustCompile(`\s+`).ReplaceAllString(s, "-")
	s = regexp.MustCompile(`-+`).ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func docPath(collection, slug string) (string, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	return path.Join(collection, slug+".md"), nil
}

// GetDocument reads and decodes one document. Sources come back with
// their parsed notes.
func (s *Service) GetDocument(_ context.Context, collection, slug string) (*models.Document, error) {
	p, err := docPath(collection, slug)
	if err != nil {
		return nil, err
	}
	raw, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("docservice: %s/%s: %w", collection, slug, apperr.ErrNotFound)
		}
		return nil, err
	}
	fm, body, err := frontmatter.Decode(raw)
	if err != nil {
		return nil, err
	}
	doc := &models.Document{
		Collection:  collection,
		Slug:        slug,
		Frontmatter: fm,
		Body:        body,
		Checksum:    checksum.Sum(raw),
		UpdatedAt:   s.now(),
	}
	if collection == models.CollectionSources {
		doc.Notes = noteblock.ParseAll(body)
	}
	return doc, nil
}

// RawDocument returns the undecoded markdown (the "edit raw" flow).
func (s *Service) RawDocument(_ context.Context, collection, slug string) ([]byte, error) {
	p, err := docPath(collection, slug)
	if err != nil {
		return nil, err
	}
	raw, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("docservice: %s/%s: %w", collection, slug, apperr.ErrNotFound)
		}
		return nil, err
	}
	return raw, nil
}

// ListDocuments returns indexed documents for a collection.
func (s *Service) ListDocuments(_ context.Context, collection, tag string, limit, offset int) ([]index.DocumentRow, int, error) {
	return s.db.ListDocuments(collection, tag, limit, offset)
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// mutateSource runs the pipeline for a source document: read raw, decode,
// let fn rewrite frontmatter and body, encode, and hand the result to the
// persistence coordinator. Bytes fn does not touch are preserved.
func (s *Service) mutateSource(slug, what string, fn func(fm *frontmatter.Frontmatter, body string) (string, error)) error {
	p, err := docPath(models.CollectionSources, slug)
	if err != nil {
		return err
	}
	raw, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("docservice: source %s: %w", slug, apperr.ErrNotFound)
		}
		return err
	}
	fm, body, err := frontmatter.Decode(raw)
	if err != nil {
		return err
	}
	newBody, err := fn(&fm, body)
	if err != nil {
		return err
	}
	out := frontmatter.Encode(fm, newBody)
	return s.coord.Commit(p, out, "Auto-save: "+slug+" ("+what+")")
}

// AppendNoteRequest carries a new note's payload.
type AppendNoteRequest struct {
	Content   string
	Tags      []string
	Published bool
	Spotify   string
}

// AppendNote appends a new note block, stamped at the current minute, to
// the end of a source body.
func (s *Service) AppendNote(_ context.Context, slug string, req AppendNoteRequest) error {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return fmt.Errorf("docservice: note content is required: %w", apperr.ErrInvalidArgument)
	}
	return s.mutateSource(slug, "note", func(_ *frontmatter.Frontmatter, body string) (string, error) {
		block := noteblock.Build(content, req.Tags, req.Published, strings.TrimSpace(req.Spotify), s.now())
		return noteblock.Append(body, block), nil
	})
}

// ReplaceNoteContent rewrites one note's free text, keeping its metadata
// lines verbatim.
func (s *Service) ReplaceNoteContent(_ context.Context, slug string, ref NoteRef, content string) error {
	return s.mutateSource(slug, "note edit", func(_ *frontmatter.Frontmatter, body string) (string, error) {
		span, err := noteblock.Locate(body, ref.Timestamp, ref.Index)
		if err != nil {
			return "", err
		}
		return noteblock.ReplaceContent(body, span, content), nil
	})
}

// TogglePublished flips one note's published flag. Blocks without the
// flag are left alone.
func (s *Service) TogglePublished(_ context.Context, slug string, ref NoteRef) error {
	return s.mutateSource(slug, "note toggle", func(_ *frontmatter.Frontmatter, body string) (string, error) {
		span, err := noteblock.Locate(body, ref.Timestamp, ref.Index)
		if err != nil {
			return "", err
		}
		return noteblock.TogglePublished(body, span), nil
	})
}

// UpdateNoteTags rewrites one note's tags line and recomputes the source
// document's aggregate tags (sorted union over every note). The aggregate
// is returned so the UI can refresh its filter chips.
func (s *Service) UpdateNoteTags(_ context.Context, slug string, ref NoteRef, tags []string) ([]string, error) {
	if tags == nil {
		return nil, fmt.Errorf("docservice: tags must be a list: %w", apperr.ErrInvalidArgument)
	}
	var aggregate []string
	err := s.mutateSource(slug, "note tags", func(fm *frontmatter.Frontmatter, body string) (string, error) {
		span, err := noteblock.Locate(body, ref.Timestamp, ref.Index)
		if err != nil {
			return "", err
		}
		newBody := noteblock.UpdateTags(body, span, tags)
		aggregate = noteblock.AggregateTags(newBody)
		fm.Tags = aggregate
		return newBody, nil
	})
	if err != nil {
		return nil, err
	}
	return aggregate, nil
}

// DeleteNote excises one note block.
func (s *Service) DeleteNote(_ context.Context, slug string, ref NoteRef) error {
	return s.mutateSource(slug, "note delete", func(_ *frontmatter.Frontmatter, body string) (string, error) {
		span, err := noteblock.Locate(body, ref.Timestamp, ref.Index)
		if err != nil {
			return "", err
		}
		return noteblock.Delete(body, span), nil
	})
}

// SourceMeta carries a source metadata edit. Nil pointers mean "leave as
// is"; the tagged shape replaces the old infer-from-key-presence protocol.
type SourceMeta struct {
	Title  *string
	Author *string
	Type   *string
	Link   *string
	Date   *time.Time
	Tags   []string
}

// SaveSourceMeta updates a source's frontmatter. ifMatch, when non-empty,
// must equal the current content checksum (optimistic concurrency).
func (s *Service) SaveSourceMeta(_ context.Context, slug string, meta SourceMeta, ifMatch string) error {
	p, err := docPath(models.CollectionSources, slug)
	if err != nil {
		return err
	}
	raw, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("docservice: source %s: %w", slug, apperr.ErrNotFound)
		}
		return err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(raw) {
		return fmt.Errorf("docservice: source %s: checksum mismatch: %w", slug, apperr.ErrConflict)
	}
	fm, body, err := frontmatter.Decode(raw)
	if err != nil {
		return err
	}
	if meta.Title != nil {
		fm.Title = *meta.Title
	}
	if meta.Author != nil {
		fm.Author = *meta.Author
	}
	if meta.Type != nil {
		fm.Type = *meta.Type
	}
	if meta.Link != nil {
		fm.Link = *meta.Link
	}
	if meta.Date != nil {
		fm.Date = *meta.Date
	}
	if meta.Tags != nil {
		fm.Tags = meta.Tags
	}
	out := frontmatter.Encode(fm, body)
	return s.coord.Commit(p, out, "Auto-save: "+slug+" (source edit)")
}

// SetArchived toggles a source's archived flag.
func (s *Service) SetArchived(_ context.Context, slug string, archived bool) error {
	return s.mutateSource(slug, "archive", func(fm *frontmatter.Frontmatter, body string) (string, error) {
		fm.Archived = archived
		return body, nil
	})
}

// CreateSourceRequest is the bookmark-capture payload: a new source plus
// its first note, typically carrying a media deep link.
type CreateSourceRequest struct {
	Title   string
	Author  string
	Type    string
	Link    string
	Note    string
	Spotify string
}

// CreateSource creates a source file from a capture request, or appends a
// bookmark note when the source already exists. Returns the slug.
func (s *Service) CreateSource(ctx context.Context, req CreateSourceRequest) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", fmt.Errorf("docservice: title is required: %w", apperr.ErrInvalidArgument)
	}
	slug := Slugify(req.Title, req.Author)
	if slug == "" {
		return "", fmt.Errorf("docservice: title yields empty slug: %w", apperr.ErrInvalidArgument)
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = "Bookmarked"
	}

	p, err := docPath(models.CollectionSources, slug)
	if err != nil {
		return "", err
	}
	if _, err := s.store.Read(p); err == nil {
		return slug, s.AppendNote(ctx, slug, AppendNoteRequest{Content: note, Spotify: req.Spotify})
	}

	fm := frontmatter.Frontmatter{
		Title:  req.Title,
		Author: req.Author,
		Type:   req.Type,
		Link:   req.Link,
		Date:   s.now().UTC(),
		Tags:   []string{},
	}
	block := noteblock.Build(note, nil, false, strings.TrimSpace(req.Spotify), s.now())
	out := frontmatter.Encode(fm, strings.TrimPrefix(block, "\n"))
	return slug, s.coord.Commit(p, out, "Auto-save: "+slug+" (bookmark)")
}

// SavePostRequest is the post editor payload. Content is the full new
// body in markdown (HTML conversion happens client-side).
type SavePostRequest struct {
	Content     string
	Title       *string
	Description *string
	Draft       *bool
	Category    *string
	Tags        []string
	NewSlug     string
}

// SavePost rewrites a post's body and frontmatter, optionally renaming it
// to NewSlug. Renames move the file so the old slug disappears in the
// same change.
func (s *Service) SavePost(_ context.Context, slug string, req SavePostRequest, ifMatch string) (string, error) {
	p, err := docPath(models.CollectionPosts, slug)
	if err != nil {
		return "", err
	}
	raw, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("docservice: post %s: %w", slug, apperr.ErrNotFound)
		}
		return "", err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(raw) {
		return "", fmt.Errorf("docservice: post %s: checksum mismatch: %w", slug, apperr.ErrConflict)
	}
	fm, body, err := frontmatter.Decode(raw)
	if err != nil {
		return "", err
	}

	if req.Content != "" {
		body = req.Content
	}
	if req.Title != nil {
		fm.Title = *req.Title
	}
	if req.Description != nil {
		fm.Description = *req.Description
	}
	if req.Draft != nil {
		fm.Draft = *req.Draft
	}
	if req.Category != nil {
		fm.Category = *req.Category
	}
	if req.Tags != nil {
		fm.Tags = req.Tags
	}

	target := slug
	targetPath := p
	if req.NewSlug != "" && req.NewSlug != slug {
		if !slugRe.MatchString(req.NewSlug) {
			return "", fmt.Errorf("docservice: new slug must be lowercase letters, numbers, and hyphens: %w", apperr.ErrInvalidArgument)
		}
		newPath, err := docPath(models.CollectionPosts, req.NewSlug)
		if err != nil {
			return "", err
		}
		if _, err := s.store.Read(newPath); err == nil {
			return "", fmt.Errorf("docservice: post %s: %w", req.NewSlug, apperr.ErrAlreadyExists)
		}
		if err := s.store.Move(p, newPath); err != nil {
			return "", err
		}
		target = req.NewSlug
		targetPath = newPath
	}

	out := frontmatter.Encode(fm, body)
	return target, s.coord.Commit(targetPath, out, "Auto-save: "+target+" (post edit)")
}
