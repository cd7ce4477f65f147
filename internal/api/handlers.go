package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/larpo1/davidlarpent.com/internal/apperr"
	"github.com/larpo1/davidlarpent.com/internal/docservice"
	"github.com/larpo1/davidlarpent.com/internal/gitsnap"
	"github.com/larpo1/davidlarpent.com/internal/models"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc  *docservice.Service
	snap *gitsnap.Snapshotter
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service, snap *gitsnap.Snapshotter) *Handler {
	return &Handler{svc: svc, snap: snap}
}

// writeErr maps the error taxonomy onto HTTP statuses: not-found → 404,
// invalid-argument → 400, conflict/exists → 409, everything else → 500.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func ifMatch(r *http.Request) string {
	// Strip surrounding quotes if present (standard ETag format).
	return strings.Trim(r.Header.Get("If-Match"), `"`)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request, collection string) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")

	rows, total, err := h.svc.ListDocuments(r.Context(), collection, tag, limit, offset)
	if err != nil {
		writeErr(w, err)
		return
	}
	items := make([]DocumentListItem, len(rows))
	for i, row := range rows {
		tags := row.Tags
		if tags == nil {
			tags = []string{}
		}
		items[i] = DocumentListItem{
			Slug:      row.Slug,
			Title:     row.Title,
			Author:    row.Author,
			Type:      row.Type,
			Tags:      tags,
			NoteCount: row.NoteCount,
			Draft:     row.Draft,
			Archived:  row.Archived,
			Checksum:  row.Checksum,
			UpdatedAt: row.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"documents": items,
		"total":     total,
	})
}

// ListSources handles GET /sources.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	h.listDocuments(w, r, models.CollectionSources)
}

// ListPosts handles GET /posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	h.listDocuments(w, r, models.CollectionPosts)
}

// GetSource handles GET /sources/{slug}: the decoded document plus its
// parsed notes.
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetDocument(r.Context(), models.CollectionSources, chi.URLParam(r, "slug"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "document": doc})
}

// GetPost handles GET /posts/{slug}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetDocument(r.Context(), models.CollectionPosts, chi.URLParam(r, "slug"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "document": doc})
}

// GetPostMarkdown handles GET /posts/{slug}/markdown: the raw file bytes
// for the markdown editing mode.
func (h *Handler) GetPostMarkdown(w http.ResponseWriter, r *http.Request) {
	raw, err := h.svc.RawDocument(r.Context(), models.CollectionPosts, chi.URLParam(r, "slug"))
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// CreateSource handles POST /sources (bookmark capture).
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req CreateSourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	slug, err := h.svc.CreateSource(r.Context(), docservice.CreateSourceRequest{
		Title:   req.Title,
		Author:  req.Author,
		Type:    req.Type,
		Link:    req.Link,
		Note:    req.Note,
		Spotify: req.Spotify,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "slug": slug})
}

// SaveSource handles PUT /sources/{slug} (metadata edit).
func (h *Handler) SaveSource(w http.ResponseWriter, r *http.Request) {
	var req SaveSourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.SaveSourceMeta(r.Context(), chi.URLParam(r, "slug"), docservice.SourceMeta{
		Title:  req.Title,
		Author: req.Author,
		Type:   req.Type,
		Link:   req.Link,
		Date:   req.Date,
		Tags:   req.Tags,
	}, ifMatch(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody("Source saved"))
}

// ArchiveSource handles POST /sources/{slug}/archive.
func (h *Handler) ArchiveSource(w http.ResponseWriter, r *http.Request) {
	var req ArchiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.SetArchived(r.Context(), chi.URLParam(r, "slug"), req.Archived); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody("Source saved"))
}

// AppendNote handles POST /sources/{slug}/notes.
func (h *Handler) AppendNote(w http.ResponseWriter, r *http.Request) {
	var req AppendNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.AppendNote(r.Context(), chi.URLParam(r, "slug"), docservice.AppendNoteRequest{
		Content:   req.Content,
		Tags:      req.Tags,
		Published: req.Published,
		Spotify:   req.Spotify,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody("Note saved"))
}

// NoteAction handles POST /sources/{slug}/notes/{action} for the span
// mutations: replace-content, toggle-published, update-tags, delete.
func (h *Handler) NoteAction(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	action := chi.URLParam(r, "action")

	var req NoteActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Timestamp == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("timestamp is required"))
		return
	}
	ref := docservice.NoteRef{Timestamp: req.Timestamp, Index: -1}
	if req.NoteIndex != nil {
		ref.Index = *req.NoteIndex
	}

	switch action {
	case ActionReplaceContent:
		if err := h.svc.ReplaceNoteContent(r.Context(), slug, ref, req.Content); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okBody("Note updated"))

	case ActionTogglePublished:
		if err := h.svc.TogglePublished(r.Context(), slug, ref); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okBody("Note updated"))

	case ActionUpdateTags:
		sourceTags, err := h.svc.UpdateNoteTags(r.Context(), slug, ref, req.Tags)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "Note updated",
			"sourceTags": sourceTags,
		})

	case ActionDelete:
		if err := h.svc.DeleteNote(r.Context(), slug, ref); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okBody("Note deleted"))

	default:
		writeJSON(w, http.StatusBadRequest,
			errorBody(`action must be "replace-content", "toggle-published", "update-tags", or "delete"`))
	}
}

// SavePost handles PUT /posts/{slug}.
func (h *Handler) SavePost(w http.ResponseWriter, r *http.Request) {
	var req SavePostRequest
	if !decodeBody(w, r, &req) {
		return
	}
	slug, err := h.svc.SavePost(r.Context(), chi.URLParam(r, "slug"), docservice.SavePostRequest{
		Content:     req.Content,
		Title:       req.Title,
		Description: req.Description,
		Draft:       req.Draft,
		Category:    req.Category,
		Tags:        req.Tags,
		NewSlug:     req.NewSlug,
	}, ifMatch(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "slug": slug})
}

// Search handles GET /search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]SearchResult, len(results))
	for i, res := range results {
		out[i] = SearchResult{Path: res.Path, Title: res.Title, Snippet: res.Snippet}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": out})
}

// GitPush handles POST /git/push: pushes pending auto-save commits.
// Best-effort like the snapshots themselves, but this one is user
// initiated so failures are surfaced.
func (h *Handler) GitPush(w http.ResponseWriter, r *http.Request) {
	if h.snap == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("git integration disabled"))
		return
	}
	if err := h.snap.Push(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody("Pushed"))
}
