package api

import "time"

// Note operation names accepted by POST /sources/{slug}/notes/{action}.
// The action is explicit in the URL; nothing is inferred from which JSON
// keys happen to be present.
const (
	ActionReplaceContent  = "replace-content"
	ActionTogglePublished = "toggle-published"
	ActionUpdateTags      = "update-tags"
	ActionDelete          = "delete"
)

// AppendNoteRequest is the body for POST /sources/{slug}/notes.
type AppendNoteRequest struct {
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
	Spotify   string   `json:"spotify"`
}

// NoteActionRequest is the body for POST /sources/{slug}/notes/{action}.
// NoteIndex disambiguates duplicate timestamps; callers that have it must
// send it.
type NoteActionRequest struct {
	Timestamp string   `json:"timestamp"`
	NoteIndex *int     `json:"noteIndex"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
}

// SaveSourceRequest is the body for PUT /sources/{slug}. Pointer fields
// distinguish "leave unchanged" from "set to zero value".
type SaveSourceRequest struct {
	Title  *string    `json:"title"`
	Author *string    `json:"author"`
	Type   *string    `json:"type"`
	Link   *string    `json:"link"`
	Date   *time.Time `json:"date"`
	Tags   []string   `json:"tags"`
}

// ArchiveRequest is the body for POST /sources/{slug}/archive.
type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

// CreateSourceRequest is the body for POST /sources (bookmark capture).
type CreateSourceRequest struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Type    string `json:"type"`
	Link    string `json:"link"`
	Note    string `json:"note"`
	Spotify string `json:"spotify"`
}

// SavePostRequest is the body for PUT /posts/{slug}.
type SavePostRequest struct {
	Content     string   `json:"content"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Draft       *bool    `json:"draft"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`
	NewSlug     string   `json:"newSlug"`
}

// DocumentListItem is one entry in a list response.
type DocumentListItem struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Type      string    `json:"type,omitempty"`
	Tags      []string  `json:"tags"`
	NoteCount int       `json:"noteCount"`
	Draft     bool      `json:"draft"`
	Archived  bool      `json:"archived"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}
