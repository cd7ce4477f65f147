// Package models defines the domain types shared across the content core.
package models

import (
	"time"

	"github.com/larpo1/davidlarpent.com/internal/frontmatter"
	"github.com/larpo1/davidlarpent.com/internal/noteblock"
)

// Collection names under the content root.
const (
	CollectionPosts   = "posts"
	CollectionSources = "sources"
)

// Document is a fully decoded content file: frontmatter plus raw body.
// The body is the single source of truth; notes are views computed from it.
type Document struct {
	Collection  string                  `json:"collection"`
	Slug        string                  `json:"slug"`
	Frontmatter frontmatter.Frontmatter `json:"frontmatter"`
	Body        string                  `json:"body"`
	Notes       []noteblock.Note        `json:"notes,omitempty"`
	Checksum    string                  `json:"checksum"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// DocumentInfo is a lightweight representation returned by list operations.
type DocumentInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
