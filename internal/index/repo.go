package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path       string
	Collection string
	Slug       string
	Title      string
	Author     string
	Type       string
	Tags       []string
	NoteCount  int
	Draft      bool
	Archived   bool
	Checksum   string
	UpdatedAt  time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertDocument inserts or replaces a document row and its FTS entry
// within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(d.Tags)

	_, err = tx.Exec(`
		INSERT INTO documents (path, collection, slug, title, author, type, tags, note_count, draft, archived, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			collection = excluded.collection,
			slug       = excluded.slug,
			title      = excluded.title,
			author     = excluded.author,
			type       = excluded.type,
			tags       = excluded.tags,
			note_count = excluded.note_count,
			draft      = excluded.draft,
			archived   = excluded.archived,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, d.Path, d.Collection, d.Slug, d.Title, d.Author, d.Type, string(tagsJSON),
		d.NoteCount, d.Draft, d.Archived, d.Checksum, body, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, d.Path, d.Title, body, d.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its FTS entry.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string
// if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocuments returns documents filtered by collection and tag, newest
// first, with the unfiltered-by-pagination total.
func (db *DB) ListDocuments(collection, tag string, limit, offset int) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}

	where := `WHERE 1=1`
	args := []any{}
	if collection != "" {
		where += ` AND collection = ?`
		args = append(args, collection)
	}
	if tag != "" {
		// Tags are stored as a JSON array of strings.
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	query := `
		SELECT path, collection, slug, title, author, type, tags, note_count, draft, archived, checksum, updated_at
		FROM documents ` + where + `
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var d DocumentRow
		var tagsJSON string
		if err := rows.Scan(&d.Path, &d.Collection, &d.Slug, &d.Title, &d.Author, &d.Type,
			&tagsJSON, &d.NoteCount, &d.Draft, &d.Archived, &d.Checksum, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &d.Tags); err != nil {
			d.Tags = []string{}
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}
