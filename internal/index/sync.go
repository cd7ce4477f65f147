package index

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/larpo1/davidlarpent.com/internal/checksum"
	"github.com/larpo1/davidlarpent.com/internal/frontmatter"
	"github.com/larpo1/davidlarpent.com/internal/noteblock"
	"github.com/larpo1/davidlarpent.com/internal/storage"
)

// Sync walks the content directory and brings the index up to date:
//   - new/changed documents are decoded and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile decodes a document and upserts it into the DB. Malformed
// documents (no frontmatter) are surfaced so the caller can log them.
func indexFile(db *DB, path string, data []byte) error {
	fm, body, err := frontmatter.Decode(data)
	if err != nil {
		return err
	}

	collection := ""
	if i := strings.IndexByte(path, filepath.Separator); i > 0 {
		collection = path[:i]
	}
	slug := strings.TrimSuffix(filepath.Base(path), ".md")

	notes := noteblock.ParseAll(body)

	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}

	return db.UpsertDocument(DocumentRow{
		Path:       path,
		Collection: collection,
		Slug:       slug,
		Title:      fm.Title,
		Author:     fm.Author,
		Type:       fm.Type,
		Tags:       tags,
		NoteCount:  len(notes),
		Draft:      fm.Draft,
		Archived:   fm.Archived,
		Checksum:   checksum.Sum(data),
		UpdatedAt:  time.Now(),
	}, body)
}
