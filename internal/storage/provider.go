// Package storage defines the content-directory file abstraction.
package storage

import "github.com/larpo1/davidlarpent.com/internal/models"

// Provider is the interface for content file operations. Paths are always
// relative to the content root (e.g. "sources/thinking-fast-and-slow.md").
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the root).
	List(dir string) ([]models.DocumentInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path (temp file + rename).
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath (slug rename flow).
	Move(oldPath, newPath string) error
}
