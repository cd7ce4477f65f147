// Package testutil provides shared test helpers for setting up content
// directories and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/larpo1/davidlarpent.com/internal/index"
	"github.com/larpo1/davidlarpent.com/internal/persist"
	"github.com/larpo1/davidlarpent.com/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "larpo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestContentDir creates a temporary content directory with a storage.Provider.
func TestContentDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	contentDir := t.TempDir()
	store, err := storage.NewFS(contentDir)
	if err != nil {
		t.Fatal(err)
	}
	return contentDir, store
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SyncCoordinator creates a persistence coordinator that writes inline and
// runs any scheduled work immediately, so tests never sleep.
func SyncCoordinator(t *testing.T, store storage.Provider) *persist.Coordinator {
	t.Helper()
	return persist.New(store, nil, DiscardLogger(),
		persist.WithMode(persist.ModeSync),
		persist.WithAutoCommit(false),
		persist.WithScheduler(func(_ time.Duration, fn func()) { fn() }),
	)
}
