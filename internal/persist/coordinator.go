// Package persist sequences document writes and version-control snapshots.
//
// Two policies exist because a live development renderer watches the
// content directory: a write that lands before the client has processed
// the editing API's success response triggers a reload against stale UI
// state. Deferred mode therefore schedules the atomic rename shortly
// after the response, and the best-effort git snapshot a few seconds
// after that.
package persist

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/larpo1/davidlarpent.com/internal/gitsnap"
	"github.com/larpo1/davidlarpent.com/internal/storage"
)

// Modes.
const (
	ModeSync     = "sync"
	ModeDeferred = "deferred"
)

// Scheduler runs fn after delay. Injected so tests can run deferred work
// inline instead of sleeping.
type Scheduler func(delay time.Duration, fn func())

// Coordinator owns the write-then-snapshot discipline for one content root.
type Coordinator struct {
	store       storage.Provider
	snap        *gitsnap.Snapshotter
	logger      *slog.Logger
	mode        string
	writeDelay  time.Duration
	commitDelay time.Duration
	autoCommit  bool
	schedule    Scheduler

	wg sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMode selects ModeSync or ModeDeferred.
func WithMode(mode string) Option {
	return func(c *Coordinator) { c.mode = mode }
}

// WithDelays overrides the write and snapshot delays.
func WithDelays(write, commit time.Duration) Option {
	return func(c *Coordinator) {
		c.writeDelay = write
		c.commitDelay = commit
	}
}

// WithAutoCommit toggles git snapshotting.
func WithAutoCommit(enabled bool) Option {
	return func(c *Coordinator) { c.autoCommit = enabled }
}

// WithScheduler replaces the timer-based scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.schedule = s }
}

// New creates a Coordinator. Defaults: sync writes, 200ms write delay,
// 3s snapshot delay, auto-commit enabled.
func New(store storage.Provider, snap *gitsnap.Snapshotter, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		snap:        snap,
		logger:      logger,
		mode:        ModeSync,
		writeDelay:  200 * time.Millisecond,
		commitDelay: 3 * time.Second,
		autoCommit:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.schedule == nil {
		c.schedule = func(delay time.Duration, fn func()) {
			c.wg.Add(1)
			time.AfterFunc(delay, func() {
				defer c.wg.Done()
				fn()
			})
		}
	}
	return c
}

// Commit persists content to path under the configured policy.
//
// Sync mode writes before returning; a failed write is the caller's
// failure and the in-memory result must be discarded. Deferred mode
// returns immediately and performs the write ~writeDelay later, after the
// caller's HTTP response has gone out. In both modes the git snapshot is
// scheduled ~commitDelay after the write and its failures are logged,
// never surfaced.
func (c *Coordinator) Commit(path string, content []byte, message string) error {
	if c.mode == ModeDeferred {
		c.schedule(c.writeDelay, func() {
			if err := c.store.Write(path, content); err != nil {
				c.logger.Error("persist: deferred write failed",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return
			}
			c.scheduleSnapshot(path, message)
		})
		return nil
	}

	if err := c.store.Write(path, content); err != nil {
		return fmt.Errorf("persist: write %s: %w", path, err)
	}
	c.scheduleSnapshot(path, message)
	return nil
}

func (c *Coordinator) scheduleSnapshot(path, message string) {
	if !c.autoCommit || c.snap == nil {
		return
	}
	c.schedule(c.commitDelay, func() {
		if err := c.snap.Add(path); err != nil {
			c.logger.Info("persist: git auto-commit skipped", slog.String("error", err.Error()))
			return
		}
		if err := c.snap.Commit(message); err != nil {
			c.logger.Info("persist: git auto-commit skipped", slog.String("error", err.Error()))
		}
	})
}

// Wait blocks until all scheduled work has run. Used by tests and during
// shutdown; a process exit before the deadline drops pending work, which
// is acceptable for best-effort auto-save.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
