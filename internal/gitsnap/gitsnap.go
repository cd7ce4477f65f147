// Package gitsnap shells out to git for best-effort auto-save snapshots.
package gitsnap

import (
	"fmt"
	"os/exec"
	"strings"
)

// Snapshotter runs git commands in a fixed working directory.
type Snapshotter struct {
	dir string
}

// New creates a Snapshotter rooted at dir.
func New(dir string) *Snapshotter {
	return &Snapshotter{dir: dir}
}

// IsRepo reports whether dir is inside a git work tree.
func (s *Snapshotter) IsRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = s.dir
	return cmd.Run() == nil
}

// Add stages the given paths.
func (s *Snapshotter) Add(paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	cmd := exec.Command("git", args...)
	cmd.Dir = s.dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("gitsnap: add: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Commit records a commit with the given message. Committing with nothing
// staged is an error from git; callers treat every failure as best-effort.
func (s *Snapshotter) Commit(message string) error {
	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = s.dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("gitsnap: commit: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Push pushes the current branch to its upstream.
func (s *Snapshotter) Push() error {
	cmd := exec.Command("git", "push")
	cmd.Dir = s.dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("gitsnap: push: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
