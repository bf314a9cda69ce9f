// Package gitops commits workspace changes so every processed statement is
// versioned.
package gitops

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned when the paths have no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Repo is a git working tree and the identity commits are made with.
type Repo struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// CommitAll stages all files and creates a commit. Returns the short commit
// hash.
func (r *Repo) CommitAll(message string) (string, error) {
	return r.Commit(message)
}

// Commit stages paths, or everything when none are given, and commits them.
// Returns the short commit hash.
func (r *Repo) Commit(message string, paths ...string) (string, error) {
	scope := append([]string{"--"}, paths...)
	if len(paths) == 0 {
		scope = []string{"-A"}
	}

	if out, err := r.git(append([]string{"add"}, scope...)...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	status, err := r.git(append([]string{"status", "--porcelain", "--"}, paths...)...)
	if err != nil {
		return "", fmt.Errorf("git status: %s: %w", status, err)
	}
	if strings.TrimSpace(string(status)) == "" {
		return "", ErrNothingToCommit
	}

	author := fmt.Sprintf("%s <%s>", r.AuthorName, r.AuthorEmail)
	if out, err := r.git("commit", "-q", "-m", message, "--author", author); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := r.git("rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// git runs a git subcommand in the repository. The committer identity is
// the author's, so commits work without a global git config.
func (r *Repo) git(args ...string) ([]byte, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+r.AuthorName,
		"GIT_COMMITTER_EMAIL="+r.AuthorEmail,
	)
	return cmd.CombinedOutput()
}
