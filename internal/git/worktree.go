// Package git wraps the git operations kild needs for session
// worktrees. All operations shell out to the git binary.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kildtools/kild/internal/errs"
)

// Error codes for the git subsystem.
const (
	CodeNotRepo       errs.Code = "GIT_NOT_REPO"
	CodeWorktreeDirty errs.Code = "WORKTREE_DIRTY"
	CodeGitFailed     errs.Code = "GIT_FAILED"
)

// Git runs worktree operations against local repositories.
type Git struct {
	path string
}

// New locates the git binary.
func New() *Git {
	path, _ := exec.LookPath("git")
	return &Git{path: path}
}

// IsAvailable reports whether the git binary was found.
func (g *Git) IsAvailable() bool { return g.path != "" }

func (g *Git) run(dir string, args ...string) (string, error) {
	if g.path == "" {
		return "", errs.New(CodeGitFailed, "git is not installed")
	}
	cmd := exec.Command(g.path, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("git %s: %s", args[0], firstLine(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// ProjectID returns the repository identity used to namespace session
// records: the basename of the repo's top-level directory.
func (g *Git) ProjectID(repo string) (string, error) {
	out, err := g.run(repo, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errs.WrapUser(err, CodeNotRepo, "%s is not inside a git repository", repo)
	}
	return filepath.Base(out), nil
}

// TopLevel returns the absolute path of the repo's top-level directory.
func (g *Git) TopLevel(repo string) (string, error) {
	out, err := g.run(repo, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errs.WrapUser(err, CodeNotRepo, "%s is not inside a git repository", repo)
	}
	return out, nil
}

// CurrentBranch returns the checked-out branch name, or "" when the
// repo is in detached HEAD state.
func (g *Git) CurrentBranch(repo string) (string, error) {
	out, err := g.run(repo, "branch", "--show-current")
	if err != nil {
		return "", errs.Wrap(err, CodeGitFailed, "reading current branch in %s", repo)
	}
	return out, nil
}

// AddWorktree creates a worktree at path on the given branch, creating
// the branch when it does not exist yet.
func (g *Git) AddWorktree(repo, path, branch string) error {
	// Try creating the branch first; if it already exists, check the
	// existing branch out into the new worktree instead.
	_, err := g.run(repo, "worktree", "add", "-b", branch, path)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "already exists") {
		if _, err := g.run(repo, "worktree", "add", path, branch); err != nil {
			return errs.Wrap(err, CodeGitFailed, "adding worktree at %s", path)
		}
		return nil
	}
	return errs.Wrap(err, CodeGitFailed, "adding worktree at %s", path)
}

// RemoveWorktree removes the worktree at path. Without force, a
// worktree with uncommitted changes is refused with a user error.
// A worktree whose directory is already gone is pruned and treated as
// removed.
func (g *Git) RemoveWorktree(repo, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)

	_, err := g.run(repo, args...)
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "contains modified or untracked files"):
		return errs.WrapUser(err, CodeWorktreeDirty,
			"worktree %s has uncommitted changes (use force to discard)", path)
	case strings.Contains(msg, "is not a working tree"), strings.Contains(msg, "No such file"):
		// Directory vanished out from under git; prune the stale
		// registration and call it removed.
		_, _ = g.run(repo, "worktree", "prune")
		return nil
	default:
		return errs.Wrap(err, CodeGitFailed, "removing worktree at %s", path)
	}
}

// IsDirty reports whether the worktree at path has uncommitted changes
// or untracked files.
func (g *Git) IsDirty(path string) (bool, error) {
	out, err := g.run(path, "status", "--porcelain")
	if err != nil {
		return false, errs.Wrap(err, CodeGitFailed, "checking worktree status at %s", path)
	}
	return out != "", nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
