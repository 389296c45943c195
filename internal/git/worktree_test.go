package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/kildtools/kild/internal/errs"
)

// initRepo creates a git repo with one commit and returns its path.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = repo
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-b", "main")
	if err := os.WriteFile(filepath.Join(repo, "README"), []byte("hi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "init")
	return repo
}

func TestProjectID(t *testing.T) {
	repo := initRepo(t)
	g := New()

	id, err := g.ProjectID(repo)
	if err != nil {
		t.Fatalf("ProjectID error = %v", err)
	}
	if id != filepath.Base(repo) {
		t.Errorf("ProjectID = %q, want %q", id, filepath.Base(repo))
	}
}

func TestProjectIDNotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	g := New()
	_, err := g.ProjectID(t.TempDir())
	if err == nil {
		t.Fatal("ProjectID outside a repo should fail")
	}
	if !errs.Is(err, CodeNotRepo) || !errs.IsUser(err) {
		t.Errorf("want user error %s, got %v", CodeNotRepo, err)
	}
}

func TestAddAndRemoveWorktree(t *testing.T) {
	repo := initRepo(t)
	g := New()
	wt := filepath.Join(t.TempDir(), "wt")

	if err := g.AddWorktree(repo, wt, "feature/x"); err != nil {
		t.Fatalf("AddWorktree error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(wt, "README")); err != nil {
		t.Fatalf("worktree not checked out: %v", err)
	}

	dirty, err := g.IsDirty(wt)
	if err != nil {
		t.Fatalf("IsDirty error = %v", err)
	}
	if dirty {
		t.Error("fresh worktree should be clean")
	}

	if err := g.RemoveWorktree(repo, wt, false); err != nil {
		t.Fatalf("RemoveWorktree error = %v", err)
	}
	if _, err := os.Stat(wt); !os.IsNotExist(err) {
		t.Error("worktree directory should be gone")
	}
}

func TestAddWorktreeExistingBranch(t *testing.T) {
	repo := initRepo(t)
	g := New()

	wt1 := filepath.Join(t.TempDir(), "wt1")
	if err := g.AddWorktree(repo, wt1, "feature/y"); err != nil {
		t.Fatalf("first AddWorktree error = %v", err)
	}
	if err := g.RemoveWorktree(repo, wt1, false); err != nil {
		t.Fatalf("RemoveWorktree error = %v", err)
	}

	// Branch feature/y still exists; adding a new worktree on it must
	// fall back to checking it out instead of failing on -b.
	wt2 := filepath.Join(t.TempDir(), "wt2")
	if err := g.AddWorktree(repo, wt2, "feature/y"); err != nil {
		t.Fatalf("AddWorktree on existing branch error = %v", err)
	}
}

func TestRemoveWorktreeDirty(t *testing.T) {
	repo := initRepo(t)
	g := New()
	wt := filepath.Join(t.TempDir(), "wt")

	if err := g.AddWorktree(repo, wt, "feature/z"); err != nil {
		t.Fatalf("AddWorktree error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(wt, "scratch.txt"), []byte("wip"), 0644); err != nil {
		t.Fatal(err)
	}

	err := g.RemoveWorktree(repo, wt, false)
	if err == nil {
		t.Fatal("removing a dirty worktree without force should fail")
	}
	if !errs.Is(err, CodeWorktreeDirty) || !errs.IsUser(err) {
		t.Errorf("want user error %s, got %v", CodeWorktreeDirty, err)
	}

	if err := g.RemoveWorktree(repo, wt, true); err != nil {
		t.Fatalf("forced RemoveWorktree error = %v", err)
	}
}

func TestRemoveWorktreeMissingDir(t *testing.T) {
	repo := initRepo(t)
	g := New()
	wt := filepath.Join(t.TempDir(), "wt")

	if err := g.AddWorktree(repo, wt, "feature/w"); err != nil {
		t.Fatalf("AddWorktree error = %v", err)
	}
	if err := os.RemoveAll(wt); err != nil {
		t.Fatal(err)
	}

	if err := g.RemoveWorktree(repo, wt, false); err != nil {
		t.Fatalf("RemoveWorktree on vanished dir should prune, got %v", err)
	}
}

func TestIsDirty(t *testing.T) {
	repo := initRepo(t)
	g := New()

	if err := os.WriteFile(filepath.Join(repo, "new.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	dirty, err := g.IsDirty(repo)
	if err != nil {
		t.Fatalf("IsDirty error = %v", err)
	}
	if !dirty {
		t.Error("repo with untracked file should be dirty")
	}
}

func TestCurrentBranch(t *testing.T) {
	repo := initRepo(t)
	g := New()

	branch, err := g.CurrentBranch(repo)
	if err != nil {
		t.Fatalf("CurrentBranch error = %v", err)
	}
	if branch != "main" {
		t.Errorf("CurrentBranch = %q, want main", branch)
	}
}
