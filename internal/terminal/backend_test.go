package terminal

import (
	"strings"
	"testing"

	"github.com/kildtools/kild/internal/errs"
)

type fakeBackend struct{ name string }

func (f *fakeBackend) Name() string                            { return f.name }
func (f *fakeBackend) IsAvailable() bool                       { return true }
func (f *fakeBackend) ExecuteSpawn(cfg SpawnConfig) (string, error) { return cfg.WindowID, nil }
func (f *fakeBackend) HasWindow(id string) (bool, error)       { return true, nil }
func (f *fakeBackend) CloseWindow(id string) error             { return nil }

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(&fakeBackend{name: "tmux"}, &fakeBackend{name: "zellij"})

	b, err := r.Lookup("tmux")
	if err != nil {
		t.Fatalf("Lookup(tmux) error = %v", err)
	}
	if b.Name() != "tmux" {
		t.Errorf("Name() = %q, want tmux", b.Name())
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := NewRegistry(&fakeBackend{name: "tmux"})

	_, err := r.Lookup("kitty")
	if err == nil {
		t.Fatal("Lookup(kitty) should fail")
	}
	if errs.CodeOf(err) != CodeUnknownBackend {
		t.Errorf("CodeOf() = %q, want %q", errs.CodeOf(err), CodeUnknownBackend)
	}
	if !errs.IsUser(err) {
		t.Error("unknown backend should be a user error")
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry(&fakeBackend{name: "zellij"}, &fakeBackend{name: "tmux"})
	names := r.Names()
	if len(names) != 2 || names[0] != "tmux" || names[1] != "zellij" {
		t.Errorf("Names() = %v, want sorted [tmux zellij]", names)
	}
}

func TestContainsSession(t *testing.T) {
	out := "kild-proj-main\nother\n"
	if !containsSession(out, "kild-proj-main") {
		t.Error("containsSession should find exact line")
	}
	if containsSession(out, "kild-proj") {
		t.Error("containsSession should not prefix-match")
	}
}

func TestWithEnv(t *testing.T) {
	got := withEnv("claude", map[string]string{"KILD_BRANCH": "main"})
	if !strings.Contains(got, `KILD_BRANCH="main"`) || !strings.HasSuffix(got, "claude") {
		t.Errorf("withEnv() = %q", got)
	}
	if withEnv("claude", nil) != "claude" {
		t.Error("withEnv with no env should return the command unchanged")
	}
}
