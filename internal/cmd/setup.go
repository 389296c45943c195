package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kildtools/kild/internal/agent"
	"github.com/kildtools/kild/internal/config"
	"github.com/kildtools/kild/internal/daemon"
	"github.com/kildtools/kild/internal/git"
	"github.com/kildtools/kild/internal/portutil"
	"github.com/kildtools/kild/internal/proc"
	"github.com/kildtools/kild/internal/session"
	"github.com/kildtools/kild/internal/terminal"
)

// app bundles the wired-up collaborators a command needs.
type app struct {
	cfg *config.Config
	git *git.Git
	mgr *session.Manager
}

// newApp wires the production dependency graph: config, store, backend
// registries, resolver, and the lifecycle manager.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	sessionsDir, err := cfg.SessionsDir()
	if err != nil {
		return nil, err
	}
	worktreesDir, err := cfg.WorktreesDir()
	if err != nil {
		return nil, err
	}

	g := git.New()
	store := session.NewStore(sessionsDir)
	terminals := terminal.DefaultRegistry()

	resolver := &session.Resolver{
		Procs:     proc.OS{},
		Terminals: terminals,
		Log:       slog.Default(),
	}
	// The daemon is optional: wire the client only when its socket
	// exists, so resolution degrades to the other handle families.
	socket := filepath.Join(filepath.Dir(sessionsDir), "daemon.sock")
	if _, err := os.Stat(socket); err == nil {
		resolver.Daemon = daemon.NewClient(socket)
	}

	mgr := session.NewManager(session.Deps{
		Store:           store,
		Agents:          agent.DefaultRegistry(),
		Terminals:       terminals,
		Resolver:        resolver,
		Worktrees:       g,
		Procs:           proc.OS{},
		Ports:           portutil.FreeRange,
		WorktreesDir:    worktreesDir,
		DefaultAgent:    cfg.Agent.Default,
		DefaultTerminal: cfg.Terminal.Default,
		Log:             slog.Default(),
	})
	return &app{cfg: cfg, git: g, mgr: mgr}, nil
}

// projectID resolves the project key from the current directory.
func (a *app) projectID() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return a.git.ProjectID(cwd)
}
