package terminal

import (
	"github.com/kildtools/kild/internal/errs"
	"github.com/kildtools/kild/internal/tmux"
)

// TmuxBackend tracks agent windows as detached tmux sessions. This is
// the default backend.
type TmuxBackend struct {
	tmux *tmux.Tmux
}

// NewTmuxBackend creates the tmux terminal backend.
func NewTmuxBackend() *TmuxBackend {
	return &TmuxBackend{tmux: tmux.New()}
}

func (b *TmuxBackend) Name() string { return "tmux" }

func (b *TmuxBackend) IsAvailable() bool { return b.tmux.IsAvailable() }

func (b *TmuxBackend) ExecuteSpawn(cfg SpawnConfig) (string, error) {
	if !b.tmux.IsAvailable() {
		return "", errs.New(CodeUnavailable, "tmux is not installed")
	}
	if err := b.tmux.NewSessionWithCommand(cfg.WindowID, cfg.WorkDir, cfg.Command, cfg.Env); err != nil {
		return "", errs.Wrap(err, CodeSpawnFailed, "spawning tmux session %s", cfg.WindowID)
	}
	return cfg.WindowID, nil
}

func (b *TmuxBackend) HasWindow(id string) (bool, error) {
	return b.tmux.HasSession(id)
}

func (b *TmuxBackend) CloseWindow(id string) error {
	return b.tmux.KillSession(id)
}

// PanePID returns the PID of the process running in the window, for
// callers that also want a local handle on a tmux-spawned agent.
func (b *TmuxBackend) PanePID(id string) (int, error) {
	return b.tmux.GetPanePID(id)
}
