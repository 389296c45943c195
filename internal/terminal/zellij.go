package terminal

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/kildtools/kild/internal/errs"
)

// ZellijBackend tracks agent windows as background zellij sessions.
type ZellijBackend struct {
	path string
}

// NewZellijBackend locates the zellij binary.
func NewZellijBackend() *ZellijBackend {
	path, _ := exec.LookPath("zellij")
	return &ZellijBackend{path: path}
}

func (b *ZellijBackend) Name() string { return "zellij" }

func (b *ZellijBackend) IsAvailable() bool { return b.path != "" }

func (b *ZellijBackend) ExecuteSpawn(cfg SpawnConfig) (string, error) {
	if b.path == "" {
		return "", errs.New(CodeUnavailable, "zellij is not installed")
	}

	out, err := exec.Command(b.path, "attach", "--create-background", cfg.WindowID).CombinedOutput()
	if err != nil {
		return "", errs.Wrap(fmt.Errorf("%s", strings.TrimSpace(string(out))),
			CodeSpawnFailed, "creating zellij session %s", cfg.WindowID)
	}

	// Launch the agent command inside the background session.
	args := []string{"--session", cfg.WindowID, "run", "--cwd", cfg.WorkDir, "--", "sh", "-c", withEnv(cfg.Command, cfg.Env)}
	out, err = exec.Command(b.path, args...).CombinedOutput()
	if err != nil {
		_ = b.CloseWindow(cfg.WindowID)
		return "", errs.Wrap(fmt.Errorf("%s", strings.TrimSpace(string(out))),
			CodeSpawnFailed, "running command in zellij session %s", cfg.WindowID)
	}
	return cfg.WindowID, nil
}

func (b *ZellijBackend) HasWindow(id string) (bool, error) {
	if b.path == "" {
		return false, errs.New(CodeUnavailable, "zellij is not installed")
	}
	out, err := exec.Command(b.path, "list-sessions", "-n", "-s").CombinedOutput()
	if err != nil {
		// No sessions at all exits non-zero.
		if strings.Contains(string(out), "No active zellij sessions") {
			return false, nil
		}
		return false, fmt.Errorf("zellij list-sessions: %s", strings.TrimSpace(string(out)))
	}
	return containsSession(string(out), id), nil
}

func (b *ZellijBackend) CloseWindow(id string) error {
	if b.path == "" {
		return errs.New(CodeUnavailable, "zellij is not installed")
	}
	out, err := exec.Command(b.path, "kill-session", id).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if strings.Contains(msg, "not found") || strings.Contains(msg, "No active zellij sessions") {
			return nil
		}
		return fmt.Errorf("zellij kill-session: %s", msg)
	}
	return nil
}

// containsSession reports whether the list-sessions output names id.
func containsSession(out, id string) bool {
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == id {
			return true
		}
	}
	return false
}

// withEnv prefixes a shell command with KEY=VAL assignments.
func withEnv(command string, env map[string]string) string {
	if len(env) == 0 {
		return command
	}
	var b strings.Builder
	for k, v := range env {
		fmt.Fprintf(&b, "%s=%q ", k, v)
	}
	b.WriteString(command)
	return b.String()
}
