// Package tmux wraps the tmux command line for detached session control.
package tmux

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Tmux runs tmux subcommands. The zero value is unusable; call New.
type Tmux struct {
	path string
}

// New locates the tmux binary. A missing binary is not an error here;
// IsAvailable reports it and every operation fails with a clear message.
func New() *Tmux {
	path, _ := exec.LookPath("tmux")
	return &Tmux{path: path}
}

// IsAvailable reports whether the tmux binary was found.
func (t *Tmux) IsAvailable() bool { return t.path != "" }

// run executes a tmux subcommand and returns its combined output.
func (t *Tmux) run(args ...string) (string, error) {
	if t.path == "" {
		return "", fmt.Errorf("tmux not installed")
	}
	out, err := exec.Command(t.path, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %s", args[0], firstLine(string(out)))
	}
	return string(out), nil
}

// NewSessionWithCommand creates a detached session running command in
// workDir. Env vars are injected with -e so the command inherits them.
func (t *Tmux) NewSessionWithCommand(name, workDir, command string, env map[string]string) error {
	args := []string{"new-session", "-d", "-s", name, "-c", workDir}
	for k, v := range env {
		args = append(args, "-e", k+"="+v)
	}
	args = append(args, command)
	_, err := t.run(args...)
	return err
}

// HasSession reports whether a session with the exact name exists.
// The "=" prefix disables tmux's prefix matching.
func (t *Tmux) HasSession(name string) (bool, error) {
	if t.path == "" {
		return false, fmt.Errorf("tmux not installed")
	}
	cmd := exec.Command(t.path, "has-session", "-t", "="+name)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return true, nil
	}
	// Exit status 1 covers both "no such session" and "no server
	// running"; the session is absent either way.
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("tmux has-session: %s", firstLine(string(out)))
}

// KillSession kills a session. A session that is already gone is
// success, matching the best-effort close semantics of callers.
func (t *Tmux) KillSession(name string) error {
	if t.path == "" {
		return fmt.Errorf("tmux not installed")
	}
	out, err := exec.Command(t.path, "kill-session", "-t", "="+name).CombinedOutput()
	if err == nil {
		return nil
	}
	msg := string(out)
	if strings.Contains(msg, "can't find session") || strings.Contains(msg, "no server running") {
		return nil
	}
	return fmt.Errorf("tmux kill-session: %s", firstLine(msg))
}

// ListSessions returns all session names. No running server means no
// sessions, not an error.
func (t *Tmux) ListSessions() ([]string, error) {
	if t.path == "" {
		return nil, fmt.Errorf("tmux not installed")
	}
	out, err := exec.Command(t.path, "list-sessions", "-F", "#{session_name}").CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "no server running") {
			return nil, nil
		}
		return nil, fmt.Errorf("tmux list-sessions: %s", firstLine(string(out)))
	}
	return splitLines(string(out)), nil
}

// GetPanePID returns the PID of the first pane's process in a session.
func (t *Tmux) GetPanePID(name string) (int, error) {
	out, err := t.run("list-panes", "-t", "="+name, "-F", "#{pane_pid}")
	if err != nil {
		return 0, err
	}
	lines := splitLines(out)
	if len(lines) == 0 {
		return 0, fmt.Errorf("no panes in session %s", name)
	}
	pid, err := strconv.Atoi(lines[0])
	if err != nil {
		return 0, fmt.Errorf("parsing pane pid %q: %w", lines[0], err)
	}
	return pid, nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
