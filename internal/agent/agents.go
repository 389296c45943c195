package agent

import (
	"context"
	"os/exec"

	"github.com/kildtools/kild/internal/errs"
	"github.com/kildtools/kild/internal/proc"
)

// cliAgent is the common shape of the built-in agents: a single binary
// launched with a fixed default command. Backends differ only in name,
// binary, and command line.
type cliAgent struct {
	name    string
	binary  string
	command string
	procs   proc.Inspector
}

func (a *cliAgent) Name() string { return a.name }

func (a *cliAgent) IsAvailable() bool {
	_, err := exec.LookPath(a.binary)
	return err == nil
}

func (a *cliAgent) DefaultCommand() string { return a.command }

func (a *cliAgent) Spawn(ctx context.Context, cfg SpawnConfig) (*Spawned, error) {
	if !a.IsAvailable() {
		return nil, errs.NewUser(CodeUnavailable, "%s is not installed (need %q on PATH)", a.name, a.binary)
	}
	command := cfg.Command
	if command == "" {
		command = a.command
	}
	return spawn(ctx, a.procs, command, cfg)
}

// NewClaude returns the Claude Code agent backend.
func NewClaude() Backend {
	return &cliAgent{name: "claude", binary: "claude", command: "claude", procs: proc.OS{}}
}

// NewCodex returns the Codex CLI agent backend.
func NewCodex() Backend {
	return &cliAgent{name: "codex", binary: "codex", command: "codex", procs: proc.OS{}}
}

// NewOpenCode returns the OpenCode agent backend.
func NewOpenCode() Backend {
	return &cliAgent{name: "opencode", binary: "opencode", command: "opencode", procs: proc.OS{}}
}
