package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/kildtools/kild/internal/errs"
	"github.com/kildtools/kild/internal/proc"
	"github.com/kildtools/kild/internal/terminal"
)

// spawnEnv merges the configured env with the port-range exports.
func spawnEnv(cfg SpawnConfig) map[string]string {
	env := make(map[string]string, len(cfg.Env)+2)
	for k, v := range cfg.Env {
		env[k] = v
	}
	if cfg.PortLow > 0 {
		env["KILD_PORT_LOW"] = strconv.Itoa(cfg.PortLow)
		env["KILD_PORT_HIGH"] = strconv.Itoa(cfg.PortHigh)
	}
	return env
}

// spawn launches command either in the configured terminal window or,
// when no terminal is configured, as a detached local process. It is
// shared by every CLI agent backend.
func spawn(ctx context.Context, procs proc.Inspector, command string, cfg SpawnConfig) (*Spawned, error) {
	if cfg.Terminal != nil {
		return spawnInTerminal(procs, command, cfg)
	}
	return spawnLocal(ctx, procs, command, cfg)
}

func spawnInTerminal(procs proc.Inspector, command string, cfg SpawnConfig) (*Spawned, error) {
	windowID, err := cfg.Terminal.ExecuteSpawn(terminal.SpawnConfig{
		WindowID: cfg.WindowID,
		WorkDir:  cfg.WorkDir,
		Command:  command,
		Env:      spawnEnv(cfg),
	})
	if err != nil {
		return nil, errs.Wrap(err, CodeSpawnFailed, "spawning agent in %s", cfg.Terminal.Name())
	}

	sp := &Spawned{
		TerminalKind: cfg.Terminal.Name(),
		WindowID:     windowID,
		Command:      command,
	}

	// tmux can surface the pane PID, which gives the session a local
	// process handle on top of the window handle. Best effort: the
	// window handle alone is enough to resolve and stop the agent.
	if tb, ok := cfg.Terminal.(*terminal.TmuxBackend); ok {
		if pid, err := tb.PanePID(windowID); err == nil && pid > 0 {
			sp.PID = pid
			if st, err := procs.StartTime(pid); err == nil {
				sp.ProcessStartTime = st
			}
			if name, err := procs.Name(pid); err == nil {
				sp.ProcessName = name
			}
		}
	}
	return sp, nil
}

func spawnLocal(ctx context.Context, procs proc.Inspector, command string, cfg SpawnConfig) (*Spawned, error) {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = cfg.WorkDir
	cmd.Env = os.Environ()
	for k, v := range spawnEnv(cfg) {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	// Detach into its own session so the agent outlives this process
	// and never receives our terminal's signals.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, errs.Wrap(err, CodeSpawnFailed, "starting agent process")
	}
	pid := cmd.Process.Pid

	// Release our handle; the detached process is tracked by PID from
	// here on.
	_ = cmd.Process.Release()

	sp := &Spawned{PID: pid, Command: command}
	if st, err := procs.StartTime(pid); err == nil {
		sp.ProcessStartTime = st
	}
	if name, err := procs.Name(pid); err == nil {
		sp.ProcessName = name
	}
	return sp, nil
}
