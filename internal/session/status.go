package session

import (
	"context"
	"log/slog"

	"github.com/kildtools/kild/internal/daemon"
	"github.com/kildtools/kild/internal/proc"
	"github.com/kildtools/kild/internal/terminal"
)

// Liveness is a resolved runtime verdict, distinct from the stored
// Status: it reflects what the process table, terminal, and daemon say
// right now.
type Liveness int

const (
	LivenessStopped Liveness = iota
	LivenessRunning
	LivenessUnknown
)

func (l Liveness) String() string {
	switch l {
	case LivenessRunning:
		return "running"
	case LivenessUnknown:
		return "unknown"
	default:
		return "stopped"
	}
}

// Resolution is the session-level outcome of status resolution.
// AnyUnknown is diagnostic only: it never downgrades Running and never
// turns Stopped into a failure verdict.
type Resolution struct {
	Status     Liveness
	AnyUnknown bool
}

// TerminalLookup resolves a terminal kind to its backend.
// *terminal.Registry satisfies it.
type TerminalLookup interface {
	Lookup(name string) (terminal.Backend, error)
}

// DaemonQuerier answers daemon session status queries. *daemon.Client
// satisfies it.
type DaemonQuerier interface {
	GetSessionStatus(ctx context.Context, sessionID string) (daemon.Status, error)
}

// Resolver is the status resolution engine. Per agent it tries three
// detection paths in priority order: local PID liveness, terminal
// window existence, then daemon IPC.
type Resolver struct {
	Procs     proc.Inspector
	Terminals TerminalLookup
	Daemon    DaemonQuerier
	Log       *slog.Logger
}

func (r *Resolver) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Resolve aggregates per-agent verdicts into a session-level one:
// Running if any agent is running, otherwise Stopped.
func (r *Resolver) Resolve(ctx context.Context, sess *Session) Resolution {
	res := Resolution{Status: LivenessStopped}
	for i := range sess.Agents {
		switch r.ResolveAgent(ctx, &sess.Agents[i]) {
		case LivenessRunning:
			res.Status = LivenessRunning
		case LivenessUnknown:
			res.AnyUnknown = true
		}
	}
	return res
}

// ResolveAgent resolves one agent's liveness. First present handle
// family wins; an agent with no handles at all is Stopped.
func (r *Resolver) ResolveAgent(ctx context.Context, a *AgentProcess) Liveness {
	switch {
	case a.PID > 0:
		return r.resolveLocal(a)
	case a.TerminalWindowID != "":
		return r.resolveTerminal(a)
	case a.DaemonSessionID != "":
		return r.resolveDaemon(ctx, a)
	default:
		return LivenessStopped
	}
}

// resolveLocal checks the process table. A liveness check failure is
// Unknown, never Stopped: "I could not check" must stay distinguishable
// from "it is gone".
func (r *Resolver) resolveLocal(a *AgentProcess) Liveness {
	alive, err := r.Procs.Alive(a.PID)
	if err != nil {
		r.log().Warn("process liveness check failed", "pid", a.PID, "error", err)
		return LivenessUnknown
	}
	if !alive {
		return LivenessStopped
	}
	// The PID is occupied, but PIDs are recycled: only trust it if the
	// occupant matches what we recorded at spawn.
	if a.ProcessStartTime != "" {
		st, err := r.Procs.StartTime(a.PID)
		if err != nil {
			r.log().Warn("process start-time check failed", "pid", a.PID, "error", err)
			return LivenessUnknown
		}
		if st != a.ProcessStartTime {
			return LivenessStopped
		}
	}
	return LivenessRunning
}

func (r *Resolver) resolveTerminal(a *AgentProcess) Liveness {
	backend, err := r.Terminals.Lookup(a.TerminalKind)
	if err != nil {
		r.log().Warn("terminal kind not registered", "kind", a.TerminalKind, "error", err)
		return LivenessUnknown
	}
	present, err := backend.HasWindow(a.TerminalWindowID)
	if err != nil {
		r.log().Warn("terminal window check failed",
			"kind", a.TerminalKind, "window", a.TerminalWindowID, "error", err)
		return LivenessUnknown
	}
	if present {
		return LivenessRunning
	}
	return LivenessStopped
}

// resolveDaemon queries the daemon with a bounded timeout. An
// unreachable daemon degrades to Stopped with a warning: a dead daemon
// must never produce an errored verdict, only "not running".
func (r *Resolver) resolveDaemon(ctx context.Context, a *AgentProcess) Liveness {
	if r.Daemon == nil {
		r.log().Warn("no daemon client configured", "daemon_session", a.DaemonSessionID)
		return LivenessStopped
	}
	ctx, cancel := context.WithTimeout(ctx, daemon.DefaultTimeout)
	defer cancel()

	status, err := r.Daemon.GetSessionStatus(ctx, a.DaemonSessionID)
	if err != nil {
		r.log().Warn("daemon unreachable, treating session as stopped",
			"daemon_session", a.DaemonSessionID, "error", err)
		return LivenessStopped
	}
	switch status {
	case daemon.StatusRunning, daemon.StatusCreating:
		return LivenessRunning
	default:
		return LivenessStopped
	}
}
