// Package agent defines the AI agent backends kild can launch inside a
// session, and the registry used to select one by name.
//
// An agent backend knows how to start one kind of agent process and
// what handles to record for it so the session can later be resolved
// and stopped. Backends prefer spawning inside a terminal window when
// one is configured, falling back to a detached local process.
package agent

import (
	"context"
	"sort"

	"github.com/kildtools/kild/internal/errs"
	"github.com/kildtools/kild/internal/terminal"
)

// Error codes for the agent subsystem.
const (
	CodeUnknownAgent errs.Code = "AGENT_UNKNOWN"
	CodeUnavailable  errs.Code = "AGENT_UNAVAILABLE"
	CodeSpawnFailed  errs.Code = "AGENT_SPAWN_FAILED"
)

// SpawnConfig describes where and how to launch an agent.
type SpawnConfig struct {
	// WorkDir is the session worktree the agent runs in.
	WorkDir string

	// Command overrides the backend's default launch command when
	// non-empty.
	Command string

	// Terminal, when non-nil, hosts the agent in a tracked terminal
	// window instead of a bare local process.
	Terminal terminal.Backend

	// WindowID is the window identifier to use with Terminal.
	WindowID string

	// Env vars injected into the agent's environment.
	Env map[string]string

	// PortLow and PortHigh, when non-zero, are a reserved port range
	// exported to the agent as KILD_PORT_LOW and KILD_PORT_HIGH.
	PortLow  int
	PortHigh int
}

// Spawned holds the handles recorded for a freshly launched agent.
// Which fields are set depends on how the agent was hosted: a terminal
// spawn always sets TerminalKind and WindowID, and also the process
// fields when the backend can surface the window's PID; a local spawn
// sets only the process fields.
type Spawned struct {
	PID              int
	ProcessStartTime string
	ProcessName      string
	TerminalKind     string
	WindowID         string
	DaemonSessionID  string
	Command          string
}

// Backend launches one kind of agent.
type Backend interface {
	// Name is the registry key and the agent name recorded on sessions.
	Name() string

	// IsAvailable reports whether the agent binary is installed.
	IsAvailable() bool

	// DefaultCommand is the launch command used when SpawnConfig.Command
	// is empty.
	DefaultCommand() string

	// Spawn launches the agent and returns the handles to record.
	Spawn(ctx context.Context, cfg SpawnConfig) (*Spawned, error)
}

// Registry is a fixed name→backend mapping, built once at process
// start and never mutated afterward.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry builds a registry from the given backends.
func NewRegistry(backends ...Backend) *Registry {
	m := make(map[string]Backend, len(backends))
	for _, b := range backends {
		m[b.Name()] = b
	}
	return &Registry{backends: m}
}

// DefaultRegistry returns the registry of built-in agent backends.
func DefaultRegistry() *Registry {
	return NewRegistry(NewClaude(), NewCodex(), NewOpenCode())
}

// Lookup returns the backend registered under name.
func (r *Registry) Lookup(name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return nil, errs.NewUser(CodeUnknownAgent, "unknown agent %q (have: %v)", name, r.Names())
	}
	return b, nil
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
