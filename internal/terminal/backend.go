// Package terminal provides controller backends for launching agents in
// tracked terminal windows, plus the registry the lifecycle manager
// dispatches through.
//
// A backend owns one terminal kind (tmux, zellij). The lifecycle
// manager never inspects concrete backend types: it looks a backend up
// by name and calls through this interface. Adding a terminal kind
// requires a new implementation plus one registration entry, nothing
// else.
package terminal

import (
	"sort"

	"github.com/kildtools/kild/internal/errs"
)

// Error codes for the terminal subsystem.
const (
	CodeUnknownBackend errs.Code = "TERMINAL_UNKNOWN"
	CodeUnavailable    errs.Code = "TERMINAL_UNAVAILABLE"
	CodeSpawnFailed    errs.Code = "TERMINAL_SPAWN_FAILED"
)

// SpawnConfig describes a window to open.
type SpawnConfig struct {
	// WindowID is the desired window/session identifier. Backends
	// that assign their own IDs may return a different one.
	WindowID string

	// WorkDir is the working directory for the window's command.
	WorkDir string

	// Command is the shell command to run in the window.
	Command string

	// Env vars injected into the window's environment.
	Env map[string]string
}

// Backend controls one kind of terminal.
type Backend interface {
	// Name is the registry key and the terminal_kind recorded on
	// agent handles.
	Name() string

	// IsAvailable reports whether the backend's binary is installed.
	IsAvailable() bool

	// ExecuteSpawn opens a window running cfg.Command and returns the
	// window identifier used for later HasWindow/CloseWindow calls.
	ExecuteSpawn(cfg SpawnConfig) (string, error)

	// HasWindow reports whether the window still exists.
	HasWindow(id string) (bool, error)

	// CloseWindow closes the window. A window that is already gone is
	// success.
	CloseWindow(id string) error
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

// DefaultRegistry returns the registry of built-in terminal backends.
func DefaultRegistry() *Registry {
	return NewRegistry(NewTmuxBackend(), NewZellijBackend())
}

// Lookup returns the backend registered under name.
func (r *Registry) Lookup(name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return nil, errs.NewUser(CodeUnknownBackend, "unknown terminal %q (have: %v)", name, r.Names())
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
