// Package session implements kild's session model: a git worktree
// paired with one or more agent processes, identified by project and
// branch. It owns the on-disk session records, the status resolution
// engine, and the lifecycle manager frontends call into.
package session

import (
	"time"
)

// Status is the logical session state stored on the record. There is
// no stored "destroyed" state: a destroyed session is the absence of a
// record.
type Status string

const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
)

// Session is one worktree-scoped unit of work.
type Session struct {
	// ID is a stable unique identifier assigned at create time. It
	// names the session's sidecar files.
	ID string `json:"id"`

	// ProjectID and Branch form the composite lookup key.
	ProjectID string `json:"project_id"`
	Branch    string `json:"branch"`

	// ProjectPath is the main repository's top-level directory, needed
	// for worktree removal at destroy time.
	ProjectPath string `json:"project_path"`

	// WorktreePath is the session's checked-out worktree.
	WorktreePath string `json:"worktree_path"`

	Note string `json:"note,omitempty"`

	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`

	// DefaultAgent is the agent kind used by open when no override is
	// given. Set to the kind used at create time.
	DefaultAgent string `json:"default_agent,omitempty"`

	// PortLow and PortHigh are the port range reserved for this
	// session's agents, zero when none was allocated.
	PortLow  int `json:"port_low,omitempty"`
	PortHigh int `json:"port_high,omitempty"`

	// Agents are the launched agent processes. Multiple concurrent
	// agents are allowed; open appends rather than replaces.
	Agents []AgentProcess `json:"agents"`
}

// AgentProcess is one launched agent instance. An agent carries up to
// three runtime-handle families at once (a local process that was also
// opened in a tracked window has both); resolution checks them in a
// fixed priority order: local PID, then terminal window, then daemon.
type AgentProcess struct {
	// AgentKind names the backend that launched this agent.
	AgentKind string `json:"agent_kind"`

	// Command is the command line the agent was launched with.
	Command string `json:"command_executed"`

	// Local handle.
	PID              int    `json:"pid,omitempty"`
	ProcessName      string `json:"process_name,omitempty"`
	ProcessStartTime string `json:"process_start_time,omitempty"`

	// Terminal handle.
	TerminalKind     string `json:"terminal_kind,omitempty"`
	TerminalWindowID string `json:"terminal_window_id,omitempty"`

	// Daemon handle.
	DaemonSessionID string `json:"daemon_session_id,omitempty"`
}

// HasHandle reports whether any runtime-handle family is present.
func (a *AgentProcess) HasHandle() bool {
	return a.PID > 0 || a.TerminalWindowID != "" || a.DaemonSessionID != ""
}

// ClearHandles drops all three handle families. Called on stop so a
// stopped record never carries dangling PID/window/daemon references.
func (a *AgentProcess) ClearHandles() {
	a.PID = 0
	a.ProcessName = ""
	a.ProcessStartTime = ""
	a.TerminalKind = ""
	a.TerminalWindowID = ""
	a.DaemonSessionID = ""
}

// Activity is the agent's self-reported state, written by an external
// reporter into the status sidecar.
type Activity string

const (
	ActivityIdle            Activity = "idle"
	ActivityWorking         Activity = "working"
	ActivityWaitingForInput Activity = "waiting_for_input"
)

// AgentStatusInfo is the ephemeral status sidecar contents, kept
// separate from the session record and deleted on stop and destroy.
type AgentStatusInfo struct {
	Activity  Activity  `json:"activity"`
	UpdatedAt time.Time `json:"updated_at"`
}
