package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kildtools/kild/internal/agent"
	"github.com/kildtools/kild/internal/errs"
	"github.com/kildtools/kild/internal/proc"
	"github.com/kildtools/kild/internal/util"
	"github.com/kildtools/kild/internal/wait"
)

// Port allocation defaults for new sessions.
const (
	portBase      = 40000
	portRangeSize = 10
)

// AgentLookup resolves an agent kind to its backend. *agent.Registry
// satisfies it.
type AgentLookup interface {
	Lookup(name string) (agent.Backend, error)
}

// WorktreeOps is the slice of git the manager needs. *git.Git
// satisfies it.
type WorktreeOps interface {
	ProjectID(repo string) (string, error)
	TopLevel(repo string) (string, error)
	AddWorktree(repo, path, branch string) error
	RemoveWorktree(repo, path string, force bool) error
}

// Deps are the manager's collaborators, injected so tests can
// substitute fakes for every external resource.
type Deps struct {
	Store     *Store
	Agents    AgentLookup
	Terminals TerminalLookup
	Resolver  *Resolver
	Worktrees WorktreeOps
	Procs     proc.Inspector

	// Ports allocates a free port range; nil disables allocation.
	Ports func(base, size int) (int, error)

	// WorktreesDir is where session worktrees are created.
	WorktreesDir string

	// DefaultAgent and DefaultTerminal are used when an operation does
	// not name one.
	DefaultAgent    string
	DefaultTerminal string

	Log *slog.Logger
}

// Manager orchestrates session lifecycle transitions. Operations are
// synchronous and block for the duration of spawn/kill and file I/O.
type Manager struct {
	deps Deps
}

// NewManager creates a lifecycle manager.
func NewManager(deps Deps) *Manager {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Manager{deps: deps}
}

// CreateOptions parameterize Create.
type CreateOptions struct {
	// ProjectPath is any path inside the main repository.
	ProjectPath string

	// Branch names the session. The worktree is checked out on it,
	// creating it if needed.
	Branch string

	// AgentKind selects the agent backend; empty means the default.
	AgentKind string

	// TerminalKind selects the terminal backend; empty means the
	// default, "none" disables terminal hosting.
	TerminalKind string

	// Note is optional free text stored on the record.
	Note string
}

// Create allocates a worktree and a port range, spawns the first
// agent, and persists the new session record. Nothing is persisted
// until every step has succeeded; on failure the freshly created
// worktree is removed again.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*Session, error) {
	projectID, err := m.deps.Worktrees.ProjectID(opts.ProjectPath)
	if err != nil {
		return nil, err
	}
	projectPath, err := m.deps.Worktrees.TopLevel(opts.ProjectPath)
	if err != nil {
		return nil, err
	}
	if m.deps.Store.Exists(projectID, opts.Branch) {
		return nil, errs.NewUser(CodeExists,
			"session for %s on branch %q already exists (use open)", projectID, opts.Branch)
	}

	slug := util.BranchSlug(opts.Branch)
	worktreePath := filepath.Join(m.deps.WorktreesDir, projectID, slug)
	if err := m.deps.Worktrees.AddWorktree(projectPath, worktreePath, opts.Branch); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		Branch:       opts.Branch,
		ProjectPath:  projectPath,
		WorktreePath: worktreePath,
		Note:         opts.Note,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	if m.deps.Ports != nil {
		low, err := m.deps.Ports(portBase, portRangeSize)
		if err != nil {
			m.rollbackWorktree(projectPath, worktreePath)
			return nil, fmt.Errorf("allocating port range: %w", err)
		}
		sess.PortLow = low
		sess.PortHigh = low + portRangeSize - 1
	}

	agentKind := opts.AgentKind
	if agentKind == "" {
		agentKind = m.deps.DefaultAgent
	}
	launched, err := m.spawnAgent(ctx, sess, agentKind, opts.TerminalKind)
	if err != nil {
		m.rollbackWorktree(projectPath, worktreePath)
		return nil, err
	}

	sess.DefaultAgent = agentKind
	sess.Agents = []AgentProcess{*launched}
	sess.LastActivity = time.Now().UTC()
	if err := m.deps.Store.Save(sess); err != nil {
		m.rollbackWorktree(projectPath, worktreePath)
		return nil, err
	}
	m.deps.Log.Info("session created",
		"project", projectID, "branch", opts.Branch, "agent", agentKind)
	return sess, nil
}

// rollbackWorktree is best effort: a failed create should not leave a
// half-built worktree behind, but failing to clean it up must not mask
// the original error.
func (m *Manager) rollbackWorktree(projectPath, worktreePath string) {
	if err := m.deps.Worktrees.RemoveWorktree(projectPath, worktreePath, true); err != nil {
		m.deps.Log.Warn("cleanup of new worktree failed", "path", worktreePath, "error", err)
	}
}

// Open adds a new agent to an existing session without touching the
// agents already recorded: two consecutive opens leave two processes
// independently running.
func (m *Manager) Open(ctx context.Context, projectID, branch, agentOverride string) (*Session, error) {
	sess, err := m.deps.Store.Load(projectID, branch)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(sess.WorktreePath); err != nil {
		return nil, errs.NewUser(CodeWorktreeMissing,
			"worktree %s no longer exists (destroy the session and recreate it)", sess.WorktreePath)
	}

	agentKind := agentOverride
	if agentKind == "" {
		agentKind = sess.DefaultAgent
	}
	if agentKind == "" {
		agentKind = m.deps.DefaultAgent
	}

	launched, err := m.spawnAgent(ctx, sess, agentKind, "")
	if err != nil {
		return nil, err
	}
	sess.Agents = append(sess.Agents, *launched)
	sess.Status = StatusActive
	sess.LastActivity = time.Now().UTC()
	if err := m.deps.Store.Save(sess); err != nil {
		return nil, err
	}
	m.deps.Log.Info("agent added to session",
		"project", projectID, "branch", branch, "agent", agentKind, "agents", len(sess.Agents))
	return sess, nil
}

// spawnAgent launches one agent for sess and returns the AgentProcess
// to record. terminalKind "" means the configured default; "none"
// forces a bare local process.
func (m *Manager) spawnAgent(ctx context.Context, sess *Session, agentKind, terminalKind string) (*AgentProcess, error) {
	backend, err := m.deps.Agents.Lookup(agentKind)
	if err != nil {
		return nil, err
	}

	cfg := agent.SpawnConfig{
		WorkDir: sess.WorktreePath,
		Env: map[string]string{
			"KILD_SESSION": sess.ID,
			"KILD_BRANCH":  sess.Branch,
		},
		PortLow:  sess.PortLow,
		PortHigh: sess.PortHigh,
	}

	if terminalKind == "" {
		terminalKind = m.deps.DefaultTerminal
	}
	if terminalKind != "" && terminalKind != "none" && m.deps.Terminals != nil {
		term, err := m.deps.Terminals.Lookup(terminalKind)
		if err != nil {
			return nil, err
		}
		if term.IsAvailable() {
			cfg.Terminal = term
			cfg.WindowID = windowID(sess, len(sess.Agents))
		} else {
			m.deps.Log.Warn("terminal unavailable, spawning agent locally", "terminal", terminalKind)
		}
	}

	sp, err := backend.Spawn(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &AgentProcess{
		AgentKind:        agentKind,
		Command:          sp.Command,
		PID:              sp.PID,
		ProcessName:      sp.ProcessName,
		ProcessStartTime: sp.ProcessStartTime,
		TerminalKind:     sp.TerminalKind,
		TerminalWindowID: sp.WindowID,
		DaemonSessionID:  sp.DaemonSessionID,
	}, nil
}

// windowID names the terminal window for the n-th agent of a session.
func windowID(sess *Session, n int) string {
	id := fmt.Sprintf("kild-%s-%s", sess.ProjectID, util.BranchSlug(sess.Branch))
	if n > 0 {
		id = fmt.Sprintf("%s-%d", id, n)
	}
	return id
}

// Stop terminates every agent's processes and windows, clears all
// runtime handles, removes the status sidecar, and persists the record
// as Stopped. Stop is idempotent: agents whose processes are already
// gone count as successfully stopped.
//
// A daemon handle's remote session is not torn down here. The handle
// is cleared from the record; the daemon owns its own lifecycle.
func (m *Manager) Stop(ctx context.Context, projectID, branch string) error {
	sess, err := m.deps.Store.Load(projectID, branch)
	if err != nil {
		return err
	}
	if err := m.teardownAgents(sess); err != nil {
		return err
	}
	for i := range sess.Agents {
		sess.Agents[i].ClearHandles()
	}
	m.deps.Store.RemoveSidecars(sess.ID)
	sess.Status = StatusStopped
	sess.LastActivity = time.Now().UTC()
	if err := m.deps.Store.Save(sess); err != nil {
		return err
	}
	m.deps.Log.Info("session stopped", "project", projectID, "branch", branch)
	return nil
}

// teardownAgents closes windows and kills processes for every agent,
// in that order. Window close is best effort; a kill failure for a
// process that is genuinely still alive aborts the operation so the
// zombie PID stays visible in the record.
func (m *Manager) teardownAgents(sess *Session) error {
	for i := range sess.Agents {
		a := &sess.Agents[i]
		if a.TerminalWindowID != "" && m.deps.Terminals != nil {
			if backend, err := m.deps.Terminals.Lookup(a.TerminalKind); err == nil {
				if err := backend.CloseWindow(a.TerminalWindowID); err != nil {
					m.deps.Log.Warn("closing terminal window failed",
						"kind", a.TerminalKind, "window", a.TerminalWindowID, "error", err)
				}
			} else {
				m.deps.Log.Warn("terminal kind not registered", "kind", a.TerminalKind)
			}
		}
		if a.PID > 0 {
			if err := m.killAgent(a); err != nil {
				return err
			}
		}
	}
	return nil
}

// killAgent kills the agent's recorded PID, first verifying the PID is
// still the process we spawned. A recycled PID is left alone and
// treated as already gone.
func (m *Manager) killAgent(a *AgentProcess) error {
	if a.ProcessStartTime != "" {
		st, err := m.deps.Procs.StartTime(a.PID)
		if err != nil || st != a.ProcessStartTime {
			return nil
		}
	}
	if err := m.deps.Procs.Kill(a.PID); err != nil {
		return errs.Wrap(err, CodeKillFailed, "killing agent process %d", a.PID)
	}
	return nil
}

// Destroy stops the session's agents, removes the worktree, and
// deletes the record and sidecars. Without force, a worktree holding
// uncommitted changes aborts the destroy and leaves the record intact.
// Force relaxes only the worktree safety check, never a kill failure.
func (m *Manager) Destroy(ctx context.Context, projectID, branch string, force bool) error {
	sess, err := m.deps.Store.Load(projectID, branch)
	if err != nil {
		return err
	}
	if err := m.teardownAgents(sess); err != nil {
		return err
	}
	if _, statErr := os.Stat(sess.WorktreePath); statErr == nil || !os.IsNotExist(statErr) {
		if err := m.deps.Worktrees.RemoveWorktree(sess.ProjectPath, sess.WorktreePath, force); err != nil {
			return err
		}
	}
	if err := m.deps.Store.Delete(sess); err != nil {
		return err
	}
	m.deps.Log.Info("session destroyed", "project", projectID, "branch", branch, "force", force)
	return nil
}

// BulkResult collects per-session outcomes of a batch operation.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    map[string]error
}

// StopAll stops every active session, continuing past individual
// failures. Each successful stop's effects persist regardless of other
// sessions' failures.
func (m *Manager) StopAll(ctx context.Context) (*BulkResult, error) {
	sessions, err := m.deps.Store.List()
	if err != nil {
		return nil, err
	}
	res := &BulkResult{Errors: make(map[string]error)}
	for _, sess := range sessions {
		if sess.Status != StatusActive {
			continue
		}
		key := sess.ProjectID + "/" + sess.Branch
		if err := m.Stop(ctx, sess.ProjectID, sess.Branch); err != nil {
			res.Failed++
			res.Errors[key] = err
			m.deps.Log.Warn("stopping session failed", "session", key, "error", err)
			continue
		}
		res.Succeeded++
	}
	return res, nil
}

// List returns every stored session.
func (m *Manager) List() ([]*Session, error) {
	return m.deps.Store.List()
}

// AgentStatus reads the session's status sidecar. A missing sidecar
// returns (nil, nil).
func (m *Manager) AgentStatus(id string) (*AgentStatusInfo, error) {
	return m.deps.Store.ReadAgentStatus(id)
}

// Get loads a session and resolves its live status.
func (m *Manager) Get(ctx context.Context, projectID, branch string) (*Session, Resolution, error) {
	sess, err := m.deps.Store.Load(projectID, branch)
	if err != nil {
		return nil, Resolution{}, err
	}
	return sess, m.deps.Resolver.Resolve(ctx, sess), nil
}

// WaitRunning polls status resolution until the session resolves
// Running or the timeout expires.
func (m *Manager) WaitRunning(ctx context.Context, projectID, branch string, timeout time.Duration) (Resolution, error) {
	sess, err := m.deps.Store.Load(projectID, branch)
	if err != nil {
		return Resolution{}, err
	}
	res, err := wait.PollContext(ctx, func() (Resolution, error) {
		r := m.deps.Resolver.Resolve(ctx, sess)
		if r.Status != LivenessRunning {
			return Resolution{}, wait.Retryable(fmt.Errorf("session %s/%s not running yet", projectID, branch))
		}
		return r, nil
	}, timeout)
	if err != nil {
		return Resolution{}, err
	}
	return res.Value, nil
}
