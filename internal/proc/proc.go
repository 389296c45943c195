// Package proc provides local process liveness checks for agent handles.
//
// A stored PID alone is not proof an agent is still running: PIDs are
// recycled by the OS. Callers that recorded a start time at spawn must
// compare it against the current occupant of the PID before trusting a
// liveness verdict (see Inspector.StartTime).
package proc

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Inspector answers questions about local OS processes. The production
// implementation is OS; tests substitute fakes.
type Inspector interface {
	// Alive reports whether a process with the given PID exists.
	Alive(pid int) (bool, error)

	// StartTime returns the process start time as reported by ps,
	// or an error if the process cannot be inspected.
	StartTime(pid int) (string, error)

	// Name returns the process command name (ps comm).
	Name(pid int) (string, error)

	// Kill sends SIGTERM. A process that is already gone is success,
	// not an error.
	Kill(pid int) error
}

// OS implements Inspector against the local process table.
type OS struct{}

var _ Inspector = OS{}

// Alive checks process existence with signal 0, which probes the
// process table without delivering anything. EPERM means the process
// exists but belongs to another user, so it still counts as alive.
func (OS) Alive(pid int) (bool, error) {
	if pid <= 0 {
		return false, fmt.Errorf("invalid pid %d", pid)
	}
	err := unix.Kill(pid, 0)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, unix.ESRCH):
		return false, nil
	case errors.Is(err, unix.EPERM):
		return true, nil
	default:
		return false, fmt.Errorf("checking pid %d: %w", pid, err)
	}
}

// StartTime shells out to ps for a portable start-time string. The
// exact format is OS-dependent; it is only ever compared for equality
// against the value recorded at spawn, never parsed.
func (OS) StartTime(pid int) (string, error) {
	out, err := exec.Command("ps", "-o", "lstart=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return "", fmt.Errorf("reading start time for pid %d: %w", pid, err)
	}
	st := strings.TrimSpace(string(out))
	if st == "" {
		return "", fmt.Errorf("no start time for pid %d (process gone)", pid)
	}
	return st, nil
}

// Name returns the command name for a PID.
func (OS) Name(pid int) (string, error) {
	out, err := exec.Command("ps", "-o", "comm=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return "", fmt.Errorf("reading name for pid %d: %w", pid, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Kill sends SIGTERM. ESRCH (no such process) maps to success so that
// stopping an already-dead agent is idempotent.
func (OS) Kill(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	err := unix.Kill(pid, unix.SIGTERM)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return fmt.Errorf("killing pid %d: %w", pid, err)
}
