package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kildtools/kild/internal/errs"
	"github.com/kildtools/kild/internal/lock"
	"github.com/kildtools/kild/internal/util"
)

// Sidecar suffixes. Sidecars are named by session ID, not by the
// record key, so they survive record renames and can be removed
// knowing only the ID.
const (
	statusSuffix = ".status"
	prSuffix     = ".pr"
)

// Store persists session records and their sidecar files in a single
// directory, one JSON file per session keyed by project and branch.
// Writes take an advisory lock so concurrent CLI invocations do not
// interleave read-modify-write cycles on the same record.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// recordPath returns the record file for a project+branch key.
func (s *Store) recordPath(projectID, branch string) string {
	return filepath.Join(s.dir, projectID+"--"+util.BranchSlug(branch)+".json")
}

func (s *Store) lockPath(projectID, branch string) string {
	return s.recordPath(projectID, branch) + ".lock"
}

// Save writes the session record, creating the store directory as
// needed.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating sessions dir: %w", err)
	}
	path := s.recordPath(sess.ProjectID, sess.Branch)
	return lock.WithLock(s.lockPath(sess.ProjectID, sess.Branch), func() error {
		data, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding session record: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing session record: %w", err)
		}
		return nil
	})
}

// Load reads the record for a project+branch key.
func (s *Store) Load(projectID, branch string) (*Session, error) {
	path := s.recordPath(projectID, branch)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NewUser(CodeNotFound, "no session for %s on branch %q", projectID, branch)
		}
		return nil, fmt.Errorf("reading session record: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errs.Wrap(err, CodeRecordCorrupt, "corrupt session record %s", path)
	}
	return &sess, nil
}

// Exists reports whether a record exists for the key.
func (s *Store) Exists(projectID, branch string) bool {
	_, err := os.Stat(s.recordPath(projectID, branch))
	return err == nil
}

// Delete removes the session record and all of its sidecars. A missing
// record is not an error.
func (s *Store) Delete(sess *Session) error {
	s.RemoveSidecars(sess.ID)
	path := s.recordPath(sess.ProjectID, sess.Branch)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session record: %w", err)
	}
	_ = os.Remove(s.lockPath(sess.ProjectID, sess.Branch))
	return nil
}

// List returns every session in the store, sorted by project then
// branch. Records that fail to decode are skipped; a store with one
// corrupt file must not make every other session invisible.
func (s *Store) List() ([]*Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions dir: %w", err)
	}
	var sessions []*Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		sessions = append(sessions, &sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].ProjectID != sessions[j].ProjectID {
			return sessions[i].ProjectID < sessions[j].ProjectID
		}
		return sessions[i].Branch < sessions[j].Branch
	})
	return sessions, nil
}

// statusPath returns the agent-status sidecar for a session ID.
func (s *Store) statusPath(id string) string {
	return filepath.Join(s.dir, id+statusSuffix)
}

// WriteAgentStatus writes the status sidecar for a session ID.
func (s *Store) WriteAgentStatus(id string, info *AgentStatusInfo) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating sessions dir: %w", err)
	}
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding status sidecar: %w", err)
	}
	if err := os.WriteFile(s.statusPath(id), data, 0644); err != nil {
		return fmt.Errorf("writing status sidecar: %w", err)
	}
	return nil
}

// ReadAgentStatus reads the status sidecar. A missing sidecar returns
// (nil, nil): absence is the normal state for a stopped session.
func (s *Store) ReadAgentStatus(id string) (*AgentStatusInfo, error) {
	data, err := os.ReadFile(s.statusPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading status sidecar: %w", err)
	}
	var info AgentStatusInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding status sidecar: %w", err)
	}
	return &info, nil
}

// RemoveSidecars deletes every sidecar for a session ID. Best effort:
// a sidecar that cannot be removed is skipped, and a missing sidecar
// is the expected case.
func (s *Store) RemoveSidecars(id string) {
	for _, suffix := range []string{statusSuffix, prSuffix} {
		_ = os.Remove(filepath.Join(s.dir, id+suffix))
	}
}
