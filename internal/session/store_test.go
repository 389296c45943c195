package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kildtools/kild/internal/errs"
)

func testSession() *Session {
	return &Session{
		ID:           "11111111-2222-3333-4444-555555555555",
		ProjectID:    "myproj",
		Branch:       "feature/login",
		ProjectPath:  "/repos/myproj",
		WorktreePath: "/worktrees/myproj/feature-login",
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
		Agents: []AgentProcess{{
			AgentKind: "claude",
			Command:   "claude",
			PID:       4242,
		}},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := testSession()

	if err := store.Save(sess); err != nil {
		t.Fatalf("Save error = %v", err)
	}
	got, err := store.Load("myproj", "feature/login")
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if got.ID != sess.ID || got.WorktreePath != sess.WorktreePath {
		t.Errorf("Load = %+v, want %+v", got, sess)
	}
	if len(got.Agents) != 1 || got.Agents[0].PID != 4242 {
		t.Errorf("Agents = %+v", got.Agents)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load("nope", "main")
	if err == nil {
		t.Fatal("Load of missing session should fail")
	}
	if !errs.Is(err, CodeNotFound) || !errs.IsUser(err) {
		t.Errorf("want user error %s, got %v", CodeNotFound, err)
	}
}

func TestStoreLoadToleratesUnknownFields(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	sess := testSession()
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	// Simulate a record written by a newer version with extra fields.
	path := filepath.Join(dir, "myproj--feature-login.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	raw["future_field"] = "whatever"
	data, _ = json.Marshal(raw)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load("myproj", "feature/login")
	if err != nil {
		t.Fatalf("Load with unknown fields error = %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("ID = %q", got.ID)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	path := filepath.Join(dir, "myproj--main.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := store.Load("myproj", "main")
	if !errs.Is(err, CodeRecordCorrupt) {
		t.Errorf("want %s, got %v", CodeRecordCorrupt, err)
	}
}

func TestStoreListSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	if err := store.Save(testSession()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad--x.json"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	sessions, err := store.List()
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("List = %d sessions, want 1", len(sessions))
	}
}

func TestStoreDeleteRemovesSidecars(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := testSession()
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteAgentStatus(sess.ID, &AgentStatusInfo{Activity: ActivityWorking, UpdatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(sess); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	info, err := store.ReadAgentStatus(sess.ID)
	if err != nil {
		t.Fatalf("ReadAgentStatus error = %v", err)
	}
	if info != nil {
		t.Errorf("sidecar survived delete: %+v", info)
	}
	if store.Exists("myproj", "feature/login") {
		t.Error("record survived delete")
	}
}

func TestAgentStatusSidecarRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	info, err := store.ReadAgentStatus("absent-id")
	if err != nil || info != nil {
		t.Fatalf("missing sidecar should read as (nil, nil), got (%v, %v)", info, err)
	}

	want := &AgentStatusInfo{Activity: ActivityWaitingForInput, UpdatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := store.WriteAgentStatus("some-id", want); err != nil {
		t.Fatal(err)
	}
	got, err := store.ReadAgentStatus("some-id")
	if err != nil {
		t.Fatal(err)
	}
	if got.Activity != want.Activity {
		t.Errorf("Activity = %q, want %q", got.Activity, want.Activity)
	}
}
