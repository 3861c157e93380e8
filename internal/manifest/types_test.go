package manifest

import (
	"testing"
	"time"
)

func TestStatus_Terminal(t *testing.T) {
	terminal := []Status{StatusExited, StatusGone, StatusCompleted, StatusFailed, StatusKilled, StatusLost}
	live := []Status{StatusSpawning, StatusRunning, StatusWaiting}

	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
		if s.Live() {
			t.Errorf("%s.Live() = true, want false", s)
		}
	}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
		if !s.Live() {
			t.Errorf("%s.Live() = false, want true", s)
		}
	}
	// idle is neither live nor terminal
	if StatusIdle.Terminal() || StatusIdle.Live() {
		t.Error("idle must be neither live nor terminal")
	}
}

func TestMarkTerminal(t *testing.T) {
	ag := &Agent{ID: "ag-abcd1234", Status: StatusRunning}
	ag.MarkTerminal(StatusKilled)
	if ag.Status != StatusKilled {
		t.Errorf("status = %s, want killed", ag.Status)
	}
	if ag.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped")
	}

	// Terminal statuses are monotone; a second mark is a no-op.
	first := *ag.CompletedAt
	ag.MarkTerminal(StatusGone)
	if ag.Status != StatusKilled {
		t.Errorf("terminal status changed to %s, want killed", ag.Status)
	}
	if !ag.CompletedAt.Equal(first) {
		t.Error("CompletedAt restamped on already-terminal agent")
	}
}

func TestManifest_WorktreeLookup(t *testing.T) {
	m := New("/proj", "ppg-proj")
	wt := &Worktree{ID: "wt-abc123", Name: "fix-auth", Status: WorktreeActive, Agents: map[string]*Agent{}}
	m.Worktrees[wt.ID] = wt

	if got := m.Worktree("wt-abc123"); got != wt {
		t.Error("lookup by id failed")
	}
	if got := m.Worktree("fix-auth"); got != wt {
		t.Error("lookup by name failed")
	}
	if got := m.Worktree("nope"); got != nil {
		t.Errorf("lookup of missing worktree = %v, want nil", got)
	}
}

func TestManifest_AgentLookup(t *testing.T) {
	m := New("/proj", "ppg-proj")
	wtAgent := &Agent{ID: "ag-aaaa1111"}
	m.Worktrees["wt-abc123"] = &Worktree{
		ID:     "wt-abc123",
		Agents: map[string]*Agent{wtAgent.ID: wtAgent},
	}
	master := &Agent{ID: "ag-bbbb2222"}
	m.Agents = map[string]*Agent{master.ID: master}

	wt, ag := m.Agent("ag-aaaa1111")
	if wt == nil || ag != wtAgent {
		t.Error("worktree agent lookup failed")
	}
	wt, ag = m.Agent("ag-bbbb2222")
	if wt != nil {
		t.Error("master agent lookup returned a worktree")
	}
	if ag != master {
		t.Error("master agent lookup failed")
	}
	if _, ag := m.Agent("ag-cccc3333"); ag != nil {
		t.Error("missing agent lookup returned a record")
	}
}

func TestManifest_BranchInUse(t *testing.T) {
	m := New("/proj", "ppg-proj")
	m.Worktrees["wt-abc123"] = &Worktree{ID: "wt-abc123", Branch: "ppg/fix", Status: WorktreeActive}
	m.Worktrees["wt-def456"] = &Worktree{ID: "wt-def456", Branch: "ppg/old", Status: WorktreeCleaned}

	if !m.BranchInUse("ppg/fix") {
		t.Error("active worktree's branch reported free")
	}
	// Cleaned records release their branch.
	if m.BranchInUse("ppg/old") {
		t.Error("cleaned worktree's branch reported in use")
	}
	if m.BranchInUse("main") {
		t.Error("unknown branch reported in use")
	}
}

func TestWorktree_LiveAgents(t *testing.T) {
	wt := &Worktree{
		ID: "wt-abc123",
		Agents: map[string]*Agent{
			"ag-aaaa1111": {ID: "ag-aaaa1111", Status: StatusRunning},
			"ag-bbbb2222": {ID: "ag-bbbb2222", Status: StatusKilled},
			"ag-cccc3333": {ID: "ag-cccc3333", Status: StatusWaiting},
			"ag-dddd4444": {ID: "ag-dddd4444", Status: StatusIdle},
		},
	}
	live := wt.LiveAgents()
	if len(live) != 2 {
		t.Errorf("LiveAgents() returned %d agents, want 2", len(live))
	}
	for _, ag := range live {
		if !ag.Status.Live() {
			t.Errorf("LiveAgents() included %s agent %s", ag.Status, ag.ID)
		}
	}
}

func TestNew_Fields(t *testing.T) {
	before := time.Now().UTC()
	m := New("/proj", "ppg-proj")
	if m.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", m.Version, CurrentVersion)
	}
	if m.ProjectRoot != "/proj" || m.SessionName != "ppg-proj" {
		t.Error("project root or session name not recorded")
	}
	if m.Worktrees == nil {
		t.Error("Worktrees map not initialized")
	}
	if m.CreatedAt.Before(before) {
		t.Error("CreatedAt not stamped")
	}
}
