package manifest

import "testing"

func TestMigrate_LegacyStatuses(t *testing.T) {
	tests := []struct {
		in   Status
		want Status
	}{
		{"done", StatusCompleted},
		{"error", StatusFailed},
		{"terminated", StatusKilled},
		{"starting", StatusSpawning},
		{"running", StatusRunning},
		{"completed", StatusCompleted},
		{"some-future-status", StatusLost},
		{"", StatusLost},
	}
	for _, tt := range tests {
		m := &Manifest{
			Version: CurrentVersion,
			Worktrees: map[string]*Worktree{
				"wt-abc123": {
					ID:     "wt-abc123",
					Status: WorktreeActive,
					Agents: map[string]*Agent{
						"ag-aaaa1111": {ID: "ag-aaaa1111", Status: tt.in},
					},
				},
			},
		}
		migrate(m)
		got := m.Worktrees["wt-abc123"].Agents["ag-aaaa1111"].Status
		if got != tt.want {
			t.Errorf("migrate status %q = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMigrate_FillsNilMaps(t *testing.T) {
	m := &Manifest{
		Worktrees: map[string]*Worktree{
			"wt-abc123": {ID: "wt-abc123"},
		},
	}
	migrate(m)
	if m.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", m.Version, CurrentVersion)
	}
	wt := m.Worktrees["wt-abc123"]
	if wt.Agents == nil {
		t.Error("nil agent map not filled")
	}
	if wt.Status != WorktreeActive {
		t.Errorf("empty worktree status = %q, want active", wt.Status)
	}
}

func TestMigrate_NilWorktrees(t *testing.T) {
	m := &Manifest{}
	migrate(m)
	if m.Worktrees == nil {
		t.Error("nil worktree map not filled")
	}
}

func TestMigrate_MasterAgents(t *testing.T) {
	m := &Manifest{
		Version:   CurrentVersion,
		Worktrees: map[string]*Worktree{},
		Agents: map[string]*Agent{
			"ag-aaaa1111": {ID: "ag-aaaa1111", Status: "terminated"},
		},
	}
	migrate(m)
	if got := m.Agents["ag-aaaa1111"].Status; got != StatusKilled {
		t.Errorf("master agent status = %q, want killed", got)
	}
}
