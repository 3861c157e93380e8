package manifest

import "testing"

func TestDeriveLifecycle(t *testing.T) {
	wt := func(status WorktreeStatus, statuses ...Status) *Worktree {
		w := &Worktree{ID: "wt-abc123", Status: status, Agents: map[string]*Agent{}}
		for i, s := range statuses {
			id := string(rune('a'+i)) + "g"
			w.Agents[id] = &Agent{ID: id, Status: s}
		}
		return w
	}

	tests := []struct {
		name string
		wt   *Worktree
		want Lifecycle
	}{
		{"merged worktree", wt(WorktreeMerged, StatusCompleted), LifecycleMerged},
		{"cleaned worktree", wt(WorktreeCleaned), LifecycleCleaned},
		{"merging worktree", wt(WorktreeMerging, StatusIdle), LifecycleMerging},
		{"no agents", wt(WorktreeActive), LifecycleEmpty},
		{"one running", wt(WorktreeActive, StatusRunning), LifecycleBusy},
		{"spawning counts as busy", wt(WorktreeActive, StatusSpawning), LifecycleBusy},
		{"waiting counts as busy", wt(WorktreeActive, StatusWaiting, StatusIdle), LifecycleBusy},
		{"all idle", wt(WorktreeActive, StatusIdle, StatusIdle), LifecycleReady},
		{"exited is ready", wt(WorktreeActive, StatusExited), LifecycleReady},
		{"completed is ready", wt(WorktreeActive, StatusCompleted), LifecycleReady},
		{"failed needs attention", wt(WorktreeActive, StatusFailed), LifecycleAttention},
		{"lost needs attention", wt(WorktreeActive, StatusLost), LifecycleAttention},
		{"mixed idle and failed", wt(WorktreeActive, StatusIdle, StatusFailed), LifecycleAttention},
		{"live beats failed", wt(WorktreeActive, StatusRunning, StatusFailed), LifecycleBusy},
		{"all killed", wt(WorktreeActive, StatusKilled, StatusKilled), LifecycleIdle},
		{"gone only", wt(WorktreeActive, StatusGone), LifecycleIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveLifecycle(tt.wt); got != tt.want {
				t.Errorf("DeriveLifecycle() = %s, want %s", got, tt.want)
			}
		})
	}
}
