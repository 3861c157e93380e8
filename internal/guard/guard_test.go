package guard

import (
	"testing"

	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/tmux"
)

// guardAt builds a guard as if the caller's pane were selfPane inside a
// session with the given panes.
func guardAt(selfPane string, panes map[string]tmux.PaneInfo) Guard {
	return Guard{SelfPane: selfPane, Panes: panes}
}

var testPanes = map[string]tmux.PaneInfo{
	"%1": {ID: "%1", WindowIndex: 0, WindowName: "ppg"},
	"%2": {ID: "%2", WindowIndex: 1, WindowName: "wt-abc123"},
	"%3": {ID: "%3", WindowIndex: 1, WindowName: "wt-abc123"},
	"%4": {ID: "%4", WindowIndex: 2, WindowName: "wt-def456"},
}

func TestTargetIsSelf(t *testing.T) {
	g := guardAt("%2", testPanes)

	tests := []struct {
		target string
		want   bool
	}{
		{"%2", true},
		{"%3", false},
		{"ppg-demo:1", true},
		{"ppg-demo:1.0", true},
		{"ppg-demo:2", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := g.TargetIsSelf(tt.target); got != tt.want {
			t.Errorf("TargetIsSelf(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestTargetIsSelf_OutsideTmux(t *testing.T) {
	g := guardAt("", nil)
	if g.TargetIsSelf("%2") || g.TargetIsSelf("ppg-demo:1") {
		t.Error("caller outside tmux can never be self-affected")
	}
}

func TestWouldAffectWorktree(t *testing.T) {
	g := guardAt("%2", testPanes)

	hosting := &manifest.Worktree{
		ID:         "wt-abc123",
		TmuxWindow: "ppg-demo:1",
		Agents:     map[string]*manifest.Agent{},
	}
	if !g.WouldAffectWorktree(hosting) {
		t.Error("worktree owning the caller's window not detected")
	}

	other := &manifest.Worktree{
		ID:         "wt-def456",
		TmuxWindow: "ppg-demo:2",
		Agents: map[string]*manifest.Agent{
			"ag-aaaa1111": {ID: "ag-aaaa1111", TmuxTarget: "%4"},
		},
	}
	if g.WouldAffectWorktree(other) {
		t.Error("unrelated worktree flagged as self-hosting")
	}

	// An agent pane equal to the caller's pane flags the worktree even
	// when the window target does not.
	byAgent := &manifest.Worktree{
		ID:         "wt-def456",
		TmuxWindow: "ppg-demo:2",
		Agents: map[string]*manifest.Agent{
			"ag-bbbb2222": {ID: "ag-bbbb2222", TmuxTarget: "%2"},
		},
	}
	if !g.WouldAffectWorktree(byAgent) {
		t.Error("worktree owning the caller's pane via an agent not detected")
	}

	// Window-name convention: the caller sits in a window named after
	// the worktree even though no stored target references it.
	byName := &manifest.Worktree{
		ID:     "wt-abc123",
		Agents: map[string]*manifest.Agent{},
	}
	if !g.WouldAffectWorktree(byName) {
		t.Error("worktree matching the caller's window name not detected")
	}
}

func TestExcludeAgents(t *testing.T) {
	g := guardAt("%2", testPanes)

	agents := []*manifest.Agent{
		{ID: "ag-aaaa1111", TmuxTarget: "%2"},
		{ID: "ag-bbbb2222", TmuxTarget: "%4"},
		{ID: "ag-cccc3333", TmuxTarget: "ppg-demo:1"},
	}
	safe, skipped := g.ExcludeAgents(agents)
	if len(safe) != 1 || safe[0].ID != "ag-bbbb2222" {
		t.Errorf("safe = %v, want only ag-bbbb2222", idsOf(safe))
	}
	if len(skipped) != 2 {
		t.Errorf("skipped = %v, want ag-aaaa1111 and ag-cccc3333", idsOf(skipped))
	}
}

func TestExcludeAgents_OutsideTmux(t *testing.T) {
	g := guardAt("", nil)
	agents := []*manifest.Agent{
		{ID: "ag-aaaa1111", TmuxTarget: "%2"},
	}
	safe, skipped := g.ExcludeAgents(agents)
	if len(safe) != 1 || len(skipped) != 0 {
		t.Error("outside tmux every agent is safe to kill")
	}
}

func idsOf(agents []*manifest.Agent) []string {
	out := make([]string, len(agents))
	for i, ag := range agents {
		out[i] = ag.ID
	}
	return out
}
