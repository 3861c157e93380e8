package agent

import (
	"testing"
	"time"

	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/tmux"
)

func TestIsWaiting(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"yn marker", "Doing work\nDelete all files? (y/n)", true},
		{"bracket marker", "Apply changes? [y/N]", true},
		{"continue question", "Press enter to continue?", true},
		{"trailing blank lines", "Proceed? (yes/no)\n\n\n", true},
		{"marker not at tail", "asked (y/n) earlier\nnow compiling", false},
		{"plain output", "building...\ndone", false},
		{"empty", "", false},
		{"only blanks", "\n\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWaiting(tt.content); got != tt.want {
				t.Errorf("isWaiting(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestFindPane(t *testing.T) {
	panes := map[string]tmux.PaneInfo{
		"%1": {ID: "%1", WindowIndex: 0},
		"%2": {ID: "%2", WindowIndex: 1},
	}

	if p := findPane(panes, "%2"); p == nil || p.ID != "%2" {
		t.Error("pane id lookup failed")
	}
	if p := findPane(panes, "%9"); p != nil {
		t.Error("missing pane id matched")
	}
	if p := findPane(panes, "ppg-demo:1"); p == nil || p.ID != "%2" {
		t.Error("window target did not match its pane")
	}
	if p := findPane(panes, "ppg-demo:7"); p != nil {
		t.Error("unknown window index matched")
	}
	if p := findPane(panes, ""); p != nil {
		t.Error("empty target matched")
	}
}

// fixtureProbe builds a probe whose capture returns the given content.
func fixtureProbe(now time.Time, quiescence time.Duration, content string) *probe {
	return &probe{
		cache:      &activityCache{Agents: make(map[string]activityEntry)},
		now:        now,
		quiescence: quiescence,
		capture:    func(string) (string, error) { return content, nil },
	}
}

func TestClassify_Interactive(t *testing.T) {
	now := time.Now().UTC()
	pane := &tmux.PaneInfo{ID: "%1", Command: "claude"}
	ag := &manifest.Agent{ID: "ag-aaaa1111"}

	p := fixtureProbe(now, 30*time.Second, "working on it")
	if got := p.classify(ag, pane); got != manifest.StatusRunning {
		t.Errorf("first observation = %v, want running", got)
	}

	// Same content before the quiescence window: still running.
	p.now = now.Add(10 * time.Second)
	if got := p.classify(ag, pane); got != manifest.StatusRunning {
		t.Errorf("within quiescence = %v, want running", got)
	}

	// Same content past the quiescence window: idle.
	p.now = now.Add(40 * time.Second)
	if got := p.classify(ag, pane); got != manifest.StatusIdle {
		t.Errorf("past quiescence = %v, want idle", got)
	}
}

func TestClassify_InteractiveWaiting(t *testing.T) {
	p := fixtureProbe(time.Now().UTC(), 30*time.Second, "Apply changes? [y/N]")
	pane := &tmux.PaneInfo{ID: "%1", Command: "claude"}
	if got := p.classify(&manifest.Agent{ID: "ag-aaaa1111"}, pane); got != manifest.StatusWaiting {
		t.Errorf("classify() = %v, want waiting", got)
	}
}

func TestClassify_NonInteractive(t *testing.T) {
	// Non-interactive agents run to completion; quiescent pane content
	// and confirmation-looking output never move them off running.
	now := time.Now().UTC()
	pane := &tmux.PaneInfo{ID: "%1", Command: "aider"}
	ag := &manifest.Agent{ID: "ag-aaaa1111", NonInteractive: true}

	p := fixtureProbe(now, 30*time.Second, "Apply changes? [y/N]")
	if got := p.classify(ag, pane); got != manifest.StatusRunning {
		t.Errorf("classify() = %v, want running", got)
	}
	p.now = now.Add(5 * time.Minute)
	if got := p.classify(ag, pane); got != manifest.StatusRunning {
		t.Errorf("quiescent non-interactive = %v, want running", got)
	}

	// The pane dropping back to the shell still means exited.
	shell := &tmux.PaneInfo{ID: "%1", Command: "bash"}
	if got := p.classify(ag, shell); got != manifest.StatusExited {
		t.Errorf("shell pane = %v, want exited", got)
	}
}

func TestClassify_GonePane(t *testing.T) {
	p := fixtureProbe(time.Now().UTC(), 30*time.Second, "")
	ag := &manifest.Agent{ID: "ag-aaaa1111"}
	if got := p.classify(ag, nil); got != manifest.StatusGone {
		t.Errorf("absent pane = %v, want gone", got)
	}
	if got := p.classify(ag, &tmux.PaneInfo{ID: "%1", Dead: true}); got != manifest.StatusGone {
		t.Errorf("dead pane = %v, want gone", got)
	}
}

func TestApplyProbe(t *testing.T) {
	m := &manifest.Manifest{
		Worktrees: map[string]*manifest.Worktree{
			"wt-abc123": {
				ID: "wt-abc123",
				Agents: map[string]*manifest.Agent{
					"ag-aaaa1111": {ID: "ag-aaaa1111", Status: manifest.StatusRunning},
					"ag-bbbb2222": {ID: "ag-bbbb2222", Status: manifest.StatusKilled},
					"ag-cccc3333": {ID: "ag-cccc3333", Status: manifest.StatusRunning},
				},
			},
		},
		Agents: map[string]*manifest.Agent{
			"ag-dddd4444": {ID: "ag-dddd4444", Status: manifest.StatusRunning},
		},
	}

	changed := ApplyProbe(m, map[string]manifest.Status{
		"ag-aaaa1111": manifest.StatusIdle,
		"ag-bbbb2222": manifest.StatusRunning, // terminal, must not revive
		"ag-cccc3333": manifest.StatusGone,
		"ag-dddd4444": manifest.StatusRunning, // unchanged
	})

	if changed != 2 {
		t.Errorf("ApplyProbe() changed = %d, want 2", changed)
	}

	wt := m.Worktrees["wt-abc123"]
	if wt.Agents["ag-aaaa1111"].Status != manifest.StatusIdle {
		t.Error("running agent not moved to idle")
	}
	if wt.Agents["ag-bbbb2222"].Status != manifest.StatusKilled {
		t.Error("terminal agent revived by probe")
	}
	gone := wt.Agents["ag-cccc3333"]
	if gone.Status != manifest.StatusGone {
		t.Error("running agent not moved to gone")
	}
	if gone.CompletedAt == nil {
		t.Error("terminal transition did not stamp CompletedAt")
	}
	if m.Agents["ag-dddd4444"].Status != manifest.StatusRunning {
		t.Error("unchanged agent mutated")
	}
}

func TestApplyProbe_UnobservedLeftAlone(t *testing.T) {
	m := &manifest.Manifest{
		Worktrees: map[string]*manifest.Worktree{
			"wt-abc123": {
				ID: "wt-abc123",
				Agents: map[string]*manifest.Agent{
					"ag-aaaa1111": {ID: "ag-aaaa1111", Status: manifest.StatusWaiting},
				},
			},
		},
	}
	if changed := ApplyProbe(m, nil); changed != 0 {
		t.Errorf("ApplyProbe(nil) changed = %d, want 0", changed)
	}
	if m.Worktrees["wt-abc123"].Agents["ag-aaaa1111"].Status != manifest.StatusWaiting {
		t.Error("unobserved agent mutated")
	}
}

func TestActivityCache_RoundTrip(t *testing.T) {
	root := t.TempDir()

	cache := loadActivityCache(root)
	if len(cache.Agents) != 0 {
		t.Fatal("fresh cache not empty")
	}

	cache.Agents["ag-aaaa1111"] = activityEntry{Hash: "abc"}
	saveActivityCache(root, cache)

	loaded := loadActivityCache(root)
	if loaded.Agents["ag-aaaa1111"].Hash != "abc" {
		t.Error("cache did not round-trip")
	}
}
