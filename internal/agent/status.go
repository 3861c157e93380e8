package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/paths"
	"github.com/ppgdev/ppg/internal/tmux"
)

// captureLines bounds how much pane scrollback feeds the activity hash.
const captureLines = 40

// shellCommands are the pane commands that mean the agent process has
// exited and dropped back to the user's shell.
var shellCommands = map[string]bool{
	"bash": true,
	"zsh":  true,
	"sh":   true,
	"dash": true,
	"fish": true,
	"ksh":  true,
}

// waitingMarkers are pane tails that indicate the agent is blocked on a
// yes/no style confirmation rather than working.
var waitingMarkers = []string{
	"(y/n)",
	"(Y/n)",
	"[y/N]",
	"[Y/n]",
	"(yes/no)",
	"continue?",
	"Continue?",
	"proceed?",
	"Proceed?",
}

// activityEntry records the last observed pane content hash for one
// agent and when it last changed.
type activityEntry struct {
	Hash      string    `json:"hash"`
	ChangedAt time.Time `json:"changedAt"`
}

type activityCache struct {
	Agents map[string]activityEntry `json:"agents"`
}

func loadActivityCache(projectRoot string) *activityCache {
	cache := &activityCache{Agents: make(map[string]activityEntry)}
	data, err := os.ReadFile(paths.ActivityCachePath(projectRoot))
	if err != nil {
		return cache
	}
	// A corrupt cache only costs one refresh cycle of idle detection.
	_ = json.Unmarshal(data, cache)
	if cache.Agents == nil {
		cache.Agents = make(map[string]activityEntry)
	}
	return cache
}

func saveActivityCache(projectRoot string, cache *activityCache) {
	path := paths.ActivityCachePath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	data, err := json.Marshal(cache)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0644)
}

// probe carries one refresh cycle's state. capture is injected so the
// classification heuristic can be exercised against fixture content.
type probe struct {
	cache      *activityCache
	now        time.Time
	quiescence time.Duration
	capture    func(paneID string) (string, error)
}

// classify derives one agent's observed status from its pane:
//   - target pane dead or absent: gone
//   - pane running a shell: exited, or completed when the result file exists
//   - non-interactive agent with a live pane: running
//   - pane tail asks a confirmation question: waiting
//   - pane content changed since last probe: running
//   - pane content unchanged for the quiescence window: idle, or
//     completed when the result file exists
func (p *probe) classify(ag *manifest.Agent, pane *tmux.PaneInfo) manifest.Status {
	if pane == nil || pane.Dead {
		delete(p.cache.Agents, ag.ID)
		return manifest.StatusGone
	}

	if shellCommands[pane.Command] {
		delete(p.cache.Agents, ag.ID)
		if hasResult(ag) {
			return manifest.StatusCompleted
		}
		return manifest.StatusExited
	}

	// Non-interactive agents never idle at a prompt; the pane falling
	// back to the shell above is their only completion signal.
	if ag.NonInteractive {
		return manifest.StatusRunning
	}

	content, err := p.capture(pane.ID)
	if err != nil {
		return manifest.StatusRunning
	}

	if isWaiting(content) {
		return manifest.StatusWaiting
	}

	sum := sha256.Sum256([]byte(content))
	hash := hex.EncodeToString(sum[:])
	entry, ok := p.cache.Agents[ag.ID]
	if !ok || entry.Hash != hash {
		p.cache.Agents[ag.ID] = activityEntry{Hash: hash, ChangedAt: p.now}
		return manifest.StatusRunning
	}
	if p.now.Sub(entry.ChangedAt) >= p.quiescence {
		if hasResult(ag) {
			return manifest.StatusCompleted
		}
		return manifest.StatusIdle
	}
	return manifest.StatusRunning
}

// ProbeStatuses observes the session once and returns the observed
// status for each agent, keyed by agent id. Pane enumeration is batched
// into a single tmux call; only live-looking panes pay a capture-pane.
func ProbeStatuses(t *tmux.Tmux, projectRoot, session string, agents []*manifest.Agent, quiescence time.Duration) map[string]manifest.Status {
	observed := make(map[string]manifest.Status, len(agents))

	panes, err := t.ListSessionPanes(session)
	if err != nil {
		if errors.Is(err, tmux.ErrNoServer) || errors.Is(err, tmux.ErrSessionNotFound) {
			for _, ag := range agents {
				observed[ag.ID] = manifest.StatusGone
			}
			return observed
		}
		// Probe failure leaves statuses as they were.
		return observed
	}

	p := &probe{
		cache:      loadActivityCache(projectRoot),
		now:        time.Now().UTC(),
		quiescence: quiescence,
		capture: func(paneID string) (string, error) {
			return t.CapturePane(paneID, captureLines)
		},
	}

	seen := make(map[string]bool, len(agents))
	for _, ag := range agents {
		seen[ag.ID] = true
		observed[ag.ID] = p.classify(ag, findPane(panes, ag.TmuxTarget))
	}

	// Drop cache entries for agents that no longer exist.
	for id := range p.cache.Agents {
		if !seen[id] {
			delete(p.cache.Agents, id)
		}
	}
	saveActivityCache(projectRoot, p.cache)

	return observed
}

// findPane resolves an agent's stored target against the batched pane
// listing. A pane id matches directly; a window target matches any pane
// in that window.
func findPane(panes map[string]tmux.PaneInfo, target string) *tmux.PaneInfo {
	if target == "" {
		return nil
	}
	if tmux.IsPaneID(target) {
		if info, ok := panes[target]; ok {
			return &info
		}
		return nil
	}
	idx := tmux.TargetWindowIndex(target)
	if idx < 0 {
		return nil
	}
	for _, info := range panes {
		if info.WindowIndex == idx {
			return &info
		}
	}
	return nil
}

func hasResult(ag *manifest.Agent) bool {
	if ag.ResultFile == "" {
		return false
	}
	info, err := os.Stat(ag.ResultFile)
	return err == nil && info.Size() > 0
}

// isWaiting checks the last non-blank line of pane content for a
// confirmation marker.
func isWaiting(content string) bool {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		for _, marker := range waitingMarkers {
			if strings.HasSuffix(line, marker) {
				return true
			}
		}
		return false
	}
	return false
}

// ApplyProbe folds observed statuses into the manifest. Terminal stored
// statuses never change; observed terminal statuses stamp CompletedAt.
// Agents the probe did not observe are left alone. Returns the number of
// agents whose status changed.
func ApplyProbe(m *manifest.Manifest, observed map[string]manifest.Status) int {
	changed := 0
	apply := func(ag *manifest.Agent) {
		st, ok := observed[ag.ID]
		if !ok || ag.Status.Terminal() || st == ag.Status {
			return
		}
		if st.Terminal() {
			ag.MarkTerminal(st)
		} else {
			ag.Status = st
		}
		changed++
	}
	for _, wt := range m.Worktrees {
		for _, ag := range wt.Agents {
			apply(ag)
		}
	}
	for _, ag := range m.Agents {
		apply(ag)
	}
	return changed
}
