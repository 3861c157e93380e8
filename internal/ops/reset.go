package ops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppgdev/ppg/internal/agent"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/gh"
	"github.com/ppgdev/ppg/internal/guard"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/worktree"
)

// ResetOptions configures a project-wide reset.
type ResetOptions struct {
	ProjectRoot string `json:"-"`

	// Force proceeds even when at-risk worktrees exist.
	Force bool `json:"force,omitempty"`

	// Prune runs git worktree prune afterwards.
	Prune bool `json:"prune,omitempty"`

	// IncludeOpenPrs also removes worktrees whose branch has an open
	// pull request.
	IncludeOpenPrs bool `json:"includeOpenPrs,omitempty"`
}

// ResetResult reports what reset removed and what it left alone.
type ResetResult struct {
	Removed       []string `json:"removed"`
	Skipped       []string `json:"skipped"`
	OrphansKilled int      `json:"orphansKilled"`
	Pruned        bool     `json:"pruned"`
}

// Reset tears down every worktree in the project: kills running agents,
// cleans up each worktree, removes cleaned records, and sweeps orphan
// windows. Worktrees hosting the caller's own pane are skipped and
// reported; worktrees with open PRs are skipped unless IncludeOpenPrs.
//
// Worktrees with unmerged, un-PR'd work containing idle or exited agents
// block the reset unless Force.
func Reset(opts ResetOptions) (*ResetResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	m, err := env.Refresh()
	if err != nil {
		return nil, err
	}

	if !opts.Force {
		if atRisk := atRiskWorktrees(m); len(atRisk) > 0 {
			return nil, errs.New(errs.UnmergedWork,
				"unmerged work in %s (use --force)", strings.Join(atRisk, ", "))
		}
	}

	g := guard.New(env.Tmux, m.SessionName)
	result := &ResetResult{Removed: []string{}, Skipped: []string{}}

	// Kill running agents session-wide first so no agent mutates its
	// worktree while we remove it. Skipped master agents are surfaced
	// here; skipped worktree agents surface through their worktree below.
	safe, skipped := g.ExcludeAgents(liveAgents(m))
	result.Skipped = append(result.Skipped, masterSkips(m, skipped)...)
	_ = agent.KillAll(env.Tmux, safe)
	if len(safe) > 0 || len(skipped) > 0 {
		if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
			for _, killed := range safe {
				if _, ag := m.Agent(killed.ID); ag != nil {
					ag.MarkTerminal(manifest.StatusKilled)
				}
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	openPRs := map[string]bool{}
	if !opts.IncludeOpenPrs && gh.IsAvailable() {
		for _, wt := range m.Worktrees {
			if wt.Status == manifest.WorktreeCleaned {
				continue
			}
			if pr, err := gh.View(env.ProjectRoot, wt.Branch); err == nil && pr != nil && pr.State == "OPEN" {
				openPRs[wt.ID] = true
			}
		}
	}

	for _, wt := range sortedWorktrees(m) {
		switch {
		case openPRs[wt.ID]:
			result.Skipped = append(result.Skipped, wt.ID)
			continue
		case g.WouldAffectWorktree(wt):
			result.Skipped = append(result.Skipped, wt.ID)
			continue
		}
		if _, err := cleanupWorktree(env, g, m.SessionName, wt); err != nil {
			return nil, fmt.Errorf("cleaning up %s: %w", wt.ID, err)
		}
		result.Removed = append(result.Removed, wt.ID)
	}

	// Drop cleaned records in one update.
	removedSet := make(map[string]bool, len(result.Removed))
	for _, id := range result.Removed {
		removedSet[id] = true
	}
	if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
		for id, wt := range m.Worktrees {
			if removedSet[id] || wt.Status == manifest.WorktreeCleaned {
				delete(m.Worktrees, id)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Sweep ppg-owned windows no longer referenced by any record.
	fresh, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]bool)
	for id := range fresh.Worktrees {
		referenced[id] = true
	}
	for id := range fresh.Agents {
		referenced[id] = true
	}
	if killed, err := env.Tmux.KillOrphanWindows(fresh.SessionName, referenced, g.SelfPane); err == nil {
		result.OrphansKilled = killed
	}

	if opts.Prune {
		if err := worktree.Prune(env.ProjectRoot); err != nil {
			return nil, err
		}
		result.Pruned = true
	}
	return result, nil
}

// atRiskWorktrees lists worktrees whose work would be lost: not merged
// or cleaned, no PR, and holding at least one idle or exited agent.
func atRiskWorktrees(m *manifest.Manifest) []string {
	var out []string
	for _, wt := range m.Worktrees {
		if wt.Status == manifest.WorktreeMerged || wt.Status == manifest.WorktreeCleaned {
			continue
		}
		if wt.PRUrl != "" {
			continue
		}
		for _, ag := range wt.Agents {
			if ag.Status == manifest.StatusIdle || ag.Status == manifest.StatusExited {
				out = append(out, fmt.Sprintf("%s (%s)", wt.Name, wt.Branch))
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// masterSkips lists the skipped agents owned by the manifest rather than
// a worktree. Skipped items are always reported, never silently dropped.
func masterSkips(m *manifest.Manifest, skipped []*manifest.Agent) []string {
	var out []string
	for _, ag := range skipped {
		if _, ok := m.Agents[ag.ID]; ok {
			out = append(out, ag.ID)
		}
	}
	sort.Strings(out)
	return out
}

func liveAgents(m *manifest.Manifest) []*manifest.Agent {
	var out []*manifest.Agent
	for _, ag := range m.AllAgents() {
		if ag.Status.Live() {
			out = append(out, ag)
		}
	}
	return out
}

func sortedWorktrees(m *manifest.Manifest) []*manifest.Worktree {
	out := make([]*manifest.Worktree, 0, len(m.Worktrees))
	for _, wt := range m.Worktrees {
		out = append(out, wt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
