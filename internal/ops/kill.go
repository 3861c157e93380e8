package ops

import (
	"sort"

	"github.com/ppgdev/ppg/internal/agent"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/guard"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/worktree"
)

// KillOptions configures a kill. Exactly one scope must be set.
type KillOptions struct {
	ProjectRoot string `json:"-"`

	// Agent kills one agent by id.
	Agent string `json:"agent,omitempty"`
	// Worktree kills every agent of one worktree (id or name).
	Worktree string `json:"worktree,omitempty"`
	// All kills every agent in the project.
	All bool `json:"all,omitempty"`

	// Remove also removes the worktree's filesystem artifacts.
	Remove bool `json:"remove,omitempty"`
	// Delete removes the manifest records too; implies Remove.
	Delete bool `json:"delete,omitempty"`
}

// KillResult reports what was killed and what self-protection skipped.
type KillResult struct {
	Killed  []string `json:"killed"`
	Skipped []string `json:"skipped"`
	Removed []string `json:"removed,omitempty"`
}

// Kill terminates agents in the selected scope. Killing an
// already-terminal agent is an idempotent no-op.
func Kill(opts KillOptions) (*KillResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	scopes := 0
	if opts.Agent != "" {
		scopes++
	}
	if opts.Worktree != "" {
		scopes++
	}
	if opts.All {
		scopes++
	}
	if scopes != 1 {
		return nil, errs.New(errs.InvalidArgs, "exactly one of --agent, --worktree, or --all is required")
	}

	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}

	// Select targets and the worktrees affected by Remove/Delete.
	var targets []*manifest.Agent
	var worktrees []*manifest.Worktree
	switch {
	case opts.Agent != "":
		wt, ag := m.Agent(opts.Agent)
		if ag == nil {
			return nil, errs.New(errs.AgentNotFound, "no agent %q", opts.Agent)
		}
		targets = []*manifest.Agent{ag}
		if wt != nil {
			worktrees = []*manifest.Worktree{wt}
		}
	case opts.Worktree != "":
		wt := m.Worktree(opts.Worktree)
		if wt == nil {
			return nil, errs.New(errs.WorktreeNotFound, "no worktree %q", opts.Worktree)
		}
		for _, ag := range wt.Agents {
			targets = append(targets, ag)
		}
		worktrees = []*manifest.Worktree{wt}
	case opts.All:
		targets = m.AllAgents()
		worktrees = sortedWorktrees(m)
	}

	g := guard.New(env.Tmux, m.SessionName)
	result := &KillResult{Killed: []string{}, Skipped: []string{}}

	var toKill []*manifest.Agent
	for _, ag := range targets {
		if !ag.Status.Live() {
			continue
		}
		if g.TargetIsSelf(ag.TmuxTarget) {
			result.Skipped = append(result.Skipped, ag.ID)
			continue
		}
		toKill = append(toKill, ag)
	}
	_ = agent.KillAll(env.Tmux, toKill)

	if len(toKill) > 0 {
		if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
			for _, killed := range toKill {
				if _, ag := m.Agent(killed.ID); ag != nil {
					ag.MarkTerminal(manifest.StatusKilled)
				}
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	for _, ag := range toKill {
		result.Killed = append(result.Killed, ag.ID)
	}
	sort.Strings(result.Killed)

	if opts.Remove || opts.Delete {
		for _, wt := range worktrees {
			if g.WouldAffectWorktree(wt) {
				result.Skipped = append(result.Skipped, wt.ID)
				continue
			}
			if _, err := cleanupWorktree(env, g, m.SessionName, wt); err != nil {
				return nil, err
			}
			result.Removed = append(result.Removed, wt.ID)
		}
		if opts.Delete && len(result.Removed) > 0 {
			removed := make(map[string]bool, len(result.Removed))
			for _, id := range result.Removed {
				removed[id] = true
			}
			if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
				for id := range m.Worktrees {
					if removed[id] {
						delete(m.Worktrees, id)
					}
				}
				return nil
			}); err != nil {
				return nil, err
			}
			_ = worktree.Prune(env.ProjectRoot)
		}
	}
	return result, nil
}
