package ops

import (
	"github.com/ppgdev/ppg/internal/agent"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/guard"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/tmux"
	"github.com/ppgdev/ppg/internal/worktree"
)

// CleanOptions configures the clean operation.
type CleanOptions struct {
	ProjectRoot string `json:"-"`
	// Worktree is the target worktree id or name.
	Worktree string `json:"worktree"`
	// Delete also removes the manifest record after cleanup.
	Delete bool `json:"delete,omitempty"`
}

// CleanResult reports a cleanup outcome.
type CleanResult struct {
	WorktreeID    string `json:"worktreeId"`
	SelfProtected bool   `json:"selfProtected"`
	Deleted       bool   `json:"deleted,omitempty"`
}

// Clean tears down one worktree: kills its windows, removes the
// filesystem worktree, and marks the record cleaned.
func Clean(opts CleanOptions) (*CleanResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	wt := m.Worktree(opts.Worktree)
	if wt == nil {
		return nil, errs.New(errs.WorktreeNotFound, "no worktree %q", opts.Worktree)
	}

	g := guard.New(env.Tmux, m.SessionName)
	selfProtected, err := cleanupWorktree(env, g, m.SessionName, wt)
	if err != nil {
		return nil, err
	}

	result := &CleanResult{WorktreeID: wt.ID, SelfProtected: selfProtected}
	if opts.Delete && !selfProtected {
		if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
			delete(m.Worktrees, wt.ID)
			return nil
		}); err != nil {
			return nil, err
		}
		result.Deleted = true
	}
	return result, nil
}

// cleanupWorktree releases a worktree's mux and filesystem resources and
// marks the record cleaned. A cleaned worktree is a no-op. When the
// caller's own pane lives in the worktree's window tree, nothing is
// touched and selfProtected is true.
func cleanupWorktree(env *Env, g guard.Guard, session string, wt *manifest.Worktree) (selfProtected bool, err error) {
	if wt.Status == manifest.WorktreeCleaned {
		return false, nil
	}
	if g.WouldAffectWorktree(wt) {
		return true, nil
	}

	// Kill the worktree's windows: the primary window, every agent
	// target, and any extra windows carrying the worktree's name.
	if wt.TmuxWindow != "" {
		_ = env.Tmux.KillWindow(wt.TmuxWindow)
	}
	for _, ag := range wt.Agents {
		_ = agent.Kill(env.Tmux, ag)
	}
	if windows, err := env.Tmux.ListSessionWindows(session); err == nil {
		for _, w := range windows {
			if w.Name == wt.ID {
				_ = env.Tmux.KillWindow(tmux.WindowTarget(session, w.Index))
			}
		}
	}

	if err := worktree.Remove(env.ProjectRoot, wt.Path); err != nil {
		return false, err
	}

	_, err = manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
		live := m.Worktrees[wt.ID]
		if live == nil {
			return nil
		}
		live.Status = manifest.WorktreeCleaned
		for _, ag := range live.Agents {
			ag.MarkTerminal(manifest.StatusKilled)
		}
		return nil
	})
	return false, err
}
