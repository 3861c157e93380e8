package ops

import (
	"fmt"
	"time"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/guard"
	"github.com/ppgdev/ppg/internal/manifest"
)

// Merge strategies.
const (
	StrategySquash = "squash"
	StrategyNoFF   = "no-ff"
)

// MergeOptions configures a merge.
type MergeOptions struct {
	ProjectRoot string `json:"-"`
	Worktree    string `json:"worktree"`

	// Strategy is "squash" (default) or "no-ff".
	Strategy string `json:"strategy,omitempty"`

	// Cleanup tears down the worktree after a successful merge.
	// Defaults to true; nil means default.
	Cleanup *bool `json:"cleanup,omitempty"`

	// Force merges even when agents are still running.
	Force bool `json:"force,omitempty"`
}

// MergeResult reports a merge outcome.
type MergeResult struct {
	WorktreeID    string `json:"worktreeId"`
	Branch        string `json:"branch"`
	BaseBranch    string `json:"baseBranch"`
	Strategy      string `json:"strategy"`
	CleanedUp     bool   `json:"cleanedUp"`
	SelfProtected bool   `json:"selfProtected,omitempty"`
}

// Merge folds a worktree's branch into its base branch.
//
// The worktree status is written merging before the git work starts and
// merged or failed after it ends, as two distinct updates, so a crash
// mid-merge is visible in the manifest.
func Merge(opts MergeOptions) (*MergeResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategySquash
	}
	if strategy != StrategySquash && strategy != StrategyNoFF {
		return nil, errs.New(errs.InvalidArgs, "unknown merge strategy %q", strategy)
	}

	m, err := env.Refresh()
	if err != nil {
		return nil, err
	}
	wt := m.Worktree(opts.Worktree)
	if wt == nil {
		return nil, errs.New(errs.WorktreeNotFound, "no worktree %q", opts.Worktree)
	}
	if wt.Status == manifest.WorktreeMerged || wt.Status == manifest.WorktreeCleaned {
		return nil, errs.New(errs.InvalidArgs, "worktree %s is already %s", wt.ID, wt.Status)
	}

	if !opts.Force {
		if live := wt.LiveAgents(); len(live) > 0 {
			return nil, errs.New(errs.AgentsRunning, "%d agents still running in %s (use --force)", len(live), wt.ID)
		}
	}

	if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
		live := m.Worktrees[wt.ID]
		if live == nil {
			return errs.New(errs.WorktreeNotFound, "worktree %s disappeared", wt.ID)
		}
		live.Status = manifest.WorktreeMerging
		return nil
	}); err != nil {
		return nil, err
	}

	mergeErr := runMerge(env, wt, strategy)

	finalStatus := manifest.WorktreeMerged
	if mergeErr != nil {
		finalStatus = manifest.WorktreeFailed
	}
	if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
		live := m.Worktrees[wt.ID]
		if live == nil {
			return nil
		}
		live.Status = finalStatus
		if finalStatus == manifest.WorktreeMerged {
			now := time.Now().UTC()
			live.MergedAt = &now
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if mergeErr != nil {
		return nil, errs.Wrap(errs.MergeFailed, mergeErr, "merging %s into %s", wt.Branch, wt.BaseBranch)
	}

	result := &MergeResult{
		WorktreeID: wt.ID,
		Branch:     wt.Branch,
		BaseBranch: wt.BaseBranch,
		Strategy:   strategy,
	}

	cleanup := opts.Cleanup == nil || *opts.Cleanup
	if cleanup {
		g := guard.New(env.Tmux, m.SessionName)
		// Re-read so cleanup sees the merged status.
		fresh, err := manifest.Read(env.ProjectRoot)
		if err != nil {
			return nil, err
		}
		if liveWt := fresh.Worktrees[wt.ID]; liveWt != nil {
			selfProtected, err := cleanupWorktree(env, g, fresh.SessionName, liveWt)
			if err != nil {
				return nil, err
			}
			result.SelfProtected = selfProtected
			result.CleanedUp = !selfProtected
		}
	}
	return result, nil
}

// runMerge performs the git work: check out the base branch, merge, and
// for squash merges, commit.
func runMerge(env *Env, wt *manifest.Worktree, strategy string) error {
	g := env.git()
	current, err := g.CurrentBranch()
	if err != nil {
		return err
	}
	if current != wt.BaseBranch {
		if err := g.Checkout(wt.BaseBranch); err != nil {
			return err
		}
	}

	message := fmt.Sprintf("ppg: merge %s (%s)", wt.Name, wt.Branch)
	switch strategy {
	case StrategySquash:
		if err := g.MergeSquash(wt.Branch); err != nil {
			g.MergeAbort()
			return err
		}
		if err := g.Commit(message); err != nil {
			g.MergeAbort()
			return err
		}
	case StrategyNoFF:
		if err := g.MergeNoFF(wt.Branch, message); err != nil {
			g.MergeAbort()
			return err
		}
	}
	return nil
}
