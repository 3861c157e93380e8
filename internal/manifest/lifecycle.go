package manifest

// Lifecycle is the derived user-facing state of a worktree. It is never
// stored; it is recomputed from the worktree status and its agents.
type Lifecycle string

const (
	LifecycleBusy      Lifecycle = "busy"
	LifecycleReady     Lifecycle = "ready"
	LifecycleAttention Lifecycle = "attention"
	LifecycleIdle      Lifecycle = "idle"
	LifecycleEmpty     Lifecycle = "empty"
	LifecycleMerging   Lifecycle = "merging"
	LifecycleMerged    Lifecycle = "merged"
	LifecycleCleaned   Lifecycle = "cleaned"
)

// DeriveLifecycle computes a worktree's lifecycle. First matching rule
// wins:
//
//  1. merged/cleaned worktree status maps directly
//  2. merging maps directly
//  3. any live agent (spawning/running/waiting) → busy
//  4. all agents terminal, at least one idle/exited/completed and none
//     failed/lost → ready
//  5. any failed or lost agent (none live) → attention
//  6. no agents → empty
//  7. otherwise → idle
func DeriveLifecycle(wt *Worktree) Lifecycle {
	switch wt.Status {
	case WorktreeMerged:
		return LifecycleMerged
	case WorktreeCleaned:
		return LifecycleCleaned
	case WorktreeMerging:
		return LifecycleMerging
	}

	if len(wt.Agents) == 0 {
		return LifecycleEmpty
	}

	var anyLive, anyGood, anyBad bool
	for _, ag := range wt.Agents {
		switch {
		case ag.Status.Live():
			anyLive = true
		case ag.Status == StatusIdle || ag.Status == StatusExited || ag.Status == StatusCompleted:
			anyGood = true
		case ag.Status == StatusFailed || ag.Status == StatusLost:
			anyBad = true
		}
	}

	switch {
	case anyLive:
		return LifecycleBusy
	case anyGood && !anyBad:
		return LifecycleReady
	case anyBad:
		return LifecycleAttention
	default:
		return LifecycleIdle
	}
}
