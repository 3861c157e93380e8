package manifest

// migrate upgrades legacy records in place before the manifest is handed
// to callers. The status set evolved over time; older manifests may carry
// statuses outside the canonical set. "completed" survives as a distinct
// terminal status ("agent voluntarily ended with success"); anything
// unrecognized becomes "lost" so cleanup can still address the record.
func migrate(m *Manifest) {
	if m.Version == 0 {
		m.Version = CurrentVersion
	}
	if m.Worktrees == nil {
		m.Worktrees = make(map[string]*Worktree)
	}

	for _, wt := range m.Worktrees {
		if wt.Agents == nil {
			wt.Agents = make(map[string]*Agent)
		}
		if wt.Status == "" {
			wt.Status = WorktreeActive
		}
		for _, ag := range wt.Agents {
			ag.Status = canonicalStatus(ag.Status)
		}
	}
	for _, ag := range m.Agents {
		ag.Status = canonicalStatus(ag.Status)
	}
}

// legacyStatuses maps pre-1.0 status spellings to the canonical set.
var legacyStatuses = map[Status]Status{
	"done":       StatusCompleted,
	"error":      StatusFailed,
	"terminated": StatusKilled,
	"starting":   StatusSpawning,
}

func canonicalStatus(s Status) Status {
	switch s {
	case StatusSpawning, StatusRunning, StatusWaiting, StatusIdle,
		StatusExited, StatusGone, StatusCompleted, StatusFailed,
		StatusKilled, StatusLost:
		return s
	}
	if mapped, ok := legacyStatuses[s]; ok {
		return mapped
	}
	return StatusLost
}
