package ops

import (
	"sort"
	"time"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/manifest"
)

// DefaultWaitInterval is the polling interval for wait.
const DefaultWaitInterval = 5 * time.Second

// WaitOptions configures a blocking wait.
type WaitOptions struct {
	ProjectRoot string

	// Agent or Worktree narrows the wait; with neither set, wait covers
	// every agent in the project.
	Agent    string
	Worktree string

	// Timeout bounds the wait. Zero means wait forever.
	Timeout time.Duration
	// Interval is the polling period. Zero means the default.
	Interval time.Duration
}

// WaitResult reports the settled agents and their final statuses.
type WaitResult struct {
	Agents  map[string]manifest.Status `json:"agents"`
	Elapsed float64                    `json:"elapsedSeconds"`
}

// Wait blocks until every selected agent has stopped working: status
// idle or terminal. Each poll runs a full status refresh. On deadline it
// fails with WAIT_TIMEOUT.
func Wait(opts WaitOptions) (*WaitResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	start := time.Now()
	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = start.Add(opts.Timeout)
	}

	for {
		m, err := env.Refresh()
		if err != nil {
			return nil, err
		}
		selected, err := selectAgents(m, opts)
		if err != nil {
			return nil, err
		}

		busy := 0
		final := make(map[string]manifest.Status, len(selected))
		for _, ag := range selected {
			final[ag.ID] = ag.Status
			if ag.Status.Live() {
				busy++
			}
		}
		if busy == 0 {
			return &WaitResult{Agents: final, Elapsed: time.Since(start).Seconds()}, nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			ids := make([]string, 0, busy)
			for id, st := range final {
				if st.Live() {
					ids = append(ids, id)
				}
			}
			sort.Strings(ids)
			return nil, errs.New(errs.WaitTimeout, "still busy after %s: %v", opts.Timeout, ids)
		}
		time.Sleep(interval)
	}
}

func selectAgents(m *manifest.Manifest, opts WaitOptions) ([]*manifest.Agent, error) {
	switch {
	case opts.Agent != "":
		_, ag := m.Agent(opts.Agent)
		if ag == nil {
			return nil, errs.New(errs.AgentNotFound, "no agent %q", opts.Agent)
		}
		return []*manifest.Agent{ag}, nil
	case opts.Worktree != "":
		wt := m.Worktree(opts.Worktree)
		if wt == nil {
			return nil, errs.New(errs.WorktreeNotFound, "no worktree %q", opts.Worktree)
		}
		out := make([]*manifest.Agent, 0, len(wt.Agents))
		for _, ag := range wt.Agents {
			out = append(out, ag)
		}
		return out, nil
	default:
		return m.AllAgents(), nil
	}
}
