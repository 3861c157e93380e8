// Package manifest owns the durable data model of ppg: the JSON manifest
// that records every worktree, every agent, and their relationships. All
// mutations flow through the store's Update so that concurrent CLI
// invocations, the scheduler, and the API server serialize on one
// cross-process lock.
package manifest

import (
	"time"
)

// CurrentVersion is the manifest schema version written by this build.
const CurrentVersion = 1

// Status is the canonical agent status set.
type Status string

const (
	StatusSpawning  Status = "spawning"
	StatusRunning   Status = "running"
	StatusWaiting   Status = "waiting"
	StatusIdle      Status = "idle"
	StatusExited    Status = "exited"
	StatusGone      Status = "gone"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusKilled    Status = "killed"
	StatusLost      Status = "lost"
)

// Terminal reports whether the status is final. Terminal statuses are
// monotone: once observed, an agent never returns to a live status under
// the same id.
func (s Status) Terminal() bool {
	switch s {
	case StatusExited, StatusGone, StatusCompleted, StatusFailed, StatusKilled, StatusLost:
		return true
	}
	return false
}

// Live reports whether the agent's process is believed to be running.
func (s Status) Live() bool {
	switch s {
	case StatusSpawning, StatusRunning, StatusWaiting:
		return true
	}
	return false
}

// WorktreeStatus is the stored lifecycle of a worktree record.
type WorktreeStatus string

const (
	WorktreeActive  WorktreeStatus = "active"
	WorktreeMerging WorktreeStatus = "merging"
	WorktreeMerged  WorktreeStatus = "merged"
	WorktreeFailed  WorktreeStatus = "failed"
	WorktreeCleaned WorktreeStatus = "cleaned"
)

// Agent is one interactive program running in a tmux pane.
type Agent struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	AgentType   string     `json:"agentType"`
	Status      Status     `json:"status"`
	TmuxTarget  string     `json:"tmuxTarget"`
	Prompt      string     `json:"prompt"`
	ResultFile  string     `json:"resultFile,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ExitCode    *int       `json:"exitCode,omitempty"`
	Error       string     `json:"error,omitempty"`
	SessionID   string     `json:"sessionId,omitempty"`

	// NonInteractive marks agents whose command runs to completion
	// instead of sitting at a prompt. The waiting and idle heuristics do
	// not apply to them; they are running until their pane exits.
	NonInteractive bool `json:"nonInteractive,omitempty"`
}

// Worktree is one isolated working directory with its own branch and its
// own set of agents.
type Worktree struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Path       string            `json:"path"`
	Branch     string            `json:"branch"`
	BaseBranch string            `json:"baseBranch"`
	Status     WorktreeStatus    `json:"status"`
	TmuxWindow string            `json:"tmuxWindow"`
	Agents     map[string]*Agent `json:"agents"`
	CreatedAt  time.Time         `json:"createdAt"`
	MergedAt   *time.Time        `json:"mergedAt,omitempty"`
	PRUrl      string            `json:"prUrl,omitempty"`
}

// Manifest is the singleton project state record.
type Manifest struct {
	Version     int                  `json:"version"`
	ProjectRoot string               `json:"projectRoot"`
	SessionName string               `json:"sessionName"`
	Worktrees   map[string]*Worktree `json:"worktrees"`
	// Agents holds master agents owned by the manifest directly rather
	// than by a worktree.
	Agents    map[string]*Agent `json:"agents,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// New returns a fresh manifest for a project.
func New(projectRoot, sessionName string) *Manifest {
	now := time.Now().UTC()
	return &Manifest{
		Version:     CurrentVersion,
		ProjectRoot: projectRoot,
		SessionName: sessionName,
		Worktrees:   make(map[string]*Worktree),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Worktree looks up a worktree by id, then by name.
func (m *Manifest) Worktree(idOrName string) *Worktree {
	if wt, ok := m.Worktrees[idOrName]; ok {
		return wt
	}
	for _, wt := range m.Worktrees {
		if wt.Name == idOrName {
			return wt
		}
	}
	return nil
}

// Agent looks up an agent by id anywhere in the manifest. The returned
// worktree is nil for master agents.
func (m *Manifest) Agent(id string) (*Worktree, *Agent) {
	for _, wt := range m.Worktrees {
		if ag, ok := wt.Agents[id]; ok {
			return wt, ag
		}
	}
	if ag, ok := m.Agents[id]; ok {
		return nil, ag
	}
	return nil, nil
}

// AllAgents returns every agent in the manifest, worktree-owned and master.
func (m *Manifest) AllAgents() []*Agent {
	var out []*Agent
	for _, wt := range m.Worktrees {
		for _, ag := range wt.Agents {
			out = append(out, ag)
		}
	}
	for _, ag := range m.Agents {
		out = append(out, ag)
	}
	return out
}

// BranchInUse reports whether any non-cleaned worktree owns the branch.
func (m *Manifest) BranchInUse(branch string) bool {
	for _, wt := range m.Worktrees {
		if wt.Status != WorktreeCleaned && wt.Branch == branch {
			return true
		}
	}
	return false
}

// LiveAgents returns the worktree's agents whose status is live.
func (wt *Worktree) LiveAgents() []*Agent {
	var out []*Agent
	for _, ag := range wt.Agents {
		if ag.Status.Live() {
			out = append(out, ag)
		}
	}
	return out
}

// MarkTerminal moves an agent to a terminal status and stamps
// CompletedAt, unless it is already terminal.
func (ag *Agent) MarkTerminal(status Status) {
	if ag.Status.Terminal() {
		return
	}
	ag.Status = status
	now := time.Now().UTC()
	ag.CompletedAt = &now
}
