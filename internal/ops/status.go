package ops

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/git"
	"github.com/ppgdev/ppg/internal/manifest"
)

// AgentView is one agent in a status report.
type AgentView struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	AgentType  string          `json:"agentType"`
	Status     manifest.Status `json:"status"`
	TmuxTarget string          `json:"tmuxTarget"`
	StartedAt  time.Time       `json:"startedAt"`
	HasResult  bool            `json:"hasResult"`
}

// WorktreeView is one worktree in a status report.
type WorktreeView struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Branch    string                  `json:"branch"`
	Path      string                  `json:"path"`
	Status    manifest.WorktreeStatus `json:"status"`
	Lifecycle manifest.Lifecycle      `json:"lifecycle"`
	PRUrl     string                  `json:"prUrl,omitempty"`
	Agents    []AgentView             `json:"agents"`
}

// StatusResult is the live read model of the project.
type StatusResult struct {
	SessionName string         `json:"sessionName"`
	Worktrees   []WorktreeView `json:"worktrees"`
	Masters     []AgentView    `json:"masters,omitempty"`
}

// StatusOptions configures a status query.
type StatusOptions struct {
	ProjectRoot string
	// Worktree narrows the report to one worktree.
	Worktree string
}

// Status refreshes agent statuses and returns the derived view.
func Status(opts StatusOptions) (*StatusResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	m, err := env.Refresh()
	if err != nil {
		return nil, err
	}

	result := &StatusResult{SessionName: m.SessionName}
	for _, wt := range sortedWorktrees(m) {
		if opts.Worktree != "" && wt.ID != opts.Worktree && wt.Name != opts.Worktree {
			continue
		}
		result.Worktrees = append(result.Worktrees, worktreeView(wt))
	}
	if opts.Worktree != "" && len(result.Worktrees) == 0 {
		return nil, errs.New(errs.WorktreeNotFound, "no worktree %q", opts.Worktree)
	}
	for _, ag := range sortedAgents(m.Agents) {
		result.Masters = append(result.Masters, agentView(ag))
	}
	return result, nil
}

func worktreeView(wt *manifest.Worktree) WorktreeView {
	view := WorktreeView{
		ID:        wt.ID,
		Name:      wt.Name,
		Branch:    wt.Branch,
		Path:      wt.Path,
		Status:    wt.Status,
		Lifecycle: manifest.DeriveLifecycle(wt),
		PRUrl:     wt.PRUrl,
	}
	for _, ag := range sortedAgents(wt.Agents) {
		view.Agents = append(view.Agents, agentView(ag))
	}
	return view
}

func agentView(ag *manifest.Agent) AgentView {
	hasResult := false
	if ag.ResultFile != "" {
		if info, err := os.Stat(ag.ResultFile); err == nil && info.Size() > 0 {
			hasResult = true
		}
	}
	return AgentView{
		ID:         ag.ID,
		Name:       ag.Name,
		AgentType:  ag.AgentType,
		Status:     ag.Status,
		TmuxTarget: ag.TmuxTarget,
		StartedAt:  ag.StartedAt,
		HasResult:  hasResult,
	}
}

func sortedAgents(agents map[string]*manifest.Agent) []*manifest.Agent {
	out := make([]*manifest.Agent, 0, len(agents))
	for _, ag := range agents {
		out = append(out, ag)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// AggregateOptions configures result aggregation.
type AggregateOptions struct {
	ProjectRoot string
	// Worktree narrows aggregation to one worktree.
	Worktree string
}

// AggregateSection is one agent's result in an aggregate.
type AggregateSection struct {
	WorktreeID string `json:"worktreeId,omitempty"`
	AgentID    string `json:"agentId"`
	AgentName  string `json:"agentName"`
	Text       string `json:"text"`
}

// AggregateResult joins agent result files into one report.
type AggregateResult struct {
	Sections []AggregateSection `json:"sections"`
	Combined string             `json:"combined"`
}

// Aggregate collects the result files written by agents, ordered by
// agent start time.
func Aggregate(opts AggregateOptions) (*AggregateResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}

	worktrees := sortedWorktrees(m)
	if opts.Worktree != "" {
		wt := m.Worktree(opts.Worktree)
		if wt == nil {
			return nil, errs.New(errs.WorktreeNotFound, "no worktree %q", opts.Worktree)
		}
		worktrees = []*manifest.Worktree{wt}
	}

	result := &AggregateResult{Sections: []AggregateSection{}}
	var parts []string
	for _, wt := range worktrees {
		for _, ag := range sortedAgents(wt.Agents) {
			if ag.ResultFile == "" {
				continue
			}
			data, err := os.ReadFile(ag.ResultFile)
			if err != nil {
				continue
			}
			text := strings.TrimSpace(string(data))
			if text == "" {
				continue
			}
			result.Sections = append(result.Sections, AggregateSection{
				WorktreeID: wt.ID,
				AgentID:    ag.ID,
				AgentName:  ag.Name,
				Text:       text,
			})
			parts = append(parts, text)
		}
	}
	result.Combined = strings.Join(parts, "\n\n---\n\n")
	return result, nil
}

// DiffOptions configures a worktree diff summary.
type DiffOptions struct {
	ProjectRoot string
	Worktree    string
}

// DiffFile is one changed file in a diff summary.
type DiffFile struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// DiffResult summarizes a worktree's changes against its base branch.
type DiffResult struct {
	WorktreeID string     `json:"worktreeId"`
	Branch     string     `json:"branch"`
	BaseBranch string     `json:"baseBranch"`
	Files      []DiffFile `json:"files"`
	Added      int        `json:"added"`
	Deleted    int        `json:"deleted"`
}

// Diff reports per-file added/deleted line counts between the
// worktree's branch and its base.
func Diff(opts DiffOptions) (*DiffResult, error) {
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

	entries, err := git.NewGit(wt.Path).DiffNumstat(wt.BaseBranch)
	if err != nil {
		return nil, err
	}
	result := &DiffResult{
		WorktreeID: wt.ID,
		Branch:     wt.Branch,
		BaseBranch: wt.BaseBranch,
		Files:      []DiffFile{},
	}
	for _, e := range entries {
		result.Files = append(result.Files, DiffFile{Path: e.Path, Added: e.Added, Deleted: e.Deleted})
		result.Added += e.Added
		result.Deleted += e.Deleted
	}
	return result, nil
}

// LogsOptions configures a pane capture.
type LogsOptions struct {
	ProjectRoot string
	Agent       string
	// Lines bounds the scrollback captured; 0 captures the visible pane.
	Lines int
}

// LogsResult holds captured pane content.
type LogsResult struct {
	AgentID string `json:"agentId"`
	Content string `json:"content"`
}

// Logs captures the recent content of an agent's pane.
func Logs(opts LogsOptions) (*LogsResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	_, ag := m.Agent(opts.Agent)
	if ag == nil {
		return nil, errs.New(errs.AgentNotFound, "no agent %q", opts.Agent)
	}
	content, err := env.Tmux.CapturePane(ag.TmuxTarget, opts.Lines)
	if err != nil {
		return nil, errs.Wrap(errs.PaneNotFound, err, "capturing pane for %s", ag.ID)
	}
	return &LogsResult{AgentID: ag.ID, Content: content}, nil
}
