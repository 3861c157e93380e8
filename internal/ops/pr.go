package ops

import (
	"os"
	"sort"
	"strings"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/gh"
	"github.com/ppgdev/ppg/internal/manifest"
)

// prBodyLimit caps the assembled PR body. GitHub rejects bodies over
// 65536 characters; stay under with room for the truncation marker.
const prBodyLimit = 60000

const truncationMarker = "\n\n[truncated]"

// PrOptions configures pull request creation for a worktree.
type PrOptions struct {
	ProjectRoot string `json:"-"`
	Worktree    string `json:"worktree"`
	Title       string `json:"title,omitempty"`
	Body        string `json:"body,omitempty"`
	Draft       bool   `json:"draft,omitempty"`
}

// PrResult reports the created pull request.
type PrResult struct {
	WorktreeID string `json:"worktreeId"`
	Branch     string `json:"branch"`
	URL        string `json:"url"`
	Draft      bool   `json:"draft,omitempty"`
}

// Pr pushes the worktree's branch and opens a pull request against its
// base branch. The default body is assembled from the worktree's agent
// result files. The returned URL is persisted to the worktree record.
func Pr(opts PrOptions) (*PrResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if !gh.IsAvailable() {
		return nil, errs.New(errs.GhNotFound, "gh CLI not installed")
	}

	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	wt := m.Worktree(opts.Worktree)
	if wt == nil {
		return nil, errs.New(errs.WorktreeNotFound, "no worktree %q", opts.Worktree)
	}

	if err := env.git().Push("origin", wt.Branch, true); err != nil {
		return nil, err
	}

	title := opts.Title
	if title == "" {
		title = wt.Name
	}
	body := opts.Body
	if body == "" {
		body = assembleBody(wt)
	}

	url, err := gh.Create(wt.Path, gh.CreateOptions{
		Head:  wt.Branch,
		Base:  wt.BaseBranch,
		Title: title,
		Body:  body,
		Draft: opts.Draft,
	})
	if err != nil {
		return nil, err
	}

	if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
		if live := m.Worktrees[wt.ID]; live != nil {
			live.PRUrl = url
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &PrResult{WorktreeID: wt.ID, Branch: wt.Branch, URL: url, Draft: opts.Draft}, nil
}

// assembleBody joins the worktree's agent result files, oldest agent
// first, truncated to the body limit.
func assembleBody(wt *manifest.Worktree) string {
	agents := make([]*manifest.Agent, 0, len(wt.Agents))
	for _, ag := range wt.Agents {
		agents = append(agents, ag)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].StartedAt.Before(agents[j].StartedAt) })

	var parts []string
	for _, ag := range agents {
		if ag.ResultFile == "" {
			continue
		}
		data, err := os.ReadFile(ag.ResultFile)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			parts = append(parts, text)
		}
	}

	body := strings.Join(parts, "\n\n---\n\n")
	if body == "" {
		body = "Automated changes by ppg agents."
	}
	if len(body) > prBodyLimit {
		body = body[:prBodyLimit] + truncationMarker
	}
	return body
}
