package ops

import (
	"fmt"
	"time"

	"github.com/ppgdev/ppg/internal/agent"
	"github.com/ppgdev/ppg/internal/config"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/ids"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/prompt"
	"github.com/ppgdev/ppg/internal/tmux"
	"github.com/ppgdev/ppg/internal/worktree"
)

// branchPrefix namespaces branches created for spawned worktrees.
const branchPrefix = "ppg/"

// SpawnOptions configures one spawn operation.
type SpawnOptions struct {
	ProjectRoot string `json:"-"`

	// Name labels the worktree; sanitized into the branch and directory
	// name. Defaults to "work" when empty.
	Name string `json:"name,omitempty"`

	// Agent selects a configured agent type; empty means the default.
	Agent string `json:"agent,omitempty"`

	Prompt prompt.Source     `json:"prompt"`
	Vars   map[string]string `json:"vars,omitempty"`

	// Count spawns N agents into the worktree. Defaults to 1.
	Count int `json:"count,omitempty"`

	// Branch adopts an existing branch instead of cutting a new one.
	Branch string `json:"branch,omitempty"`
	// Worktree attaches agents to an existing worktree (id or name).
	Worktree string `json:"worktree,omitempty"`
	// Base overrides the base branch for a newly cut branch.
	Base string `json:"base,omitempty"`

	// Split puts additional agents in panes of the first window instead
	// of separate windows.
	Split bool `json:"split,omitempty"`

	// Master spawns an agent owned by the manifest rather than a
	// worktree. Incompatible with Branch/Worktree/Base/Count>1.
	Master bool `json:"master,omitempty"`

	// OpenTerminal opens a desktop terminal attached to the first
	// target. Fire-and-forget.
	OpenTerminal bool `json:"openTerminal,omitempty"`
}

// SpawnedAgent is one launched agent in a spawn result.
type SpawnedAgent struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AgentType  string `json:"agentType"`
	TmuxTarget string `json:"tmuxTarget"`
}

// SpawnResult reports a completed spawn.
type SpawnResult struct {
	WorktreeID string         `json:"worktreeId,omitempty"`
	Name       string         `json:"name"`
	Branch     string         `json:"branch,omitempty"`
	Path       string         `json:"path,omitempty"`
	Agents     []SpawnedAgent `json:"agents"`
	Master     bool           `json:"master,omitempty"`
}

// Spawn is the canonical create-and-spawn orchestration.
//
// Ordering is load-bearing for crash safety: all validation happens
// before any side effect, the skeleton worktree record is persisted
// before the first agent launches, and each agent is committed to the
// manifest individually right after its launch. A crash between agent
// K and K+1 leaves exactly K agents persisted.
func Spawn(opts SpawnOptions) (*SpawnResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	return spawn(env, opts)
}

func spawn(env *Env, opts SpawnOptions) (*SpawnResult, error) {
	agentType, agentCfg, err := env.Config.Agent(opts.Agent)
	if err != nil {
		return nil, err
	}
	promptText, err := opts.Prompt.Resolve(env.ProjectRoot, opts.Vars)
	if err != nil {
		return nil, err
	}
	if err := validateModes(opts); err != nil {
		return nil, err
	}
	count := opts.Count
	if count < 1 {
		count = 1
	}

	if !env.Tmux.IsAvailable() {
		return nil, errs.New(errs.TmuxNotFound, "tmux is not installed")
	}

	if opts.Master {
		return spawnMaster(env, opts, agentType, agentCfg, promptText)
	}

	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	session := m.SessionName

	// Resolve the worktree: attach, adopt, or create.
	var (
		wtID, name, branch, base, wtPath, window string
		isNew                                    bool
	)
	switch {
	case opts.Worktree != "":
		wt := m.Worktree(opts.Worktree)
		if wt == nil {
			return nil, errs.New(errs.WorktreeNotFound, "no worktree %q", opts.Worktree)
		}
		if wt.Status == manifest.WorktreeCleaned {
			return nil, errs.New(errs.WorktreeNotFound, "worktree %q is cleaned", opts.Worktree)
		}
		wtID, name, branch, base = wt.ID, wt.Name, wt.Branch, wt.BaseBranch
		wtPath, window = wt.Path, wt.TmuxWindow

	case opts.Branch != "":
		g := env.git()
		if !g.BranchExists(opts.Branch) {
			return nil, errs.New(errs.InvalidArgs, "branch %q does not exist", opts.Branch)
		}
		if m.BranchInUse(opts.Branch) {
			return nil, errs.New(errs.InvalidArgs, "branch %q already has a worktree", opts.Branch)
		}
		wtID = ids.NewWorktreeID()
		name = ids.SanitizeName(firstNonEmpty(opts.Name, opts.Branch))
		branch = opts.Branch
		base, err = g.CurrentBranch()
		if err != nil {
			return nil, err
		}
		isNew = true

	default:
		wtID = ids.NewWorktreeID()
		name = ids.SanitizeName(opts.Name)
		branch = branchPrefix + name
		if m.BranchInUse(branch) {
			return nil, errs.New(errs.InvalidArgs, "branch %q already has a worktree (pick another --name)", branch)
		}
		base = opts.Base
		if base == "" {
			base, err = env.git().CurrentBranch()
			if err != nil {
				return nil, err
			}
		}
		isNew = true
	}

	if isNew {
		if opts.Branch != "" {
			wtPath, err = worktree.Adopt(env.ProjectRoot, wtID, branch)
		} else {
			wtPath, err = worktree.Create(env.ProjectRoot, wtID, branch, base)
		}
		if err != nil {
			return nil, err
		}
		if err := worktree.SetupEnv(env.ProjectRoot, wtPath, env.Config); err != nil {
			return nil, err
		}

		window, err = ensureWorktreeWindow(env.Tmux, session, wtID, wtPath)
		if err != nil {
			return nil, err
		}

		// Skeleton record before any agent launch, so a crash mid-spawn
		// leaves a cleanup-addressable entry.
		skeleton := &manifest.Worktree{
			ID:         wtID,
			Name:       name,
			Path:       wtPath,
			Branch:     branch,
			BaseBranch: base,
			Status:     manifest.WorktreeActive,
			TmuxWindow: window,
			Agents:     make(map[string]*manifest.Agent),
			CreatedAt:  time.Now().UTC(),
		}
		if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
			m.Worktrees[wtID] = skeleton
			return nil
		}); err != nil {
			return nil, err
		}
	}

	result := &SpawnResult{
		WorktreeID: wtID,
		Name:       name,
		Branch:     branch,
		Path:       wtPath,
	}

	for i := 0; i < count; i++ {
		target := window
		if i > 0 || !isNew {
			// Attach mode and agents beyond the first get their own
			// target: a split of the worktree window, or a new window.
			if opts.Split && window != "" {
				target, err = env.Tmux.SplitPane(window, tmux.SplitHorizontal, wtPath)
			} else {
				target, err = env.Tmux.CreateWindow(session, wtID, wtPath)
			}
			if err != nil {
				return result, err
			}
		}

		agentID := ids.NewAgentID()
		agentName := name
		if count > 1 {
			agentName = fmt.Sprintf("%s-%d", name, i+1)
		}
		ag, spawnErr := agent.Spawn(env.Tmux, agent.SpawnSpec{
			AgentID:      agentID,
			Name:         agentName,
			AgentType:    agentType,
			Config:       agentCfg,
			Prompt:       promptText,
			WorktreePath: wtPath,
			TmuxTarget:   target,
			ProjectRoot:  env.ProjectRoot,
			Branch:       branch,
			SessionID:    ids.NewSessionID(),
		})

		// Commit this agent (even a failed one) before moving on.
		if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
			wt := m.Worktrees[wtID]
			if wt == nil {
				return errs.New(errs.WorktreeNotFound, "worktree %s disappeared during spawn", wtID)
			}
			wt.Agents[agentID] = ag
			return nil
		}); err != nil {
			return result, err
		}
		if spawnErr != nil {
			return result, spawnErr
		}
		result.Agents = append(result.Agents, SpawnedAgent{
			ID:         agentID,
			Name:       agentName,
			AgentType:  agentType,
			TmuxTarget: ag.TmuxTarget,
		})
	}

	if opts.OpenTerminal && len(result.Agents) > 0 {
		openDesktopTerminal(session, result.Agents[0].TmuxTarget)
	}
	return result, nil
}

func spawnMaster(env *Env, opts SpawnOptions, agentType string, agentCfg config.AgentConfig, promptText string) (*SpawnResult, error) {
	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	session := m.SessionName

	if err := env.Tmux.EnsureSession(session, env.ProjectRoot); err != nil {
		return nil, err
	}

	agentID := ids.NewAgentID()
	target, err := env.Tmux.CreateWindow(session, agentID, env.ProjectRoot)
	if err != nil {
		return nil, err
	}

	name := ids.SanitizeName(firstNonEmpty(opts.Name, "master"))
	ag, spawnErr := agent.Spawn(env.Tmux, agent.SpawnSpec{
		AgentID:     agentID,
		Name:        name,
		AgentType:   agentType,
		Config:      agentCfg,
		Prompt:      promptText,
		TmuxTarget:  target,
		ProjectRoot: env.ProjectRoot,
		SessionID:   ids.NewSessionID(),
	})
	if _, err := manifest.Update(env.ProjectRoot, func(m *manifest.Manifest) error {
		if m.Agents == nil {
			m.Agents = make(map[string]*manifest.Agent)
		}
		m.Agents[agentID] = ag
		return nil
	}); err != nil {
		return nil, err
	}
	if spawnErr != nil {
		return nil, spawnErr
	}

	if opts.OpenTerminal {
		openDesktopTerminal(session, target)
	}
	return &SpawnResult{
		Name:   name,
		Master: true,
		Agents: []SpawnedAgent{{ID: agentID, Name: name, AgentType: agentType, TmuxTarget: target}},
	}, nil
}

// ensureWorktreeWindow gives the worktree its initial window. When the
// session does not exist yet, the worktree window doubles as the
// session's first window.
func ensureWorktreeWindow(t *tmux.Tmux, session, wtID, wtPath string) (string, error) {
	exists, err := t.HasSession(session)
	if err != nil {
		return "", err
	}
	if !exists {
		return t.NewSessionWithWindow(session, wtID, wtPath)
	}
	return t.CreateWindow(session, wtID, wtPath)
}

func validateModes(opts SpawnOptions) error {
	set := 0
	for _, v := range []string{opts.Branch, opts.Worktree, opts.Base} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return errs.New(errs.InvalidArgs, "--branch, --worktree, and --base are mutually exclusive")
	}
	if opts.Master {
		if set > 0 {
			return errs.New(errs.InvalidArgs, "--master cannot be combined with --branch, --worktree, or --base")
		}
		if opts.Count > 1 {
			return errs.New(errs.InvalidArgs, "--master spawns exactly one agent")
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
