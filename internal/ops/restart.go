package ops

import (
	"github.com/ppgdev/ppg/internal/agent"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/manifest"
)

// RestartOptions configures an agent restart.
type RestartOptions struct {
	ProjectRoot string `json:"-"`
	Agent       string `json:"agent"`
	// Prompt overrides the archived prompt. Empty reuses the archive.
	Prompt string `json:"prompt,omitempty"`
}

// Restart replaces an agent with a fresh one under a new id in the same
// worktree. The old record is marked killed.
func Restart(opts RestartOptions) (*agent.RestartResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	wt, old := m.Agent(opts.Agent)
	if old == nil {
		return nil, errs.New(errs.AgentNotFound, "no agent %q", opts.Agent)
	}

	agentType, agentCfg, err := env.Config.Agent(old.AgentType)
	if err != nil {
		// The configured type may have been removed since the original
		// spawn; fall back to the default agent.
		agentType, agentCfg, err = env.Config.Agent("")
		if err != nil {
			return nil, err
		}
	}

	return agent.Restart(env.ProjectRoot, env.Tmux, old, wt, m.SessionName, agentType, agentCfg, opts.Prompt)
}
