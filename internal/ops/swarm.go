package ops

import (
	"fmt"

	"github.com/ppgdev/ppg/internal/prompt"
	"github.com/ppgdev/ppg/internal/swarm"
)

// SwarmOptions configures a swarm spawn.
type SwarmOptions struct {
	ProjectRoot string            `json:"-"`
	Name        string            `json:"name"`
	Vars        map[string]string `json:"vars,omitempty"`
	// Base overrides the definition's base branch.
	Base string `json:"base,omitempty"`
}

// SwarmResult reports every spawn a swarm performed.
type SwarmResult struct {
	Swarm  string        `json:"swarm"`
	Spawns []SpawnResult `json:"spawns"`
}

// Swarm spawns the agents of a named swarm definition. An isolated
// swarm gives each agent its own worktree; otherwise the first agent's
// worktree is shared and later agents attach to it in their own windows.
func Swarm(opts SwarmOptions) (*SwarmResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	def, err := swarm.Load(env.ProjectRoot, opts.Name)
	if err != nil {
		return nil, err
	}
	prompts, err := def.RenderPrompts(opts.Vars)
	if err != nil {
		return nil, err
	}

	base := opts.Base
	if base == "" {
		base = def.Base
	}

	result := &SwarmResult{Swarm: def.Name}
	sharedWorktree := ""
	for i, spec := range def.Agents {
		agentName := spec.Name
		if agentName == "" {
			agentName = fmt.Sprintf("agent-%d", i+1)
		}

		spawnOpts := SpawnOptions{
			Agent:  spec.Agent,
			Prompt: prompt.Source{Inline: prompts[i]},
		}
		switch {
		case def.Isolated:
			spawnOpts.Name = fmt.Sprintf("%s-%s", def.Name, agentName)
			spawnOpts.Base = base
		case sharedWorktree == "":
			spawnOpts.Name = def.Name
			spawnOpts.Base = base
		default:
			spawnOpts.Worktree = sharedWorktree
		}

		res, err := spawn(env, spawnOpts)
		if err != nil {
			return result, fmt.Errorf("swarm %q agent %q: %w", def.Name, agentName, err)
		}
		if !def.Isolated && sharedWorktree == "" {
			sharedWorktree = res.WorktreeID
		}
		result.Spawns = append(result.Spawns, *res)
	}
	return result, nil
}
