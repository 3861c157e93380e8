// Package swarm loads swarm definitions: YAML templates describing one
// or more agent spawns with shared or isolated worktrees.
package swarm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/prompt"
)

// AgentSpec is one agent within a swarm.
type AgentSpec struct {
	Name   string            `yaml:"name"`
	Agent  string            `yaml:"agent,omitempty"`
	Prompt string            `yaml:"prompt"`
	Vars   map[string]string `yaml:"vars,omitempty"`
}

// Definition is a parsed swarm file.
type Definition struct {
	Name string `yaml:"name"`

	// Isolated gives each agent its own worktree; otherwise all agents
	// share one worktree in separate windows.
	Isolated bool `yaml:"isolated,omitempty"`

	// Base overrides the base branch for created worktrees.
	Base string `yaml:"base,omitempty"`

	// Vars are definition-level template variables, overridden by
	// per-agent vars and then by caller vars.
	Vars map[string]string `yaml:"vars,omitempty"`

	Agents []AgentSpec `yaml:"agents"`
}

// Load finds and parses a named swarm definition.
func Load(projectRoot, name string) (*Definition, error) {
	path, err := prompt.FindNamed(projectRoot, "swarms", name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading swarm file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errs.Wrap(errs.InvalidArgs, err, "parsing swarm %s", path)
	}
	if def.Name == "" {
		def.Name = name
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks structural requirements before any side effect.
func (d *Definition) Validate() error {
	if len(d.Agents) == 0 {
		return errs.New(errs.InvalidArgs, "swarm %q defines no agents", d.Name)
	}
	seen := make(map[string]bool)
	for i, a := range d.Agents {
		if a.Prompt == "" {
			return errs.New(errs.InvalidArgs, "swarm %q agent %d has no prompt", d.Name, i)
		}
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("agent-%d", i+1)
		}
		if seen[name] {
			return errs.New(errs.InvalidArgs, "swarm %q has duplicate agent name %q", d.Name, name)
		}
		seen[name] = true
	}
	return nil
}

// RenderPrompts resolves each agent's prompt with vars layered:
// definition-level vars are overridden by per-agent vars, which are
// overridden by caller vars.
func (d *Definition) RenderPrompts(callerVars map[string]string) ([]string, error) {
	prompts := make([]string, len(d.Agents))
	for i, a := range d.Agents {
		merged := make(map[string]string)
		for k, v := range d.Vars {
			merged[k] = v
		}
		for k, v := range a.Vars {
			merged[k] = v
		}
		for k, v := range callerVars {
			merged[k] = v
		}
		text, err := prompt.Render(a.Prompt, merged)
		if err != nil {
			return nil, fmt.Errorf("swarm %q agent %q: %w", d.Name, a.Name, err)
		}
		prompts[i] = text
	}
	return prompts, nil
}
