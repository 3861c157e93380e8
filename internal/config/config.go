// Package config loads the per-project ppg configuration.
//
// The config file is read-only from the kernel's perspective: every
// operation loads it once at the start and treats the result as an
// immutable record.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/ids"
	"github.com/ppgdev/ppg/internal/paths"
)

// DefaultIdleQuiescenceSeconds is how long a pane must show no output
// before the status heuristic classifies its agent as idle. This is an
// approximation knob, not a contract.
const DefaultIdleQuiescenceSeconds = 30

// AgentConfig describes how to start one configured agent program.
type AgentConfig struct {
	// Command is the interactive program to run (e.g., "claude").
	Command string `toml:"command"`

	// PromptFlag passes the prompt inline (e.g., "--prompt"). When empty
	// and PromptFileFlag is empty, the prompt is sent as a trailing
	// argument.
	PromptFlag string `toml:"prompt_flag"`

	// PromptFileFlag passes the archived prompt file path instead of the
	// inline text. Preferred for long prompts.
	PromptFileFlag string `toml:"prompt_file_flag"`

	// Interactive marks the program as a long-lived interactive session.
	Interactive bool `toml:"interactive"`

	// ResultInstructions appends the canonical "write your final output
	// to <resultFile>" block to every prompt.
	ResultInstructions bool `toml:"result_instructions"`
}

// Config is the full project configuration record.
type Config struct {
	SessionName           string                 `toml:"session_name"`
	DefaultAgent          string                 `toml:"default_agent"`
	Agents                map[string]AgentConfig `toml:"agents"`
	EnvFiles              []string               `toml:"env_files"`
	SymlinkNodeModules    bool                   `toml:"symlink_node_modules"`
	IdleQuiescenceSeconds int                    `toml:"idle_quiescence_seconds"`
}

// Default returns the configuration used when no config file exists.
// The session name derives from the project directory name.
func Default(projectRoot string) *Config {
	return &Config{
		SessionName:  ids.SanitizeSessionName("ppg-" + filepath.Base(projectRoot)),
		DefaultAgent: "claude",
		Agents: map[string]AgentConfig{
			"claude": {
				Command:            "claude",
				Interactive:        true,
				ResultInstructions: true,
			},
		},
		IdleQuiescenceSeconds: DefaultIdleQuiescenceSeconds,
	}
}

// Load reads the project config, filling defaults for missing fields.
// A missing config file is not an error; the defaults apply.
func Load(projectRoot string) (*Config, error) {
	cfg := Default(projectRoot)

	data, err := os.ReadFile(paths.ConfigPath(projectRoot))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.InvalidArgs, err, "parsing %s", paths.ConfigPath(projectRoot))
	}

	if cfg.SessionName == "" {
		cfg.SessionName = Default(projectRoot).SessionName
	}
	cfg.SessionName = ids.SanitizeSessionName(cfg.SessionName)
	if cfg.DefaultAgent == "" {
		cfg.DefaultAgent = "claude"
	}
	if cfg.Agents == nil {
		cfg.Agents = Default(projectRoot).Agents
	}
	if cfg.IdleQuiescenceSeconds <= 0 {
		cfg.IdleQuiescenceSeconds = DefaultIdleQuiescenceSeconds
	}
	return cfg, nil
}

// Agent resolves a named agent config, falling back to the default agent
// when name is empty.
func (c *Config) Agent(name string) (string, AgentConfig, error) {
	if name == "" {
		name = c.DefaultAgent
	}
	ac, ok := c.Agents[name]
	if !ok {
		return "", AgentConfig{}, errs.New(errs.InvalidArgs, "unknown agent type %q", name)
	}
	if ac.Command == "" {
		ac.Command = name
	}
	return name, ac, nil
}

// WriteDefault writes a commented starter config if none exists yet.
func WriteDefault(projectRoot string) error {
	path := paths.ConfigPath(projectRoot)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	cfg := Default(projectRoot)

	var buf []byte
	buf = append(buf, "# ppg project configuration\n"...)
	out, err := tomlMarshal(cfg)
	if err != nil {
		return err
	}
	buf = append(buf, out...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, buf, 0644)
}

func tomlMarshal(v any) ([]byte, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return []byte(sb.String()), nil
}
