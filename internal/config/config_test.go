package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/paths"
)

func TestDefault(t *testing.T) {
	cfg := Default("/home/dev/myproject")
	if cfg.SessionName != "ppg-myproject" {
		t.Errorf("SessionName = %q, want ppg-myproject", cfg.SessionName)
	}
	if cfg.DefaultAgent != "claude" {
		t.Errorf("DefaultAgent = %q, want claude", cfg.DefaultAgent)
	}
	if cfg.IdleQuiescenceSeconds != DefaultIdleQuiescenceSeconds {
		t.Errorf("IdleQuiescenceSeconds = %d, want %d", cfg.IdleQuiescenceSeconds, DefaultIdleQuiescenceSeconds)
	}
	ac, ok := cfg.Agents["claude"]
	if !ok {
		t.Fatal("default agents missing claude")
	}
	if !ac.Interactive || !ac.ResultInstructions {
		t.Error("default claude agent should be interactive with result instructions")
	}
}

func TestDefault_SessionNameSanitized(t *testing.T) {
	// Directory names with tmux-hostile characters must still yield a
	// legal session name.
	cfg := Default("/home/dev/my.project")
	if cfg.SessionName != "ppg-my-project" {
		t.Errorf("SessionName = %q, want ppg-my-project", cfg.SessionName)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.DefaultAgent != "claude" {
		t.Errorf("DefaultAgent = %q, want claude", cfg.DefaultAgent)
	}
}

func TestLoad_File(t *testing.T) {
	root := t.TempDir()
	content := `
session_name = "custom"
default_agent = "aider"
idle_quiescence_seconds = 45

[agents.aider]
command = "aider"
prompt_flag = "--message"

[agents.claude]
command = "claude"
interactive = true
result_instructions = true
`
	writeConfig(t, root, content)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.SessionName != "custom" {
		t.Errorf("SessionName = %q, want custom", cfg.SessionName)
	}
	if cfg.DefaultAgent != "aider" {
		t.Errorf("DefaultAgent = %q, want aider", cfg.DefaultAgent)
	}
	if cfg.IdleQuiescenceSeconds != 45 {
		t.Errorf("IdleQuiescenceSeconds = %d, want 45", cfg.IdleQuiescenceSeconds)
	}
	if cfg.Agents["aider"].PromptFlag != "--message" {
		t.Errorf("aider prompt_flag = %q, want --message", cfg.Agents["aider"].PromptFlag)
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "session_name = [broken")
	_, err := Load(root)
	if !errs.HasCode(err, errs.InvalidArgs) {
		t.Errorf("Load() of broken toml = %v, want INVALID_ARGS", err)
	}
}

func TestLoad_ZeroQuiescenceGetsDefault(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "idle_quiescence_seconds = 0")
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.IdleQuiescenceSeconds != DefaultIdleQuiescenceSeconds {
		t.Errorf("IdleQuiescenceSeconds = %d, want default", cfg.IdleQuiescenceSeconds)
	}
}

func TestAgent_Resolution(t *testing.T) {
	cfg := &Config{
		DefaultAgent: "claude",
		Agents: map[string]AgentConfig{
			"claude": {Command: "claude"},
			"bare":   {},
		},
	}

	name, ac, err := cfg.Agent("")
	if err != nil {
		t.Fatalf("Agent(\"\") = %v", err)
	}
	if name != "claude" || ac.Command != "claude" {
		t.Errorf("default resolution = %q/%q", name, ac.Command)
	}

	// An agent with no command runs its own name.
	_, ac, err = cfg.Agent("bare")
	if err != nil {
		t.Fatalf("Agent(bare) = %v", err)
	}
	if ac.Command != "bare" {
		t.Errorf("bare command = %q, want bare", ac.Command)
	}

	_, _, err = cfg.Agent("nope")
	if !errs.HasCode(err, errs.InvalidArgs) {
		t.Errorf("Agent(nope) = %v, want INVALID_ARGS", err)
	}
}

func TestWriteDefault(t *testing.T) {
	root := t.TempDir()
	if err := WriteDefault(root); err != nil {
		t.Fatalf("WriteDefault() = %v", err)
	}
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() after WriteDefault = %v", err)
	}
	if cfg.DefaultAgent != "claude" {
		t.Errorf("DefaultAgent = %q, want claude", cfg.DefaultAgent)
	}

	// A second WriteDefault must not clobber user edits.
	writeConfig(t, root, `default_agent = "aider"
[agents.aider]
command = "aider"`)
	if err := WriteDefault(root); err != nil {
		t.Fatalf("second WriteDefault() = %v", err)
	}
	cfg, err = Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultAgent != "aider" {
		t.Error("WriteDefault overwrote an existing config")
	}
}

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	path := paths.ConfigPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
