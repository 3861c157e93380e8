package agent

import (
	"strings"
	"testing"

	"github.com/ppgdev/ppg/internal/config"
)

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name string
		ac   config.AgentConfig
		want string
	}{
		{
			name: "prompt file flag preferred",
			ac:   config.AgentConfig{Command: "claude", PromptFlag: "--prompt", PromptFileFlag: "--prompt-file"},
			want: "claude --prompt-file '/proj/.ppg/agent-prompts/ag-abcd1234.md'",
		},
		{
			name: "prompt flag",
			ac:   config.AgentConfig{Command: "aider", PromptFlag: "--message"},
			want: "aider --message 'fix the bug'",
		},
		{
			name: "trailing argument",
			ac:   config.AgentConfig{Command: "claude"},
			want: "claude 'fix the bug'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildCommand(tt.ac, "fix the bug", "/proj/.ppg/agent-prompts/ag-abcd1234.md")
			if got != tt.want {
				t.Errorf("buildCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"with spaces", "'with spaces'"},
		{"don't break", `'don'\''t break'`},
		{"", "''"},
		{"$HOME `cmd`", "'$HOME `cmd`'"},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	short := "a short prompt"
	if got := snapshot(short); got != short {
		t.Errorf("snapshot() truncated a short prompt")
	}

	long := strings.Repeat("x", promptSnapshotLen+100)
	got := snapshot(long)
	if len(got) > promptSnapshotLen+len("…") {
		t.Errorf("snapshot() length = %d, want at most %d", len(got), promptSnapshotLen+len("…"))
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("truncated snapshot missing ellipsis")
	}
}

func TestResultInstructionsBlock(t *testing.T) {
	block := resultInstructionsBlock("/proj/.ppg/results/ag-abcd1234.md")
	if !strings.Contains(block, "/proj/.ppg/results/ag-abcd1234.md") {
		t.Error("block does not mention the result file")
	}
	if !strings.Contains(block, "even if the task failed") {
		t.Error("block does not ask for output on failure")
	}
}
