package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := New(WorktreeNotFound, "no worktree %q", "wt-abc123")
	if got := CodeOf(err); got != WorktreeNotFound {
		t.Errorf("CodeOf() = %q, want %q", got, WorktreeNotFound)
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	// The code must survive fmt.Errorf wrapping by callers.
	inner := New(ManifestLock, "lock held")
	outer := fmt.Errorf("refreshing: %w", inner)
	if got := CodeOf(outer); got != ManifestLock {
		t.Errorf("CodeOf(wrapped) = %q, want %q", got, ManifestLock)
	}
}

func TestCodeOf_Plain(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain error) = %q, want empty", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("exit status 128")
	err := Wrap(MergeFailed, cause, "merging branch")
	if !errors.Is(err, cause) {
		t.Error("Wrap() lost the underlying cause")
	}
	if got := CodeOf(err); got != MergeFailed {
		t.Errorf("CodeOf() = %q, want %q", got, MergeFailed)
	}
}

func TestError_Message(t *testing.T) {
	err := New(InvalidArgs, "bad flag %q", "--x")
	want := `INVALID_ARGS: bad flag "--x"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"timeout", New(WaitTimeout, "still busy"), 2},
		{"typed", New(InvalidArgs, "bad"), 1},
		{"plain", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 200},
		{New(InvalidArgs, "bad"), 400},
		{New(PromptNotFound, "missing"), 400},
		{New(WorktreeNotFound, "missing"), 404},
		{New(AgentNotFound, "missing"), 404},
		{New(ManifestLock, "held"), 409},
		{New(AgentsRunning, "busy"), 409},
		{New(UnmergedWork, "at risk"), 409},
		{New(PaneNotFound, "gone"), 410},
		{New(GhNotFound, "no gh"), 502},
		{New(TmuxNotFound, "no tmux"), 503},
		{New(MergeFailed, "conflict"), 500},
		{errors.New("plain"), 500},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
