// Package errs defines the error taxonomy shared by every ppg operation.
// Each error carries a short stable code that CLI and API callers map to
// exit codes and HTTP statuses.
package errs

import (
	"errors"
	"fmt"
)

// Code is a short stable identifier for an error class.
type Code string

const (
	NotGitRepo       Code = "NOT_GIT_REPO"
	NotInitialized   Code = "NOT_INITIALIZED"
	TmuxNotFound     Code = "TMUX_NOT_FOUND"
	ManifestLock     Code = "MANIFEST_LOCK"
	WorktreeNotFound Code = "WORKTREE_NOT_FOUND"
	AgentNotFound    Code = "AGENT_NOT_FOUND"
	InvalidArgs      Code = "INVALID_ARGS"
	AgentsRunning    Code = "AGENTS_RUNNING"
	MergeFailed      Code = "MERGE_FAILED"
	UnmergedWork     Code = "UNMERGED_WORK"
	PaneNotFound     Code = "PANE_NOT_FOUND"
	PromptNotFound   Code = "PROMPT_NOT_FOUND"
	GhNotFound       Code = "GH_NOT_FOUND"
	WaitTimeout      Code = "WAIT_TIMEOUT"
)

// Error is a typed error with a stable code. Subprocess failures are
// wrapped so callers can still unwrap the underlying exec error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a typed error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error wrapping an underlying cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the stable code of err, or "" if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// ExitCode maps an error to a CLI exit code: 0 for nil, 2 for wait
// timeouts, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case HasCode(err, WaitTimeout):
		return 2
	default:
		return 1
	}
}

// HTTPStatus maps an error code to the status an API caller should send.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case "":
		if err == nil {
			return 200
		}
		return 500
	case NotGitRepo, NotInitialized, InvalidArgs, PromptNotFound:
		return 400
	case WorktreeNotFound, AgentNotFound:
		return 404
	case ManifestLock, AgentsRunning, UnmergedWork:
		return 409
	case PaneNotFound:
		return 410
	case GhNotFound:
		return 502
	case TmuxNotFound:
		return 503
	default:
		return 500
	}
}
