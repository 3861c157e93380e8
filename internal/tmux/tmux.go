// Package tmux provides a wrapper for tmux operations via subprocess.
//
// Targets are opaque strings in tmux's own syntax: "session",
// "session:window", "session:window.pane", or a pane id like "%3". This
// is the only package in the kernel that shells out to the multiplexer.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Common errors. Callers distinguish a missing tmux installation
// (ErrNotInstalled), a stale target (ErrTargetNotFound), and everything
// else.
var (
	ErrNotInstalled    = errors.New("tmux not installed")
	ErrNoServer        = errors.New("no tmux server running")
	ErrSessionNotFound = errors.New("session not found")
	ErrTargetNotFound  = errors.New("target not found")
)

// SendDebounce is the delay between pasting text and pressing Enter.
// Interactive agents drop the Enter when it arrives mid-paste.
const SendDebounce = 100 * time.Millisecond

// Tmux wraps tmux operations.
type Tmux struct{}

// New creates a new Tmux wrapper.
func New() *Tmux {
	return &Tmux{}
}

// run executes a tmux command and returns stdout.
func (t *Tmux) run(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return "", t.wrapError(err, stderr.String(), args)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// wrapError classifies tmux failures into the sentinel errors above.
func (t *Tmux) wrapError(err error, stderr string, args []string) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return ErrNotInstalled
	}

	stderr = strings.TrimSpace(stderr)
	switch {
	case strings.Contains(stderr, "no server running"),
		strings.Contains(stderr, "error connecting to"):
		return ErrNoServer
	case strings.Contains(stderr, "session not found"),
		strings.Contains(stderr, "can't find session"):
		return ErrSessionNotFound
	case strings.Contains(stderr, "can't find window"),
		strings.Contains(stderr, "can't find pane"),
		strings.Contains(stderr, "window not found"):
		return fmt.Errorf("%w: tmux %s: %s", ErrTargetNotFound, args[0], stderr)
	}

	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// IsAvailable checks if tmux is installed and can be invoked.
func (t *Tmux) IsAvailable() bool {
	cmd := exec.Command("tmux", "-V")
	return cmd.Run() == nil
}

// EnsureSession creates a detached session if it does not already exist.
// The initial window is named "ppg" so the orphan sweeper never touches it.
func (t *Tmux) EnsureSession(name, workDir string) error {
	exists, err := t.HasSession(name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	args := []string{"new-session", "-d", "-s", name, "-n", "ppg"}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	_, err = t.run(args...)
	return err
}

// NewSessionWithWindow creates a detached session whose initial window
// carries the given name and working directory, and returns that
// window's target. Used when the first worktree window doubles as the
// session's first window.
func (t *Tmux) NewSessionWithWindow(session, windowName, workDir string) (string, error) {
	args := []string{"new-session", "-d", "-s", session, "-n", windowName,
		"-P", "-F", "#{session_name}:#{window_index}"}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	return t.run(args...)
}

// HasSession checks if a session exists (exact match).
// Uses "=" prefix for exact matching, preventing prefix matches.
func (t *Tmux) HasSession(name string) (bool, error) {
	_, err := t.run("has-session", "-t", "="+name)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListSessions returns all session names.
func (t *Tmux) ListSessions() ([]string, error) {
	out, err := t.run("list-sessions", "-F", "#{session_name}")
	if err != nil {
		if errors.Is(err, ErrNoServer) {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// KillSession terminates a tmux session.
func (t *Tmux) KillSession(name string) error {
	_, err := t.run("kill-session", "-t", "="+name)
	return err
}

// CreateWindow creates a detached window in the session and returns its
// target ("session:index").
func (t *Tmux) CreateWindow(session, name, workDir string) (string, error) {
	args := []string{"new-window", "-d", "-t", session + ":", "-n", name,
		"-P", "-F", "#{session_name}:#{window_index}"}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	return t.run(args...)
}

// KillWindow kills the window addressed by target ("session:window").
func (t *Tmux) KillWindow(target string) error {
	_, err := t.run("kill-window", "-t", target)
	return err
}

// KillPane kills a single pane ("%id" or "session:window.pane").
func (t *Tmux) KillPane(target string) error {
	_, err := t.run("kill-pane", "-t", target)
	return err
}

// WindowInfo identifies one window in a session.
type WindowInfo struct {
	Index int
	Name  string
}

// ListSessionWindows returns the windows of a session in index order.
func (t *Tmux) ListSessionWindows(session string) ([]WindowInfo, error) {
	out, err := t.run("list-windows", "-t", session, "-F", "#{window_index}|#{window_name}")
	if err != nil {
		return nil, err
	}
	var windows []WindowInfo
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			continue
		}
		idx, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		windows = append(windows, WindowInfo{Index: idx, Name: parts[1]})
	}
	return windows, nil
}

// SplitDirection selects the axis of a pane split.
type SplitDirection string

const (
	SplitHorizontal SplitDirection = "horizontal"
	SplitVertical   SplitDirection = "vertical"
)

// SplitPane splits the window and returns the new pane's id ("%N").
func (t *Tmux) SplitPane(windowTarget string, dir SplitDirection, workDir string) (string, error) {
	flag := "-h"
	if dir == SplitVertical {
		flag = "-v"
	}
	args := []string{"split-window", "-d", flag, "-t", windowTarget,
		"-P", "-F", "#{pane_id}"}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	return t.run(args...)
}

// SelectWindow makes the window current in its session.
func (t *Tmux) SelectWindow(target string) error {
	_, err := t.run("select-window", "-t", target)
	return err
}

// SelectPane makes the pane current in its window.
func (t *Tmux) SelectPane(target string) error {
	_, err := t.run("select-pane", "-t", target)
	return err
}

// IsInside checks if the current process is running inside a tmux session.
func IsInside() bool {
	return os.Getenv("TMUX") != ""
}

// CurrentPaneID returns the caller's own pane id ("%N"), or "" when the
// process is not inside tmux.
func CurrentPaneID() string {
	return os.Getenv("TMUX_PANE")
}

// SendKeys pastes text into the target and presses Enter.
// Text is sent in literal mode to handle special characters, then Enter
// is sent separately after a short debounce. The separate Enter is more
// reliable than appending a newline to the paste.
func (t *Tmux) SendKeys(target, text string) error {
	if _, err := t.run("send-keys", "-t", target, "-l", text); err != nil {
		return err
	}
	time.Sleep(SendDebounce)
	_, err := t.run("send-keys", "-t", target, "Enter")
	return err
}

// SendLiteral pastes text without pressing Enter.
func (t *Tmux) SendLiteral(target, text string) error {
	_, err := t.run("send-keys", "-t", target, "-l", text)
	return err
}

// SendRawKeys sends a named key such as "C-c" or "Enter".
func (t *Tmux) SendRawKeys(target, key string) error {
	_, err := t.run("send-keys", "-t", target, key)
	return err
}

// CapturePane captures the last n lines of a pane. n <= 0 captures the
// visible content.
func (t *Tmux) CapturePane(target string, n int) (string, error) {
	args := []string{"capture-pane", "-p", "-t", target}
	if n > 0 {
		args = append(args, "-S", fmt.Sprintf("-%d", n))
	}
	return t.run(args...)
}

// PaneInfo describes one pane in a session.
type PaneInfo struct {
	ID          string
	WindowIndex int
	WindowName  string
	Command     string
	PID         int
	Dead        bool
}

const paneFormat = "#{pane_id}|#{window_index}|#{window_name}|#{pane_current_command}|#{pane_pid}|#{pane_dead}"

func parsePaneLine(line string) (PaneInfo, bool) {
	parts := strings.Split(line, "|")
	if len(parts) < 6 {
		return PaneInfo{}, false
	}
	idx, _ := strconv.Atoi(parts[1])
	pid, _ := strconv.Atoi(parts[4])
	return PaneInfo{
		ID:          parts[0],
		WindowIndex: idx,
		WindowName:  parts[2],
		Command:     parts[3],
		PID:         pid,
		Dead:        parts[5] == "1",
	}, true
}

// ListSessionPanes returns every pane in the session keyed by pane id.
// This is the batched probe the status reconciler runs once per refresh.
func (t *Tmux) ListSessionPanes(session string) (map[string]PaneInfo, error) {
	out, err := t.run("list-panes", "-s", "-t", session, "-F", paneFormat)
	if err != nil {
		return nil, err
	}

	panes := make(map[string]PaneInfo)
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		if info, ok := parsePaneLine(line); ok {
			panes[info.ID] = info
		}
	}
	return panes, nil
}

// PaneAt returns info for a single target, or nil if the target is gone.
func (t *Tmux) PaneAt(target string) (*PaneInfo, error) {
	out, err := t.run("list-panes", "-t", target, "-F", paneFormat)
	if err != nil {
		if errors.Is(err, ErrTargetNotFound) || errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return nil, nil
		}
		return nil, err
	}
	lines := strings.Split(out, "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, nil
	}
	info, ok := parsePaneLine(lines[0])
	if !ok {
		return nil, fmt.Errorf("unexpected pane info format: %s", lines[0])
	}
	return &info, nil
}

// KillOrphanWindows kills windows whose names mark them as ppg-owned
// ("wt-" or "ag-" prefixed) but which the caller no longer references.
// Windows containing exceptPane are skipped. Returns the kill count.
func (t *Tmux) KillOrphanWindows(session string, referenced map[string]bool, exceptPane string) (int, error) {
	windows, err := t.ListSessionWindows(session)
	if err != nil {
		return 0, err
	}

	selfWindow := -1
	if exceptPane != "" {
		if panes, err := t.ListSessionPanes(session); err == nil {
			if info, ok := panes[exceptPane]; ok {
				selfWindow = info.WindowIndex
			}
		}
	}

	killed := 0
	for _, w := range windows {
		if !strings.HasPrefix(w.Name, "wt-") && !strings.HasPrefix(w.Name, "ag-") {
			continue
		}
		if referenced[w.Name] {
			continue
		}
		if w.Index == selfWindow {
			continue
		}
		if err := t.KillWindow(WindowTarget(session, w.Index)); err == nil {
			killed++
		}
	}
	return killed, nil
}

// WindowTarget formats a window target from a session and window index.
func WindowTarget(session string, index int) string {
	return fmt.Sprintf("%s:%d", session, index)
}

// TargetWindowIndex extracts the window index from a "session:window" or
// "session:window.pane" target. Returns -1 when the target does not carry
// a window index (e.g., a bare pane id).
func TargetWindowIndex(target string) int {
	idx := strings.LastIndex(target, ":")
	if idx < 0 {
		return -1
	}
	win := target[idx+1:]
	if dot := strings.Index(win, "."); dot >= 0 {
		win = win[:dot]
	}
	n, err := strconv.Atoi(win)
	if err != nil {
		return -1
	}
	return n
}

// IsPaneID reports whether target is a bare pane id like "%12".
func IsPaneID(target string) bool {
	if !strings.HasPrefix(target, "%") {
		return false
	}
	_, err := strconv.Atoi(target[1:])
	return err == nil
}
