// Package guard implements self-protection: the discipline of never
// killing the tmux pane that hosts the current process.
//
// A Guard is built once per destructive operation and passed by value to
// every helper that issues kills. Skipped items are surfaced in operation
// results, never silently dropped.
package guard

import (
	"os"

	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/tmux"
)

// Guard captures the caller's own pane and a snapshot of the session's
// panes taken at operation start.
type Guard struct {
	// SelfPane is the caller's pane id ("%N"), or "" when the caller is
	// not inside the multiplexer.
	SelfPane string

	// Panes is the session pane map keyed by pane id.
	Panes map[string]tmux.PaneInfo
}

// New builds a guard for the session. The caller's pane comes from
// TMUX_PANE when present, otherwise from matching the caller's process
// ancestry against the pane root processes: an env-scrubbed subshell
// inside a pane is still recognized as self. Probe failures degrade to
// an empty pane map, where only exact pane-id matches apply.
func New(t *tmux.Tmux, session string) Guard {
	g := Guard{SelfPane: tmux.CurrentPaneID()}
	panes, err := t.ListSessionPanes(session)
	if err != nil {
		return g
	}
	g.Panes = panes
	if g.SelfPane == "" {
		g.SelfPane = paneByAncestry(panes, ancestorPIDs(os.Getpid()))
	}
	return g
}

// selfWindow returns the window index containing the caller's pane, or -1.
func (g Guard) selfWindow() int {
	if g.SelfPane == "" {
		return -1
	}
	if info, ok := g.Panes[g.SelfPane]; ok {
		return info.WindowIndex
	}
	return -1
}

// TargetIsSelf reports whether killing the given tmux target would take
// down the caller: the target is the caller's pane, or a window that
// contains it.
func (g Guard) TargetIsSelf(target string) bool {
	if g.SelfPane == "" || target == "" {
		return false
	}
	if tmux.IsPaneID(target) {
		return target == g.SelfPane
	}
	win := tmux.TargetWindowIndex(target)
	return win >= 0 && win == g.selfWindow()
}

// WouldAffectWorktree reports whether cleaning up the worktree's window
// tree would destroy the caller's pane.
func (g Guard) WouldAffectWorktree(wt *manifest.Worktree) bool {
	if g.SelfPane == "" {
		return false
	}
	if g.TargetIsSelf(wt.TmuxWindow) {
		return true
	}
	for _, ag := range wt.Agents {
		if g.TargetIsSelf(ag.TmuxTarget) {
			return true
		}
	}
	// The worktree may own windows beyond the ones referenced by agent
	// targets; match by the window naming convention as well.
	selfWin := g.selfWindow()
	if selfWin < 0 {
		return false
	}
	if info, ok := g.Panes[g.SelfPane]; ok {
		if info.WindowName == wt.ID {
			return true
		}
	}
	return false
}

// ExcludeAgents partitions agents into those safe to kill and those whose
// pane equals or contains the caller's pane.
func (g Guard) ExcludeAgents(agents []*manifest.Agent) (safe, skipped []*manifest.Agent) {
	for _, ag := range agents {
		if g.TargetIsSelf(ag.TmuxTarget) {
			skipped = append(skipped, ag)
			continue
		}
		safe = append(safe, ag)
	}
	return safe, skipped
}
