// Package agent implements the agent lifecycle engine: spawning,
// killing, restarting, and status-probing the interactive programs that
// live inside tmux panes.
//
// The engine never forks agent processes itself. The terminal
// multiplexer owns every child process; the engine only types commands
// into panes.
package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppgdev/ppg/internal/config"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/ids"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/paths"
	"github.com/ppgdev/ppg/internal/tmux"
)

// promptSnapshotLen bounds the prompt copy stored in the manifest. The
// full prompt lives in the archive file.
const promptSnapshotLen = 400

// SpawnSpec carries everything needed to start one agent.
type SpawnSpec struct {
	AgentID      string
	Name         string
	AgentType    string
	Config       config.AgentConfig
	Prompt       string
	WorktreePath string
	TmuxTarget   string
	ProjectRoot  string
	Branch       string
	SessionID    string

	// SkipResultInstructions suppresses the canonical result-file block,
	// e.g. on restart when the prompt already carries one.
	SkipResultInstructions bool
}

// Spawn archives the prompt, starts the agent command in the given tmux
// target, and returns a fully populated record with status running.
//
// The caller is expected to have persisted a skeleton worktree record
// already, so a crash mid-spawn leaves a cleanup-addressable entry. On
// failure the returned agent is in status failed with Error set, and the
// error propagates.
func Spawn(t *tmux.Tmux, spec SpawnSpec) (*manifest.Agent, error) {
	ag := &manifest.Agent{
		ID:             spec.AgentID,
		Name:           spec.Name,
		AgentType:      spec.AgentType,
		Status:         manifest.StatusSpawning,
		TmuxTarget:     spec.TmuxTarget,
		SessionID:      spec.SessionID,
		NonInteractive: !spec.Config.Interactive,
		StartedAt:      time.Now().UTC(),
	}

	// Archive the base prompt first so restart can find it even if the
	// launch below fails. The archive holds the prompt without the
	// per-agent result block; that block embeds the agent id and is
	// re-appended on every (re)spawn.
	archivePath := paths.AgentPromptPath(spec.ProjectRoot, spec.AgentID)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		ag.Status = manifest.StatusFailed
		ag.Error = err.Error()
		return ag, fmt.Errorf("creating prompt archive dir: %w", err)
	}
	if err := os.WriteFile(archivePath, []byte(spec.Prompt+"\n"), 0644); err != nil {
		ag.Status = manifest.StatusFailed
		ag.Error = err.Error()
		return ag, fmt.Errorf("archiving prompt: %w", err)
	}

	finalPrompt := spec.Prompt
	if spec.Config.ResultInstructions && !spec.SkipResultInstructions {
		resultFile := paths.ResultFile(spec.ProjectRoot, spec.AgentID)
		finalPrompt += "\n\n" + resultInstructionsBlock(resultFile)
		ag.ResultFile = resultFile
		if err := os.MkdirAll(paths.ResultsDir(spec.ProjectRoot), 0755); err != nil {
			ag.Status = manifest.StatusFailed
			ag.Error = err.Error()
			return ag, fmt.Errorf("creating results dir: %w", err)
		}
	}

	ag.Prompt = snapshot(finalPrompt)

	command := buildCommand(spec.Config, finalPrompt, archivePath)
	if err := t.SendKeys(spec.TmuxTarget, command); err != nil {
		ag.Status = manifest.StatusFailed
		ag.Error = err.Error()
		return ag, fmt.Errorf("starting agent in %s: %w", spec.TmuxTarget, err)
	}

	ag.Status = manifest.StatusRunning
	return ag, nil
}

// resultInstructionsBlock is the canonical trailer asking an agent to
// write its final output where aggregate and pr can find it.
func resultInstructionsBlock(resultFile string) string {
	return fmt.Sprintf(
		"When you are completely finished with this task, write a summary of what you did, "+
			"including any decisions and open issues, to this exact file:\n\n  %s\n\n"+
			"Create the file even if the task failed, and say what went wrong.", resultFile)
}

// buildCommand assembles the shell command typed into the pane.
func buildCommand(ac config.AgentConfig, prompt, promptFile string) string {
	switch {
	case ac.PromptFileFlag != "":
		return fmt.Sprintf("%s %s %s", ac.Command, ac.PromptFileFlag, shellQuote(promptFile))
	case ac.PromptFlag != "":
		return fmt.Sprintf("%s %s %s", ac.Command, ac.PromptFlag, shellQuote(prompt))
	default:
		return fmt.Sprintf("%s %s", ac.Command, shellQuote(prompt))
	}
}

// shellQuote single-quotes s for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func snapshot(prompt string) string {
	if len(prompt) <= promptSnapshotLen {
		return prompt
	}
	return prompt[:promptSnapshotLen] + "…"
}

// Kill tears down the agent's tmux target. Best-effort: a target that is
// already gone is success. Kill does not mutate the manifest; the caller
// does that inside its own update.
func Kill(t *tmux.Tmux, ag *manifest.Agent) error {
	if ag.TmuxTarget == "" {
		return nil
	}
	var err error
	if tmux.IsPaneID(ag.TmuxTarget) || strings.Contains(ag.TmuxTarget, ".") {
		err = t.KillPane(ag.TmuxTarget)
	} else {
		err = t.KillWindow(ag.TmuxTarget)
	}
	if err != nil && isGoneError(err) {
		return nil
	}
	return err
}

// KillAll kills a batch of agents, collecting per-agent failures without
// stopping.
func KillAll(t *tmux.Tmux, agents []*manifest.Agent) []error {
	var errsOut []error
	for _, ag := range agents {
		if err := Kill(t, ag); err != nil {
			errsOut = append(errsOut, fmt.Errorf("killing %s: %w", ag.ID, err))
		}
	}
	return errsOut
}

func isGoneError(err error) bool {
	return errors.Is(err, tmux.ErrTargetNotFound) ||
		errors.Is(err, tmux.ErrSessionNotFound) ||
		errors.Is(err, tmux.ErrNoServer)
}

// RestartResult reports the outcome of a restart.
type RestartResult struct {
	OldAgentID string `json:"oldAgentId"`
	NewAgentID string `json:"newAgentId"`
	TmuxTarget string `json:"tmuxTarget"`
}

// Restart replaces an agent with a fresh one in the same worktree. The
// old agent is killed if live; a new id is allocated, a new window is
// created, and the new agent is spawned with promptText or, when empty,
// the old agent's archived prompt. One manifest update marks the old
// agent killed and inserts the new record.
//
// Master agents are rejected: they are not owned by a worktree and have
// no branch context to respawn into.
func Restart(projectRoot string, t *tmux.Tmux, old *manifest.Agent, wt *manifest.Worktree, sessionName, agentType string, ac config.AgentConfig, promptText string) (*RestartResult, error) {
	if wt == nil {
		return nil, errs.New(errs.InvalidArgs, "cannot restart master agent %s", old.ID)
	}

	if promptText == "" {
		data, err := os.ReadFile(paths.AgentPromptPath(projectRoot, old.ID))
		if err != nil {
			return nil, errs.New(errs.PromptNotFound, "no archived prompt for %s", old.ID)
		}
		promptText = strings.TrimRight(string(data), "\n")
	}

	if old.Status.Live() {
		_ = Kill(t, old)
	}

	newID := ids.NewAgentID()
	target, err := t.CreateWindow(sessionName, wt.ID, wt.Path)
	if err != nil {
		return nil, fmt.Errorf("creating window for restart: %w", err)
	}

	newAgent, err := Spawn(t, SpawnSpec{
		AgentID:      newID,
		Name:         old.Name,
		AgentType:    agentType,
		Config:       ac,
		Prompt:       promptText,
		WorktreePath: wt.Path,
		TmuxTarget:   target,
		ProjectRoot:  projectRoot,
		Branch:       wt.Branch,
		SessionID:    ids.NewSessionID(),
	})
	if err != nil {
		return nil, err
	}

	_, err = manifest.Update(projectRoot, func(m *manifest.Manifest) error {
		liveWt := m.Worktrees[wt.ID]
		if liveWt == nil {
			return errs.New(errs.WorktreeNotFound, "worktree %s disappeared during restart", wt.ID)
		}
		if oldLive, ok := liveWt.Agents[old.ID]; ok {
			oldLive.MarkTerminal(manifest.StatusKilled)
		}
		liveWt.Agents[newID] = newAgent
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RestartResult{
		OldAgentID: old.ID,
		NewAgentID: newID,
		TmuxTarget: target,
	}, nil
}
