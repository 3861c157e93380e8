package cmd

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/tmux"
)

func runAttach(cmd *cobra.Command, args []string) error {
	root, err := ops.ResolveProjectRoot(projectRootFlag)
	if err != nil {
		return err
	}
	m, err := manifest.Read(root)
	if err != nil {
		return err
	}

	t := tmux.New()
	if !t.IsAvailable() {
		return errs.New(errs.TmuxNotFound, "tmux is not installed")
	}

	if len(args) == 1 {
		wt := m.Worktree(args[0])
		if wt == nil {
			return errs.New(errs.WorktreeNotFound, "no worktree %q", args[0])
		}
		if wt.TmuxWindow != "" {
			_ = t.SelectWindow(wt.TmuxWindow)
		}
	}

	tmuxPath, err := exec.LookPath("tmux")
	if err != nil {
		return errs.New(errs.TmuxNotFound, "tmux is not installed")
	}

	// Replace this process with tmux for direct terminal control.
	// switch-client is required when already inside a tmux client.
	argv := []string{"tmux", "-u", "attach-session", "-t", "=" + m.SessionName}
	if tmux.IsInside() {
		argv = []string{"tmux", "-u", "switch-client", "-t", "=" + m.SessionName}
	}
	return syscall.Exec(tmuxPath, argv, os.Environ())
}
