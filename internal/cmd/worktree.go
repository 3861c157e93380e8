package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/git"
	"github.com/ppgdev/ppg/internal/ids"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/style"
	"github.com/ppgdev/ppg/internal/worktree"
)

var worktreeCmd = &cobra.Command{
	Use:     "worktree",
	GroupID: GroupCore,
	Short:   "Manage worktrees without spawning agents",
	RunE:    requireSubcommand,
}

var worktreeCreateFlags struct {
	name string
	base string
}

var worktreeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty worktree",
	Long: `Create a worktree with no agents, for manual work or later attach.

Examples:
  ppg worktree create --name docs
  ppg worktree create --name hotfix --base release/2.1`,
	Args: cobra.NoArgs,
	RunE: runWorktreeCreate,
}

func init() {
	f := worktreeCreateCmd.Flags()
	f.StringVar(&worktreeCreateFlags.name, "name", "", "worktree name")
	f.StringVar(&worktreeCreateFlags.base, "base", "", "base branch (default: current branch)")
	worktreeCmd.AddCommand(worktreeCreateCmd)
	rootCmd.AddCommand(worktreeCmd)
}

func runWorktreeCreate(cmd *cobra.Command, args []string) error {
	root, err := ops.ResolveProjectRoot(projectRootFlag)
	if err != nil {
		return err
	}

	name := ids.SanitizeName(worktreeCreateFlags.name)
	branch := "ppg/" + name
	base := worktreeCreateFlags.base
	if base == "" {
		base, err = git.NewGit(root).CurrentBranch()
		if err != nil {
			return err
		}
	}

	wtID := ids.NewWorktreeID()
	m, err := manifest.Read(root)
	if err != nil {
		return err
	}
	if m.BranchInUse(branch) {
		return errs.New(errs.InvalidArgs, "branch %q already has a worktree", branch)
	}

	path, err := worktree.Create(root, wtID, branch, base)
	if err != nil {
		return err
	}
	record := &manifest.Worktree{
		ID:         wtID,
		Name:       name,
		Path:       path,
		Branch:     branch,
		BaseBranch: base,
		Status:     manifest.WorktreeActive,
		Agents:     make(map[string]*manifest.Agent),
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := manifest.Update(root, func(m *manifest.Manifest) error {
		m.Worktrees[wtID] = record
		return nil
	}); err != nil {
		return err
	}

	result := map[string]string{"worktreeId": wtID, "name": name, "branch": branch, "path": path}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "created", style.ID.Render(wtID), style.Dim.Render(path))
	})
}
