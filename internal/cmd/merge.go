package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/style"
)

var mergeFlags struct {
	strategy  string
	noCleanup bool
	force     bool
}

var mergeCmd = &cobra.Command{
	Use:     "merge <worktree>",
	GroupID: GroupCore,
	Short:   "Merge a worktree's branch into its base branch",
	Long: `Merge a worktree back into its base branch, squashing by default,
then tear the worktree down.

Examples:
  ppg merge tests
  ppg merge wt-a1b2c3 --strategy no-ff --no-cleanup
  ppg merge tests --force`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	f := mergeCmd.Flags()
	f.StringVar(&mergeFlags.strategy, "strategy", "squash", "merge strategy: squash or no-ff")
	f.BoolVar(&mergeFlags.noCleanup, "no-cleanup", false, "keep the worktree after merging")
	f.BoolVar(&mergeFlags.force, "force", false, "merge even with running agents")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	cleanup := !mergeFlags.noCleanup
	result, err := ops.Merge(ops.MergeOptions{
		ProjectRoot: projectRootFlag,
		Worktree:    args[0],
		Strategy:    mergeFlags.strategy,
		Cleanup:     &cleanup,
		Force:       mergeFlags.force,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "merged", style.ID.Render(result.WorktreeID),
			style.Dim.Render(result.Branch+" → "+result.BaseBranch))
		if result.CleanedUp {
			fmt.Println(" ", style.Dim.Render("worktree cleaned up"))
		}
		if result.SelfProtected {
			fmt.Println(" ", style.Warning.Render("cleanup skipped: worktree hosts this process"))
		}
	})
}

// pr

var prFlags struct {
	title string
	body  string
	draft bool
}

var prCmd = &cobra.Command{
	Use:     "pr <worktree>",
	GroupID: GroupCore,
	Short:   "Push a worktree's branch and open a pull request",
	Long: `Push the worktree's branch and open a GitHub pull request against its
base branch. The default body is assembled from agent result files.

Examples:
  ppg pr tests
  ppg pr tests --title "Fix flaky tests" --draft`,
	Args: cobra.ExactArgs(1),
	RunE: runPr,
}

func init() {
	f := prCmd.Flags()
	f.StringVar(&prFlags.title, "title", "", "PR title (default: worktree name)")
	f.StringVar(&prFlags.body, "body", "", "PR body (default: joined agent results)")
	f.BoolVar(&prFlags.draft, "draft", false, "open as draft")
	rootCmd.AddCommand(prCmd)
}

func runPr(cmd *cobra.Command, args []string) error {
	result, err := ops.Pr(ops.PrOptions{
		ProjectRoot: projectRootFlag,
		Worktree:    args[0],
		Title:       prFlags.title,
		Body:        prFlags.body,
		Draft:       prFlags.draft,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "opened", result.URL)
	})
}

// clean

var cleanDelete bool

var cleanCmd = &cobra.Command{
	Use:     "clean <worktree>",
	GroupID: GroupCore,
	Short:   "Tear down one worktree",
	Args:    cobra.ExactArgs(1),
	RunE:    runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDelete, "delete", false, "also delete the manifest record")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	result, err := ops.Clean(ops.CleanOptions{
		ProjectRoot: projectRootFlag,
		Worktree:    args[0],
		Delete:      cleanDelete,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		if result.SelfProtected {
			fmt.Println(style.Warning.Render("skipped:"), result.WorktreeID, "hosts this process")
			return
		}
		fmt.Println(style.Success.Render("✓"), "cleaned", style.ID.Render(result.WorktreeID))
	})
}

// reset

var resetFlags struct {
	force          bool
	prune          bool
	includeOpenPrs bool
}

var resetCmd = &cobra.Command{
	Use:     "reset",
	GroupID: GroupCore,
	Short:   "Tear down every worktree in the project",
	Long: `Remove every worktree: kill agents, clean up windows and directories,
and drop the records. Worktrees with unmerged, un-PR'd agent work block
the reset unless --force; worktrees with open PRs are kept unless
--include-open-prs.

Examples:
  ppg reset
  ppg reset --force --prune`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	f := resetCmd.Flags()
	f.BoolVar(&resetFlags.force, "force", false, "proceed despite unmerged work")
	f.BoolVar(&resetFlags.prune, "prune", false, "run git worktree prune afterwards")
	f.BoolVar(&resetFlags.includeOpenPrs, "include-open-prs", false, "also remove worktrees with open PRs")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	result, err := ops.Reset(ops.ResetOptions{
		ProjectRoot:    projectRootFlag,
		Force:          resetFlags.force,
		Prune:          resetFlags.prune,
		IncludeOpenPrs: resetFlags.includeOpenPrs,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "removed", len(result.Removed), "worktrees")
		for _, id := range result.Skipped {
			fmt.Println(" ", style.Warning.Render("skipped"), id)
		}
		if result.OrphansKilled > 0 {
			fmt.Println(" ", style.Dim.Render(fmt.Sprintf("killed %d orphan windows", result.OrphansKilled)))
		}
	})
}
