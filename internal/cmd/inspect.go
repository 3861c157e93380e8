package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/style"
)

// logs

var logsLines int

var logsCmd = &cobra.Command{
	Use:     "logs <agent>",
	GroupID: GroupStatus,
	Short:   "Capture an agent's pane content",
	Args:    cobra.ExactArgs(1),
	RunE:    runLogs,
}

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "scrollback lines to capture (0 = visible pane)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	result, err := ops.Logs(ops.LogsOptions{
		ProjectRoot: projectRootFlag,
		Agent:       args[0],
		Lines:       logsLines,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(result.Content)
	})
}

// aggregate

var aggregateWorktree string

var aggregateCmd = &cobra.Command{
	Use:     "aggregate",
	GroupID: GroupStatus,
	Short:   "Join agent result files into one report",
	Args:    cobra.NoArgs,
	RunE:    runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateWorktree, "worktree", "", "limit to one worktree")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	result, err := ops.Aggregate(ops.AggregateOptions{
		ProjectRoot: projectRootFlag,
		Worktree:    aggregateWorktree,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		if result.Combined == "" {
			fmt.Println(style.Dim.Render("no results yet"))
			return
		}
		fmt.Println(result.Combined)
	})
}

// diff

var diffCmd = &cobra.Command{
	Use:     "diff <worktree>",
	GroupID: GroupStatus,
	Short:   "Summarize a worktree's changes against its base branch",
	Args:    cobra.ExactArgs(1),
	RunE:    runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	result, err := ops.Diff(ops.DiffOptions{
		ProjectRoot: projectRootFlag,
		Worktree:    args[0],
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		if len(result.Files) == 0 {
			fmt.Println(style.Dim.Render("no changes"))
			return
		}
		for _, f := range result.Files {
			fmt.Printf("  %s %s %s\n",
				style.Success.Render(fmt.Sprintf("+%d", f.Added)),
				style.Error.Render(fmt.Sprintf("-%d", f.Deleted)),
				f.Path)
		}
		fmt.Printf("%s +%d -%d across %d files\n",
			style.Bold.Render("total"), result.Added, result.Deleted, len(result.Files))
	})
}

// attach

var attachCmd = &cobra.Command{
	Use:     "attach [worktree]",
	GroupID: GroupStatus,
	Short:   "Attach the terminal to the project's tmux session",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}
