package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/style"
)

var statusCmd = &cobra.Command{
	Use:     "status [worktree]",
	GroupID: GroupStatus,
	Short:   "Show every worktree, its lifecycle, and its agents",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	opts := ops.StatusOptions{ProjectRoot: projectRootFlag}
	if len(args) == 1 {
		opts.Worktree = args[0]
	}
	result, err := ops.Status(opts)
	if err != nil {
		return err
	}
	return emit(result, func() {
		if len(result.Worktrees) == 0 && len(result.Masters) == 0 {
			fmt.Println(style.Dim.Render("no worktrees (ppg spawn to create one)"))
			return
		}
		for _, wt := range result.Worktrees {
			fmt.Printf("%s %s %s %s\n",
				style.ID.Render(wt.ID),
				style.Bold.Render(wt.Name),
				style.Lifecycle(string(wt.Lifecycle)),
				style.Dim.Render(wt.Branch))
			if wt.PRUrl != "" {
				fmt.Println("  " + style.Dim.Render(wt.PRUrl))
			}
			table := style.NewTable(
				style.Column{Name: "AGENT", Width: 12},
				style.Column{Name: "TYPE", Width: 10},
				style.Column{Name: "STATUS", Width: 10},
				style.Column{Name: "TARGET", Width: 18},
				style.Column{Name: "RESULT", Width: 6},
			)
			for _, ag := range wt.Agents {
				result := ""
				if ag.HasResult {
					result = "yes"
				}
				table.AddRow(ag.ID, ag.AgentType, style.Status(string(ag.Status)), ag.TmuxTarget, result)
			}
			if len(wt.Agents) > 0 {
				fmt.Print(table.Render())
			}
		}
		for _, ag := range result.Masters {
			fmt.Printf("%s %s %s %s\n",
				style.ID.Render(ag.ID),
				style.Bold.Render("master"),
				style.Status(string(ag.Status)),
				style.Dim.Render(ag.TmuxTarget))
		}
	})
}
