package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/style"
)

var swarmFlags struct {
	vars []string
	base string
}

var swarmCmd = &cobra.Command{
	Use:     "swarm <name>",
	GroupID: GroupCore,
	Short:   "Spawn the agents of a named swarm definition",
	Long: `Spawn every agent of a swarm definition from .ppg/swarms/ or
~/.ppg/swarms/. Isolated swarms give each agent its own worktree;
otherwise the agents share one.

Examples:
  ppg swarm review
  ppg swarm release --var version=2.1.0`,
	Args: cobra.ExactArgs(1),
	RunE: runSwarm,
}

func init() {
	f := swarmCmd.Flags()
	f.StringArrayVar(&swarmFlags.vars, "var", nil, "template variable key=value (repeatable)")
	f.StringVar(&swarmFlags.base, "base", "", "base branch for created worktrees")
	rootCmd.AddCommand(swarmCmd)
}

func runSwarm(cmd *cobra.Command, args []string) error {
	vars, err := parseVars(swarmFlags.vars)
	if err != nil {
		return err
	}
	result, err := ops.Swarm(ops.SwarmOptions{
		ProjectRoot: projectRootFlag,
		Name:        args[0],
		Vars:        vars,
		Base:        swarmFlags.base,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "swarm", style.Bold.Render(result.Swarm))
		for _, sp := range result.Spawns {
			for _, ag := range sp.Agents {
				fmt.Printf("  %s %s %s %s\n",
					style.ID.Render(ag.ID), ag.Name,
					style.Dim.Render(sp.WorktreeID), style.Dim.Render(ag.TmuxTarget))
			}
		}
	})
}
