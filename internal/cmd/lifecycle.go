package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/style"
)

// kill

var killFlags struct {
	agent    string
	worktree string
	all      bool
	remove   bool
	del      bool
}

var killCmd = &cobra.Command{
	Use:     "kill",
	GroupID: GroupCore,
	Short:   "Kill agents by agent, worktree, or project scope",
	Long: `Kill running agents. Exactly one scope is required.

Examples:
  ppg kill --agent ag-a1b2c3d4
  ppg kill --worktree tests --remove
  ppg kill --all --delete`,
	Args: cobra.NoArgs,
	RunE: runKill,
}

func init() {
	f := killCmd.Flags()
	f.StringVar(&killFlags.agent, "agent", "", "kill one agent by id")
	f.StringVar(&killFlags.worktree, "worktree", "", "kill every agent of a worktree")
	f.BoolVar(&killFlags.all, "all", false, "kill every agent in the project")
	f.BoolVar(&killFlags.remove, "remove", false, "also remove worktree filesystem artifacts")
	f.BoolVar(&killFlags.del, "delete", false, "also delete manifest records (implies --remove)")
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	result, err := ops.Kill(ops.KillOptions{
		ProjectRoot: projectRootFlag,
		Agent:       killFlags.agent,
		Worktree:    killFlags.worktree,
		All:         killFlags.all,
		Remove:      killFlags.remove,
		Delete:      killFlags.del,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "killed", len(result.Killed), "agents")
		for _, id := range result.Skipped {
			fmt.Println(" ", style.Warning.Render("skipped"), id, style.Dim.Render("(hosts this process)"))
		}
		for _, id := range result.Removed {
			fmt.Println(" ", style.Dim.Render("removed"), id)
		}
	})
}

// restart

var restartPrompt string

var restartCmd = &cobra.Command{
	Use:     "restart <agent>",
	GroupID: GroupCore,
	Short:   "Restart an agent under a new id in the same worktree",
	Args:    cobra.ExactArgs(1),
	RunE:    runRestart,
}

func init() {
	restartCmd.Flags().StringVarP(&restartPrompt, "prompt", "p", "", "override the archived prompt")
	rootCmd.AddCommand(restartCmd)
}

func runRestart(cmd *cobra.Command, args []string) error {
	result, err := ops.Restart(ops.RestartOptions{
		ProjectRoot: projectRootFlag,
		Agent:       args[0],
		Prompt:      restartPrompt,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "restarted",
			style.Dim.Render(result.OldAgentID), "→", style.ID.Render(result.NewAgentID),
			style.Dim.Render(result.TmuxTarget))
	})
}

// send

var sendKey string

var sendCmd = &cobra.Command{
	Use:     "send <agent> [text...]",
	GroupID: GroupCore,
	Short:   "Send text or a named key to an agent's pane",
	Long: `Send input to an agent. Text arguments are pasted followed by Enter;
--key sends a single named key instead.

Examples:
  ppg send ag-a1b2c3d4 please also update the changelog
  ppg send ag-a1b2c3d4 --key C-c`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendKey, "key", "", "named key to send (e.g. C-c, Escape)")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	text := strings.Join(args[1:], " ")
	result, err := ops.Send(ops.SendOptions{
		ProjectRoot: projectRootFlag,
		Agent:       args[0],
		Text:        text,
		Key:         sendKey,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "sent to", style.ID.Render(result.AgentID))
	})
}

// wait

var waitFlags struct {
	worktree string
	agent    string
	timeout  int
	interval int
}

var waitCmd = &cobra.Command{
	Use:     "wait",
	GroupID: GroupCore,
	Short:   "Block until agents stop working",
	Long: `Wait until the selected agents are idle or terminal. Exits 2 on
timeout.

Examples:
  ppg wait --worktree tests --timeout 600
  ppg wait`,
	Args: cobra.NoArgs,
	RunE: runWait,
}

func init() {
	f := waitCmd.Flags()
	f.StringVar(&waitFlags.agent, "agent", "", "wait for one agent")
	f.StringVar(&waitFlags.worktree, "worktree", "", "wait for one worktree's agents")
	f.IntVar(&waitFlags.timeout, "timeout", 0, "timeout in seconds (0 waits forever)")
	f.IntVar(&waitFlags.interval, "interval", 0, "poll interval in seconds (default 5)")
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
	result, err := ops.Wait(ops.WaitOptions{
		ProjectRoot: projectRootFlag,
		Agent:       waitFlags.agent,
		Worktree:    waitFlags.worktree,
		Timeout:     time.Duration(waitFlags.timeout) * time.Second,
		Interval:    time.Duration(waitFlags.interval) * time.Second,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "settled after", fmt.Sprintf("%.0fs", result.Elapsed))
		for id, st := range result.Agents {
			fmt.Printf("  %s %s\n", style.ID.Render(id), style.Status(string(st)))
		}
	})
}
