package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/sched"
	"github.com/ppgdev/ppg/internal/style"
)

var cronCmd = &cobra.Command{
	Use:     "cron",
	GroupID: GroupDaemon,
	Short:   "Manage the schedule daemon",
	Long: `Manage scheduled agent spawns driven by .ppg/schedules.yaml.

Commands:
  ppg cron start               Start the scheduler daemon
  ppg cron stop                Stop it
  ppg cron status              Show whether it is running
  ppg cron list                List schedule entries
  ppg cron add <name> ...      Add an entry
  ppg cron remove <name>       Remove an entry`,
	RunE: requireSubcommand,
}

var cronStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		pid, err := sched.Start(root)
		if err != nil {
			return err
		}
		return emit(map[string]int{"pid": pid}, func() {
			fmt.Println(style.Success.Render("✓"), "scheduler started, pid", pid)
		})
	},
}

var cronStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the scheduler daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		pid, err := sched.Stop(root)
		if err != nil {
			return err
		}
		return emit(map[string]int{"pid": pid}, func() {
			if pid == 0 {
				fmt.Println(style.Dim.Render("scheduler was not running"))
				return
			}
			fmt.Println(style.Success.Render("✓"), "stopped pid", pid)
		})
	},
}

var cronStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduler daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		pid := sched.RunningPid(root)
		return emit(map[string]any{"running": pid != 0, "pid": pid}, func() {
			if pid == 0 {
				fmt.Println("scheduler:", style.Dim.Render("stopped"))
				return
			}
			fmt.Println("scheduler:", style.Success.Render("running"), style.Dim.Render(fmt.Sprintf("pid %d", pid)))
		})
	},
}

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schedule entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		f, err := sched.Load(root)
		if err != nil {
			return err
		}
		return emit(f, func() {
			if len(f.Schedules) == 0 {
				fmt.Println(style.Dim.Render("no schedules"))
				return
			}
			for _, e := range f.Schedules {
				target := e.Prompt
				kind := "prompt"
				if e.Swarm != "" {
					target, kind = e.Swarm, "swarm"
				}
				fmt.Printf("  %s %s %s %s\n",
					style.Bold.Render(e.Name), style.Dim.Render(e.Cron), kind, target)
			}
		})
	},
}

var cronAddFlags struct {
	cron   string
	swarm  string
	prompt string
	vars   []string
}

var cronAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a schedule entry",
	Long: `Add a schedule entry firing a prompt spawn or a swarm.

Examples:
  ppg cron add nightly --cron "0 2 * * *" --prompt "run the nightly checks"
  ppg cron add release --cron "0 9 * * 1" --swarm release --var channel=beta`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		vars, err := parseVars(cronAddFlags.vars)
		if err != nil {
			return err
		}
		entry := sched.Entry{
			Name:   args[0],
			Cron:   cronAddFlags.cron,
			Swarm:  cronAddFlags.swarm,
			Prompt: cronAddFlags.prompt,
			Vars:   vars,
		}
		if err := sched.Add(root, entry); err != nil {
			return err
		}
		return emit(entry, func() {
			fmt.Println(style.Success.Render("✓"), "added schedule", style.Bold.Render(entry.Name))
		})
	},
}

var cronRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a schedule entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		if err := sched.Remove(root, args[0]); err != nil {
			return err
		}
		return emit(map[string]string{"removed": args[0]}, func() {
			fmt.Println(style.Success.Render("✓"), "removed schedule", args[0])
		})
	},
}

// cronDaemonCmd is the hidden entry point the detached daemon process
// runs in.
var cronDaemonCmd = &cobra.Command{
	Use:    "_daemon",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		d, err := sched.NewDaemon(root)
		if err != nil {
			return err
		}
		return d.Run()
	},
}

func init() {
	f := cronAddCmd.Flags()
	f.StringVar(&cronAddFlags.cron, "cron", "", "5-field crontab expression")
	f.StringVar(&cronAddFlags.swarm, "swarm", "", "swarm to fire")
	f.StringVar(&cronAddFlags.prompt, "prompt", "", "prompt to fire")
	f.StringArrayVar(&cronAddFlags.vars, "var", nil, "template variable key=value (repeatable)")

	cronCmd.AddCommand(cronStartCmd, cronStopCmd, cronStatusCmd, cronListCmd, cronAddCmd, cronRemoveCmd, cronDaemonCmd)
	rootCmd.AddCommand(cronCmd)
}
