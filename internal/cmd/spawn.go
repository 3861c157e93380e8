package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/prompt"
	"github.com/ppgdev/ppg/internal/style"
)

var spawnFlags struct {
	name       string
	agent      string
	prompt     string
	promptFile string
	template   string
	vars       []string
	count      int
	branch     string
	worktree   string
	base       string
	split      bool
	master     bool
	terminal   bool
}

var spawnCmd = &cobra.Command{
	Use:     "spawn",
	GroupID: GroupCore,
	Short:   "Spawn agents in a new or existing worktree",
	Long: `Spawn one or more agents. By default a fresh worktree is created on a
new branch cut from the current branch.

Examples:
  ppg spawn -p "fix the flaky tests" --name tests
  ppg spawn --template refactor --var module=auth
  ppg spawn -p "continue" --worktree wt-a1b2c3
  ppg spawn -p "review everything" --count 3 --split
  ppg spawn -p "coordinate the others" --master`,
	Args: cobra.NoArgs,
	RunE: runSpawn,
}

func init() {
	f := spawnCmd.Flags()
	f.StringVar(&spawnFlags.name, "name", "", "worktree name (also names the branch)")
	f.StringVar(&spawnFlags.agent, "agent", "", "agent type from config (default: the configured default)")
	f.StringVarP(&spawnFlags.prompt, "prompt", "p", "", "inline prompt text")
	f.StringVar(&spawnFlags.promptFile, "prompt-file", "", "read the prompt from a file")
	f.StringVar(&spawnFlags.template, "template", "", "use a named prompt template")
	f.StringArrayVar(&spawnFlags.vars, "var", nil, "template variable key=value (repeatable)")
	f.IntVar(&spawnFlags.count, "count", 1, "number of agents to spawn")
	f.StringVar(&spawnFlags.branch, "branch", "", "adopt an existing branch")
	f.StringVar(&spawnFlags.worktree, "worktree", "", "attach to an existing worktree")
	f.StringVar(&spawnFlags.base, "base", "", "base branch for the new worktree")
	f.BoolVar(&spawnFlags.split, "split", false, "put extra agents in panes instead of windows")
	f.BoolVar(&spawnFlags.master, "master", false, "spawn a master agent owned by no worktree")
	f.BoolVar(&spawnFlags.terminal, "terminal", false, "open a desktop terminal attached to the agent")
	rootCmd.AddCommand(spawnCmd)
}

func runSpawn(cmd *cobra.Command, args []string) error {
	vars, err := parseVars(spawnFlags.vars)
	if err != nil {
		return err
	}
	result, err := ops.Spawn(ops.SpawnOptions{
		ProjectRoot: projectRootFlag,
		Name:        spawnFlags.name,
		Agent:       spawnFlags.agent,
		Prompt: prompt.Source{
			Inline:   spawnFlags.prompt,
			File:     spawnFlags.promptFile,
			Template: spawnFlags.template,
		},
		Vars:         vars,
		Count:        spawnFlags.count,
		Branch:       spawnFlags.branch,
		Worktree:     spawnFlags.worktree,
		Base:         spawnFlags.base,
		Split:        spawnFlags.split,
		Master:       spawnFlags.master,
		OpenTerminal: spawnFlags.terminal,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		if result.Master {
			ag := result.Agents[0]
			fmt.Println(style.Success.Render("✓"), "spawned master agent", style.ID.Render(ag.ID), "in", ag.TmuxTarget)
			return
		}
		fmt.Println(style.Success.Render("✓"), "spawned", style.ID.Render(result.WorktreeID),
			style.Dim.Render("("+result.Branch+")"))
		for _, ag := range result.Agents {
			fmt.Printf("  %s %s %s\n", style.ID.Render(ag.ID), ag.AgentType, style.Dim.Render(ag.TmuxTarget))
		}
	})
}

// parseVars splits repeated key=value flags.
func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, errs.New(errs.InvalidArgs, "--var must be key=value, got %q", pair)
		}
		vars[k] = v
	}
	return vars, nil
}
