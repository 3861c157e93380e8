// Package cmd provides the CLI commands for the ppg tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/style"
)

// Command groups for help output.
const (
	GroupCore   = "core"
	GroupStatus = "status"
	GroupDaemon = "daemon"
)

var (
	// jsonOutput mirrors the --json flag, available on every command.
	jsonOutput bool

	// projectRootFlag overrides project root resolution.
	projectRootFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ppg",
	Short: "Parallel agent orchestration over git worktrees and tmux",
	Long: `ppg runs many interactive AI coding agents in parallel, each isolated
in its own git worktree and attached to a persistent tmux pane.

Core workflow:
  ppg init                          Initialize a project
  ppg spawn -p "fix the tests"      Spawn an agent in a fresh worktree
  ppg status                        See every worktree and agent
  ppg merge <worktree>              Fold finished work into the base branch`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core commands:"},
		&cobra.Group{ID: GroupStatus, Title: "Inspection commands:"},
		&cobra.Group{ID: GroupDaemon, Title: "Daemon commands:"},
	)
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().StringVar(&projectRootFlag, "project-root", "", "project root (default: enclosing git repository)")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		return errs.ExitCode(err)
	}
	return 0
}

func printError(err error) {
	if jsonOutput {
		body := map[string]any{"ok": false, "error": map[string]string{
			"code":    string(errs.CodeOf(err)),
			"message": err.Error(),
		}}
		_ = json.NewEncoder(os.Stderr).Encode(body)
		return
	}
	fmt.Fprintln(os.Stderr, style.Error.Render("error:"), err)
}

// emit prints a result: JSON under --json, otherwise via the given
// human-format function.
func emit(result any, human func()) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	human()
	return nil
}

func requireSubcommand(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}
