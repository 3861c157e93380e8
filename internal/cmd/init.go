package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/style"
)

var initSessionName string

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: GroupCore,
	Short:   "Initialize ppg for the current repository",
	Long: `Initialize ppg: create the .ppg state directory, the manifest, and a
starter config.

Examples:
  ppg init
  ppg init --session my-project`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initSessionName, "session", "", "tmux session name (default: ppg-<dirname>)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	result, err := ops.Init(ops.InitOptions{
		ProjectRoot: projectRootFlag,
		SessionName: initSessionName,
	})
	if err != nil {
		return err
	}
	return emit(result, func() {
		fmt.Println(style.Success.Render("✓"), "initialized", result.ProjectRoot)
		fmt.Println(style.Dim.Render("  session:"), result.SessionName)
		fmt.Println(style.Dim.Render("  config: "), result.ConfigPath)
	})
}
