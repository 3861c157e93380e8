package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/server"
	"github.com/ppgdev/ppg/internal/style"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: GroupDaemon,
	Short:   "Manage the local API server",
	Long: `Serve the operation API over loopback HTTP with bearer-token auth.

Commands:
  ppg serve register           Generate and print an API token
  ppg serve unregister         Revoke the token
  ppg serve start [--port N]   Start the server daemon
  ppg serve stop               Stop it
  ppg serve status             Show whether it is running`,
	RunE: requireSubcommand,
}

var servePort int

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the API server daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		pid, err := server.Start(root, servePort)
		if err != nil {
			return err
		}
		return emit(map[string]int{"pid": pid}, func() {
			fmt.Println(style.Success.Render("✓"), "api server started, pid", pid)
		})
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the API server daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		pid, err := server.Stop(root)
		if err != nil {
			return err
		}
		return emit(map[string]int{"pid": pid}, func() {
			if pid == 0 {
				fmt.Println(style.Dim.Render("api server was not running"))
				return
			}
			fmt.Println(style.Success.Render("✓"), "stopped pid", pid)
		})
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show API server status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		pid := server.RunningPid(root)
		registered := server.ReadToken(root) != ""
		return emit(map[string]any{"running": pid != 0, "pid": pid, "registered": registered}, func() {
			state := style.Dim.Render("stopped")
			if pid != 0 {
				state = style.Success.Render("running")
			}
			fmt.Println("api server:", state)
			if !registered {
				fmt.Println(style.Dim.Render("no token registered (ppg serve register)"))
			}
		})
	},
}

var serveRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Generate and print a fresh API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		token, err := server.GenerateToken(root)
		if err != nil {
			return err
		}
		return emit(map[string]string{"token": token}, func() {
			fmt.Println(token)
		})
	},
}

var serveUnregisterCmd = &cobra.Command{
	Use:   "unregister",
	Short: "Revoke the API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		if err := server.RemoveToken(root); err != nil {
			return err
		}
		return emit(map[string]bool{"removed": true}, func() {
			fmt.Println(style.Success.Render("✓"), "token revoked")
		})
	},
}

var serveDaemonCmd = &cobra.Command{
	Use:    "_daemon",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := ops.ResolveProjectRoot(projectRootFlag)
		if err != nil {
			return err
		}
		s, err := server.New(root, servePort)
		if err != nil {
			return err
		}
		return s.Run()
	},
}

func init() {
	serveCmd.PersistentFlags().IntVar(&servePort, "port", server.DefaultPort, "listen port")
	serveCmd.AddCommand(serveStartCmd, serveStopCmd, serveStatusCmd, serveRegisterCmd, serveUnregisterCmd, serveDaemonCmd)
	rootCmd.AddCommand(serveCmd)
}
