// ppg is the CLI for orchestrating parallel AI coding agents in git
// worktrees and tmux panes.
package main

import (
	"os"

	"github.com/ppgdev/ppg/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
