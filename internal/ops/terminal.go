package ops

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openDesktopTerminal opens a desktop terminal window attached to the
// given tmux target. Fire-and-forget: failures are ignored and the
// process is not waited on.
func openDesktopTerminal(session, target string) {
	attach := fmt.Sprintf("tmux attach-session -t %s \\; select-window -t %s", session, target)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Terminal" to do script "%s"`, attach)
		cmd = exec.Command("osascript", "-e", script)
	default:
		if path, err := exec.LookPath("x-terminal-emulator"); err == nil {
			cmd = exec.Command(path, "-e", "sh", "-c", attach)
		}
	}
	if cmd == nil {
		return
	}
	_ = cmd.Start()
	if cmd.Process != nil {
		_ = cmd.Process.Release()
	}
}
