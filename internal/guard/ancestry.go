package guard

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppgdev/ppg/internal/tmux"
)

// maxAncestors bounds the parent walk; real process trees are shallow.
const maxAncestors = 32

// ancestorPIDs returns the process ancestry starting with pid itself,
// walking /proc toward init. Where /proc is unavailable the chain stops
// at the direct parent.
func ancestorPIDs(pid int) []int {
	out := []int{pid}
	for len(out) < maxAncestors {
		ppid, err := parentPID(out[len(out)-1])
		if err != nil || ppid <= 1 {
			break
		}
		out = append(out, ppid)
	}
	return out
}

// parentPID reads the parent pid from /proc/<pid>/stat. The comm field
// may contain spaces and parentheses, so fields are taken after the last
// closing paren.
func parentPID(pid int) (int, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		if pid == os.Getpid() {
			return os.Getppid(), nil
		}
		return 0, err
	}
	return parseStatPPID(string(data))
}

func parseStatPPID(stat string) (int, error) {
	i := strings.LastIndexByte(stat, ')')
	if i < 0 {
		return 0, fmt.Errorf("malformed stat line")
	}
	fields := strings.Fields(stat[i+1:])
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed stat line")
	}
	return strconv.Atoi(fields[1])
}

// paneByAncestry finds the pane whose root process is an ancestor of the
// caller. That pane hosts the caller even when TMUX_PANE was scrubbed
// from the environment. Returns "" when no pane matches.
func paneByAncestry(panes map[string]tmux.PaneInfo, ancestors []int) string {
	byPID := make(map[int]string, len(panes))
	for id, info := range panes {
		if info.PID > 0 {
			byPID[info.PID] = id
		}
	}
	for _, pid := range ancestors {
		if id, ok := byPID[pid]; ok {
			return id
		}
	}
	return ""
}
