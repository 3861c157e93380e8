// Package daemon holds the shared machinery for ppg's two background
// processes, the scheduler and the API server: PID-file singleton
// enforcement and detached process startup.
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// WritePid claims the PID file for the current process. If another live
// process already holds it, an error names that PID. A stale file (dead
// PID) is overwritten.
func WritePid(path string) error {
	if pid, err := ReadPid(path); err == nil && Alive(pid) && pid != os.Getpid() {
		return fmt.Errorf("already running with pid %d", pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

// ReadPid parses the PID file.
func ReadPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pid, nil
}

// RemovePid deletes the PID file. Best-effort.
func RemovePid(path string) {
	_ = os.Remove(path)
}

// Alive reports whether a process with the given PID exists, via the
// signal-0 probe. EPERM counts as alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}

// Running reports the live daemon PID for a PID file, or 0.
func Running(path string) int {
	pid, err := ReadPid(path)
	if err != nil || !Alive(pid) {
		return 0
	}
	return pid
}

// Stop sends SIGTERM to the process in the PID file. Returns the PID
// signalled, or 0 when no live daemon was found.
func Stop(path string) (int, error) {
	pid := Running(path)
	if pid == 0 {
		RemovePid(path)
		return 0, nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return 0, err
	}
	return pid, nil
}

// StartDetached re-executes the current binary with the given arguments
// in a new session, with stdout/stderr appended to logPath. The child
// is released immediately.
func StartDetached(logPath string, args ...string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return 0, err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 0, err
	}
	defer logFile.Close()

	cmd := exec.Command(exe, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}
