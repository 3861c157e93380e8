package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func pidPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "test.pid")
}

func TestWritePid_ReadPid(t *testing.T) {
	path := pidPath(t)
	if err := WritePid(path); err != nil {
		t.Fatalf("WritePid() = %v", err)
	}
	pid, err := ReadPid(path)
	if err != nil {
		t.Fatalf("ReadPid() = %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("ReadPid() = %d, want %d", pid, os.Getpid())
	}
}

func TestWritePid_StaleOverwritten(t *testing.T) {
	path := pidPath(t)
	// Near-max PIDs are never in use on test machines.
	if err := os.WriteFile(path, []byte("4194000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WritePid(path); err != nil {
		t.Errorf("WritePid() over stale pid = %v", err)
	}
}

func TestWritePid_Reentrant(t *testing.T) {
	path := pidPath(t)
	if err := WritePid(path); err != nil {
		t.Fatal(err)
	}
	// The same process may rewrite its own PID file.
	if err := WritePid(path); err != nil {
		t.Errorf("WritePid() by owner = %v", err)
	}
}

func TestReadPid_Garbage(t *testing.T) {
	path := pidPath(t)
	if err := os.WriteFile(path, []byte("not a pid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPid(path); err == nil {
		t.Error("ReadPid() of garbage succeeded")
	}
}

func TestAlive(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Error("Alive(self) = false")
	}
	if Alive(0) || Alive(-1) {
		t.Error("Alive() true for non-positive pid")
	}
	if Alive(4194000) {
		t.Error("Alive() true for a pid that cannot exist")
	}
}

func TestRunning(t *testing.T) {
	path := pidPath(t)
	if got := Running(path); got != 0 {
		t.Errorf("Running() with no file = %d, want 0", got)
	}
	if err := WritePid(path); err != nil {
		t.Fatal(err)
	}
	if got := Running(path); got != os.Getpid() {
		t.Errorf("Running() = %d, want %d", got, os.Getpid())
	}

	RemovePid(path)
	if got := Running(path); got != 0 {
		t.Errorf("Running() after remove = %d, want 0", got)
	}
}

func TestStop_NotRunning(t *testing.T) {
	path := pidPath(t)
	// A dead pid file is cleaned up and reported as not running.
	if err := os.WriteFile(path, []byte("4194000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	pid, err := Stop(path)
	if err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	if pid != 0 {
		t.Errorf("Stop() = %d, want 0", pid)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stale pid file not removed")
	}
}
