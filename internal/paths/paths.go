// Package paths resolves the canonical on-disk locations for every ppg
// artifact. All functions are pure; none perform I/O.
package paths

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Dir is the per-project state directory name.
const Dir = ".ppg"

// WorktreesDirName is where new worktrees are created under the project root.
const WorktreesDirName = ".worktrees"

// PpgDir returns <projectRoot>/.ppg.
func PpgDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir)
}

// ManifestPath returns the manifest file location.
func ManifestPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "manifest.json")
}

// ManifestLockPath returns the advisory lock file adjacent to the manifest.
func ManifestLockPath(projectRoot string) string {
	return ManifestPath(projectRoot) + ".lock"
}

// ConfigPath returns the project config file location.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "config.toml")
}

// LogsDir returns the directory for daemon and activity logs.
func LogsDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "logs")
}

// CronLogPath returns the scheduler's append-only log file.
func CronLogPath(projectRoot string) string {
	return filepath.Join(LogsDir(projectRoot), "cron.log")
}

// CronPidPath returns the scheduler daemon's PID file.
func CronPidPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "cron.pid")
}

// ServeLogPath returns the API server's append-only log file.
func ServeLogPath(projectRoot string) string {
	return filepath.Join(LogsDir(projectRoot), "serve.log")
}

// ServePidPath returns the API server daemon's PID file.
func ServePidPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "serve.pid")
}

// TokenPath returns the API bearer token file.
func TokenPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "token")
}

// TLSDir returns the directory holding TLS material for the API server.
func TLSDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "tls")
}

// ActivityCachePath returns the status reconciler's pane-activity cache.
func ActivityCachePath(projectRoot string) string {
	return filepath.Join(LogsDir(projectRoot), "activity.json")
}

// ResultsDir returns the directory agents write their final output into.
func ResultsDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "results")
}

// ResultFile returns the canonical result file for an agent.
func ResultFile(projectRoot, agentID string) string {
	return filepath.Join(ResultsDir(projectRoot), agentID+".md")
}

// AgentPromptsDir returns the per-agent prompt archive directory.
func AgentPromptsDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "agent-prompts")
}

// AgentPromptPath returns the archived prompt for an agent.
func AgentPromptPath(projectRoot, agentID string) string {
	return filepath.Join(AgentPromptsDir(projectRoot), agentID+".md")
}

// SchedulesPath returns the schedule file location.
func SchedulesPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "schedules.yaml")
}

// SchedulesLockPath returns the lock file serializing schedule edits.
// This is deliberately a different lock from the manifest lock.
func SchedulesLockPath(projectRoot string) string {
	return SchedulesPath(projectRoot) + ".lock"
}

// PromptsDir returns the per-project named prompt directory.
func PromptsDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "prompts")
}

// TemplatesDir returns the per-project prompt template directory.
func TemplatesDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "templates")
}

// SwarmsDir returns the per-project swarm definition directory.
func SwarmsDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "swarms")
}

// WorktreesDir returns the parent directory for created worktrees.
func WorktreesDir(projectRoot string) string {
	return filepath.Join(projectRoot, WorktreesDirName)
}

// WorktreePath returns the canonical location for a named worktree.
func WorktreePath(projectRoot, name string) string {
	return filepath.Join(WorktreesDir(projectRoot), name)
}

var (
	homeDir     string
	homeDirOnce sync.Once
)

// cachedHomeDir returns the user's home directory, cached after the first call.
func cachedHomeDir() string {
	homeDirOnce.Do(func() {
		homeDir, _ = os.UserHomeDir()
	})
	return homeDir
}

// GlobalDir returns the user-level ppg directory (~/.ppg), or "" when the
// home directory cannot be determined.
func GlobalDir() string {
	home := cachedHomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, Dir)
}

// GlobalPromptsDir returns the user-level named prompt directory.
func GlobalPromptsDir() string {
	if d := GlobalDir(); d != "" {
		return filepath.Join(d, "prompts")
	}
	return ""
}

// GlobalTemplatesDir returns the user-level template directory.
func GlobalTemplatesDir() string {
	if d := GlobalDir(); d != "" {
		return filepath.Join(d, "templates")
	}
	return ""
}

// GlobalSwarmsDir returns the user-level swarm definition directory.
func GlobalSwarmsDir() string {
	if d := GlobalDir(); d != "" {
		return filepath.Join(d, "swarms")
	}
	return ""
}

// ExpandHome expands a leading ~/ to the user's home directory.
// Returns the path unchanged if it doesn't start with ~/ or if
// the home directory cannot be determined.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home := cachedHomeDir()
	if home == "" {
		return path
	}
	return home + path[1:]
}
