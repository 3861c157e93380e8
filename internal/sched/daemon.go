package sched

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppgdev/ppg/internal/daemon"
	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/paths"
	"github.com/ppgdev/ppg/internal/prompt"
)

// idlePoll is how long the daemon sleeps when the schedule file is
// empty or unreadable before re-checking it.
const idlePoll = time.Minute

// Daemon is the scheduler loop. One instance per project, enforced by
// the PID file.
type Daemon struct {
	projectRoot string
	log         *logrus.Logger
}

// NewDaemon builds a daemon logging to the project's cron log.
func NewDaemon(projectRoot string) (*Daemon, error) {
	if err := os.MkdirAll(paths.LogsDir(projectRoot), 0755); err != nil {
		return nil, err
	}
	logFile, err := os.OpenFile(paths.CronLogPath(projectRoot), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(logFile)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return &Daemon{projectRoot: projectRoot, log: log}, nil
}

// Run claims the PID file and executes the scheduler loop until a
// termination signal arrives. The schedule file is re-read at every
// tick; there is no in-memory schedule cache. Fires are not retried
// across restarts.
func (d *Daemon) Run() error {
	pidPath := paths.CronPidPath(d.projectRoot)
	if err := daemon.WritePid(pidPath); err != nil {
		return fmt.Errorf("scheduler %w", err)
	}
	defer daemon.RemovePid(pidPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	d.log.WithField("pid", os.Getpid()).Info("scheduler started")

	// prev anchors fire-time computation: an entry is due when its next
	// fire after prev has arrived. Advancing prev after each pass makes
	// every boundary fire exactly once.
	prev := time.Now()
	for {
		earliest := d.nextFire(prev)

		sleep := idlePoll
		if !earliest.IsZero() {
			sleep = time.Until(earliest)
			if sleep < 0 {
				sleep = 0
			}
		}

		timer := time.NewTimer(sleep)
		select {
		case sig := <-sigCh:
			timer.Stop()
			d.log.WithField("signal", sig.String()).Info("scheduler stopping")
			return nil
		case <-timer.C:
		}

		// Re-read the file as it is now; entries may have been added or
		// removed while we slept.
		now := time.Now()
		for _, entry := range d.validEntries() {
			next, err := entry.Next(prev)
			if err != nil {
				continue
			}
			if !next.After(now) {
				d.fire(entry)
			}
		}
		prev = now
	}
}

// nextFire returns the earliest fire time after prev across all valid
// entries, or zero when there are none.
func (d *Daemon) nextFire(prev time.Time) time.Time {
	var earliest time.Time
	for _, entry := range d.validEntries() {
		next, err := entry.Next(prev)
		if err != nil {
			continue
		}
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}

func (d *Daemon) validEntries() []Entry {
	f, err := Load(d.projectRoot)
	if err != nil {
		d.log.WithError(err).Warn("cannot read schedule file")
		return nil
	}
	var out []Entry
	for _, entry := range f.Schedules {
		if err := entry.Validate(); err != nil {
			d.log.WithField("schedule", entry.Name).WithError(err).Warn("skipping invalid schedule")
			continue
		}
		out = append(out, entry)
	}
	return out
}

// fire runs one schedule entry and writes a one-line outcome to the log.
func (d *Daemon) fire(entry Entry) {
	name := fmt.Sprintf("%s-%s", entry.Name, time.Now().Format("0102-1504"))
	fields := logrus.Fields{"schedule": entry.Name, "spawnName": name}

	var err error
	if entry.Swarm != "" {
		_, err = ops.Swarm(ops.SwarmOptions{
			ProjectRoot: d.projectRoot,
			Name:        entry.Swarm,
			Vars:        entry.Vars,
		})
	} else {
		_, err = ops.Spawn(ops.SpawnOptions{
			ProjectRoot: d.projectRoot,
			Name:        name,
			Prompt:      prompt.Source{Inline: entry.Prompt},
			Vars:        entry.Vars,
		})
	}
	if err != nil {
		d.log.WithFields(fields).WithError(err).Error("schedule fire failed")
		return
	}
	d.log.WithFields(fields).Info("schedule fired")
}

// Start launches the daemon as a detached process via the current
// binary's hidden "cron _daemon" subcommand.
func Start(projectRoot string) (int, error) {
	if pid := daemon.Running(paths.CronPidPath(projectRoot)); pid != 0 {
		return 0, fmt.Errorf("scheduler already running with pid %d", pid)
	}
	return daemon.StartDetached(paths.CronLogPath(projectRoot),
		"cron", "_daemon", "--project-root", projectRoot)
}

// Stop signals the running daemon.
func Stop(projectRoot string) (int, error) {
	return daemon.Stop(paths.CronPidPath(projectRoot))
}

// RunningPid reports the live daemon PID, or 0.
func RunningPid(projectRoot string) int {
	return daemon.Running(paths.CronPidPath(projectRoot))
}
