// Package sched implements the cron-style scheduler: a YAML schedule
// file with lock-serialized edits, and a daemon that fires spawn and
// swarm operations at crontab boundaries.
package sched

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/paths"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// cronParser accepts standard 5-field crontab expressions on the local
// timezone.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Entry is one schedule. Exactly one of Swarm or Prompt is set.
type Entry struct {
	Name   string            `yaml:"name"`
	Cron   string            `yaml:"cron"`
	Swarm  string            `yaml:"swarm,omitempty"`
	Prompt string            `yaml:"prompt,omitempty"`
	Vars   map[string]string `yaml:"vars,omitempty"`
}

// Validate checks one entry's structural requirements.
func (e Entry) Validate() error {
	if !nameRe.MatchString(e.Name) {
		return errs.New(errs.InvalidArgs, "schedule name %q must match [A-Za-z0-9_-]+", e.Name)
	}
	if _, err := cronParser.Parse(e.Cron); err != nil {
		return errs.Wrap(errs.InvalidArgs, err, "schedule %q has invalid cron %q", e.Name, e.Cron)
	}
	if (e.Swarm == "") == (e.Prompt == "") {
		return errs.New(errs.InvalidArgs, "schedule %q needs exactly one of swarm or prompt", e.Name)
	}
	return nil
}

// Next computes the entry's next fire time after now.
func (e Entry) Next(now time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(e.Cron)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now), nil
}

// File is the on-disk schedule document. Entry order is preserved
// across edits.
type File struct {
	Schedules []Entry `yaml:"schedules"`
}

// Load parses the schedule file. A missing file is an empty schedule.
func Load(projectRoot string) (*File, error) {
	data, err := os.ReadFile(paths.SchedulesPath(projectRoot))
	if os.IsNotExist(err) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading schedules: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errs.Wrap(errs.InvalidArgs, err, "parsing %s", paths.SchedulesPath(projectRoot))
	}
	return &f, nil
}

// save writes the schedule file. Caller holds the edit lock.
func save(projectRoot string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding schedules: %w", err)
	}
	path := paths.SchedulesPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating schedules dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Edit serializes a read/modify/write cycle on the schedule file. The
// lock is distinct from the manifest lock: schedule edits never contend
// with kernel operations.
func Edit(projectRoot string, fn func(*File) error) (*File, error) {
	lockPath := paths.SchedulesLockPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}
	fl := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil && err != context.DeadlineExceeded {
		return nil, fmt.Errorf("locking schedules: %w", err)
	}
	if !ok {
		return nil, errs.New(errs.ManifestLock, "schedules file locked by another process")
	}
	defer fl.Unlock()

	f, err := Load(projectRoot)
	if err != nil {
		return nil, err
	}
	if err := fn(f); err != nil {
		return nil, err
	}
	if err := save(projectRoot, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Add validates and appends an entry. Duplicate names are rejected.
func Add(projectRoot string, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	_, err := Edit(projectRoot, func(f *File) error {
		for _, e := range f.Schedules {
			if e.Name == entry.Name {
				return errs.New(errs.InvalidArgs, "schedule %q already exists", entry.Name)
			}
		}
		f.Schedules = append(f.Schedules, entry)
		return nil
	})
	return err
}

// Remove deletes an entry by name, preserving the order of the rest.
func Remove(projectRoot, name string) error {
	_, err := Edit(projectRoot, func(f *File) error {
		kept := f.Schedules[:0]
		found := false
		for _, e := range f.Schedules {
			if e.Name == name {
				found = true
				continue
			}
			kept = append(kept, e)
		}
		if !found {
			return errs.New(errs.InvalidArgs, "no schedule named %q", name)
		}
		f.Schedules = kept
		return nil
	})
	return err
}
