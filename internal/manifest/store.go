package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/paths"
)

// Lock acquisition budget. Update retries with a fixed delay until the
// budget is spent, then fails with MANIFEST_LOCK.
const (
	lockTimeout    = 10 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

// Read loads and migrates the manifest. Fails with NOT_INITIALIZED when
// the manifest file is absent.
func Read(projectRoot string) (*Manifest, error) {
	data, err := os.ReadFile(paths.ManifestPath(projectRoot))
	if os.IsNotExist(err) {
		return nil, errs.New(errs.NotInitialized, "no manifest at %s (run ppg init)", paths.ManifestPath(projectRoot))
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	migrate(&m)
	return &m, nil
}

// Write atomically replaces the manifest: write a sibling temp file,
// fsync, rename. Readers never observe a partial manifest.
func Write(projectRoot string, m *Manifest) error {
	path := paths.ManifestPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating manifest dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// Update is the sole mutation path for the manifest. It acquires the
// cross-process advisory lock, reads the current manifest, applies fn,
// stamps UpdatedAt, and writes the result atomically.
//
// fn receives a private copy (freshly unmarshaled) that it may mutate in
// place. Callers must not set UpdatedAt themselves. Returning an error
// from fn aborts the update without writing.
func Update(projectRoot string, fn func(*Manifest) error) (*Manifest, error) {
	unlock, err := acquireLock(projectRoot)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := Read(projectRoot)
	if err != nil {
		return nil, err
	}

	if err := fn(m); err != nil {
		return nil, err
	}

	m.UpdatedAt = time.Now().UTC()
	if err := Write(projectRoot, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Create writes the initial manifest for a project. Fails if one exists.
func Create(projectRoot, sessionName string) (*Manifest, error) {
	if _, err := os.Stat(paths.ManifestPath(projectRoot)); err == nil {
		return nil, errs.New(errs.InvalidArgs, "project already initialized")
	}
	m := New(projectRoot, sessionName)
	if err := Write(projectRoot, m); err != nil {
		return nil, err
	}
	return m, nil
}

// acquireLock takes the manifest flock with bounded retry.
func acquireLock(projectRoot string) (func(), error) {
	lockPath := paths.ManifestLockPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}

	fl := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil && err != context.DeadlineExceeded {
		return nil, errs.Wrap(errs.ManifestLock, err, "acquiring manifest lock")
	}
	if !ok {
		return nil, errs.New(errs.ManifestLock, "manifest lock held by another process (waited %s)", lockTimeout)
	}
	return func() { _ = fl.Unlock() }, nil
}
