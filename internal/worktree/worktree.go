// Package worktree manages the git worktrees that sandbox each agent.
package worktree

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppgdev/ppg/internal/config"
	"github.com/ppgdev/ppg/internal/git"
	"github.com/ppgdev/ppg/internal/paths"
)

// Create makes a new worktree with a new branch cut from base.
// Returns the absolute worktree path.
func Create(projectRoot, name, branch, base string) (string, error) {
	path := paths.WorktreePath(projectRoot, name)
	if err := os.MkdirAll(paths.WorktreesDir(projectRoot), 0755); err != nil {
		return "", fmt.Errorf("creating worktrees dir: %w", err)
	}
	g := git.NewGit(projectRoot)
	if err := g.WorktreeAdd(path, branch, base, true); err != nil {
		return "", err
	}
	return path, nil
}

// Adopt makes a worktree for an existing branch.
func Adopt(projectRoot, name, branch string) (string, error) {
	path := paths.WorktreePath(projectRoot, name)
	if err := os.MkdirAll(paths.WorktreesDir(projectRoot), 0755); err != nil {
		return "", fmt.Errorf("creating worktrees dir: %w", err)
	}
	g := git.NewGit(projectRoot)
	if err := g.WorktreeAdd(path, branch, "", false); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes a worktree directory and its git bookkeeping. An
// already-gone worktree is not an error.
func Remove(projectRoot, path string) error {
	g := git.NewGit(projectRoot)
	if err := g.WorktreeRemove(path, true); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			// git may have stale bookkeeping for a path the user deleted
			// by hand; prune and move on.
			_ = g.WorktreePrune()
			return nil
		}
		return err
	}
	return nil
}

// Prune removes stale worktree bookkeeping in the main repository.
func Prune(projectRoot string) error {
	return git.NewGit(projectRoot).WorktreePrune()
}

// SetupEnv copies configured env files into a fresh worktree and
// optionally symlinks node_modules from the project root. Missing source
// files are skipped; nothing here is fatal to a spawn.
func SetupEnv(projectRoot, wtPath string, cfg *config.Config) error {
	for _, name := range cfg.EnvFiles {
		src := filepath.Join(projectRoot, name)
		dst := filepath.Join(wtPath, name)
		if err := copyFile(src, dst); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("copying %s: %w", name, err)
		}
	}

	if cfg.SymlinkNodeModules {
		src := filepath.Join(projectRoot, "node_modules")
		dst := filepath.Join(wtPath, "node_modules")
		if _, err := os.Stat(src); err == nil {
			if _, err := os.Lstat(dst); os.IsNotExist(err) {
				if err := os.Symlink(src, dst); err != nil {
					return fmt.Errorf("symlinking node_modules: %w", err)
				}
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
