// Package git wraps the git CLI for the handful of operations the kernel
// drives: worktree management, merges, pushes, and diff summaries.
package git

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Git wraps git operations rooted at a working directory.
type Git struct {
	workDir string
}

// NewGit creates a git wrapper for the given directory.
func NewGit(dir string) *Git {
	return &Git{workDir: dir}
}

// run executes a git command in the work dir and returns stdout.
func (g *Git) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsRepo checks if the directory is inside a git repository.
func (g *Git) IsRepo() bool {
	_, err := g.run("rev-parse", "--git-dir")
	return err == nil
}

// TopLevel returns the repository root for the work dir.
func (g *Git) TopLevel() (string, error) {
	return g.run("rev-parse", "--show-toplevel")
}

// CurrentBranch returns the checked-out branch name.
func (g *Git) CurrentBranch() (string, error) {
	return g.run("rev-parse", "--abbrev-ref", "HEAD")
}

// Checkout switches to an existing branch.
func (g *Git) Checkout(branch string) error {
	_, err := g.run("checkout", branch)
	return err
}

// BranchExists checks for a local branch.
func (g *Git) BranchExists(branch string) bool {
	_, err := g.run("rev-parse", "--verify", "refs/heads/"+branch)
	return err == nil
}

// DeleteBranch force-deletes a local branch.
func (g *Git) DeleteBranch(branch string) error {
	_, err := g.run("branch", "-D", branch)
	return err
}

// HasUncommittedChanges reports whether the working tree is dirty.
func (g *Git) HasUncommittedChanges() (bool, error) {
	out, err := g.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// WorktreeAdd creates a worktree at path. With createBranch, a new branch
// is created from base; otherwise the existing branch is checked out.
func (g *Git) WorktreeAdd(path, branch, base string, createBranch bool) error {
	var args []string
	if createBranch {
		args = []string{"worktree", "add", "-b", branch, path}
		if base != "" {
			args = append(args, base)
		}
	} else {
		args = []string{"worktree", "add", path, branch}
	}
	_, err := g.run(args...)
	return err
}

// WorktreeRemove removes a worktree directory and its bookkeeping.
func (g *Git) WorktreeRemove(path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := g.run(args...)
	return err
}

// WorktreePrune removes stale worktree bookkeeping.
func (g *Git) WorktreePrune() error {
	_, err := g.run("worktree", "prune")
	return err
}

// MergeSquash stages branch's changes without committing.
func (g *Git) MergeSquash(branch string) error {
	_, err := g.run("merge", "--squash", branch)
	return err
}

// MergeNoFF merges branch with a merge commit.
func (g *Git) MergeNoFF(branch, message string) error {
	_, err := g.run("merge", "--no-ff", branch, "-m", message)
	return err
}

// MergeAbort aborts an in-progress merge. Best-effort.
func (g *Git) MergeAbort() {
	_, _ = g.run("merge", "--abort")
}

// Commit records staged changes.
func (g *Git) Commit(message string) error {
	_, err := g.run("commit", "-m", message)
	return err
}

// Push pushes branch to the remote, optionally setting upstream.
func (g *Git) Push(remote, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, branch)
	_, err := g.run(args...)
	return err
}

// NumstatEntry is one file's change summary from git diff --numstat.
type NumstatEntry struct {
	Added   int
	Deleted int
	Path    string
}

// DiffNumstat summarizes changes between base and HEAD.
func (g *Git) DiffNumstat(base string) ([]NumstatEntry, error) {
	out, err := g.run("diff", "--numstat", base+"...HEAD")
	if err != nil {
		return nil, err
	}
	var entries []NumstatEntry
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			continue
		}
		// Binary files show "-" for both counts.
		added, _ := strconv.Atoi(fields[0])
		deleted, _ := strconv.Atoi(fields[1])
		entries = append(entries, NumstatEntry{Added: added, Deleted: deleted, Path: fields[2]})
	}
	return entries, nil
}
