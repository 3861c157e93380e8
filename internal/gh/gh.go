// Package gh wraps the GitHub CLI for pull request operations.
package gh

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ppgdev/ppg/internal/errs"
)

// IsAvailable checks if the gh CLI is installed.
func IsAvailable() bool {
	_, err := exec.LookPath("gh")
	return err == nil
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("gh", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", errs.New(errs.GhNotFound, "gh CLI not installed")
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("gh %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("gh %s: %w", args[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CreateOptions configures gh pr create.
type CreateOptions struct {
	Head  string
	Base  string
	Title string
	Body  string
	Draft bool
}

// Create opens a pull request and returns its URL (gh prints the URL to
// stdout on success).
func Create(dir string, opts CreateOptions) (string, error) {
	args := []string{"pr", "create",
		"--head", opts.Head,
		"--base", opts.Base,
		"--title", opts.Title,
		"--body", opts.Body,
	}
	if opts.Draft {
		args = append(args, "--draft")
	}
	out, err := run(dir, args...)
	if err != nil {
		return "", err
	}
	// The URL is the last non-empty line of output.
	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l, nil
		}
	}
	return "", fmt.Errorf("gh pr create: no URL in output")
}

// PR is the subset of pull request fields the kernel reads.
type PR struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// View looks up the PR for a branch. Returns nil when no PR exists.
func View(dir, branch string) (*PR, error) {
	out, err := run(dir, "pr", "view", branch, "--json", "url,state")
	if err != nil {
		if strings.Contains(err.Error(), "no pull requests found") ||
			strings.Contains(err.Error(), "Could not resolve") {
			return nil, nil
		}
		return nil, err
	}
	var pr PR
	if err := json.Unmarshal([]byte(out), &pr); err != nil {
		return nil, fmt.Errorf("parsing gh pr view output: %w", err)
	}
	return &pr, nil
}
