// Package ops is the operation API: the single entry point for every
// external caller of the kernel (CLI, API server, scheduler). Each
// operation takes an options record, reads the manifest, computes a
// plan, drives git/tmux/gh, and commits results through one or more
// manifest updates.
//
// Operations are re-entrant across processes; the manifest lock is the
// only synchronization. Plans are computed outside the lock, and ids are
// re-resolved inside each update because the manifest may have changed
// between two updates of the same operation.
package ops

import (
	"os"
	"time"

	"github.com/ppgdev/ppg/internal/agent"
	"github.com/ppgdev/ppg/internal/config"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/git"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/tmux"
)

// Env is the per-operation environment: resolved project root, loaded
// configuration, and the mux handle. Built once at the top of each
// operation; carries no mutable state.
type Env struct {
	ProjectRoot string
	Config      *config.Config
	Tmux        *tmux.Tmux
}

// NewEnv resolves the project root (explicit, or the enclosing git
// repository of the working directory) and loads the configuration.
func NewEnv(projectRoot string) (*Env, error) {
	root, err := ResolveProjectRoot(projectRoot)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return &Env{
		ProjectRoot: root,
		Config:      cfg,
		Tmux:        tmux.New(),
	}, nil
}

// ResolveProjectRoot returns the explicit root when given, otherwise the
// top level of the git repository containing the working directory.
func ResolveProjectRoot(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	g := git.NewGit(cwd)
	if !g.IsRepo() {
		return "", errs.New(errs.NotGitRepo, "%s is not inside a git repository", cwd)
	}
	return g.TopLevel()
}

// git returns a git handle rooted at the project.
func (e *Env) git() *git.Git {
	return git.NewGit(e.ProjectRoot)
}

// Quiescence returns the idle-detection window from config.
func (e *Env) Quiescence() time.Duration {
	return time.Duration(e.Config.IdleQuiescenceSeconds) * time.Second
}

// Refresh reconciles every agent's status against a live mux probe and
// writes the result back. The probe runs inside the update so the
// observed statuses and the write are one atomic step.
func (e *Env) Refresh() (*manifest.Manifest, error) {
	return manifest.Update(e.ProjectRoot, func(m *manifest.Manifest) error {
		observed := agent.ProbeStatuses(e.Tmux, e.ProjectRoot, m.SessionName, m.AllAgents(), e.Quiescence())
		agent.ApplyProbe(m, observed)
		return nil
	})
}
