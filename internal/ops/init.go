package ops

import (
	"fmt"
	"os"

	"github.com/ppgdev/ppg/internal/config"
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/git"
	"github.com/ppgdev/ppg/internal/manifest"
	"github.com/ppgdev/ppg/internal/paths"
	"github.com/ppgdev/ppg/internal/tmux"
)

// InitOptions configures project initialization.
type InitOptions struct {
	ProjectRoot string
	SessionName string
}

// InitResult reports what init created.
type InitResult struct {
	ProjectRoot  string `json:"projectRoot"`
	SessionName  string `json:"sessionName"`
	ManifestPath string `json:"manifestPath"`
	ConfigPath   string `json:"configPath"`
}

// Init creates the manifest, a starter config, and the state
// directories. The tmux session is created lazily on first spawn, so a
// missing tmux is not fatal here.
func Init(opts InitOptions) (*InitResult, error) {
	root, err := ResolveProjectRoot(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if !git.NewGit(root).IsRepo() {
		return nil, errs.New(errs.NotGitRepo, "%s is not a git repository", root)
	}

	sessionName := opts.SessionName
	if sessionName == "" {
		sessionName = config.Default(root).SessionName
	}

	if _, err := manifest.Create(root, sessionName); err != nil {
		return nil, err
	}
	if err := config.WriteDefault(root); err != nil {
		return nil, err
	}
	for _, dir := range []string{
		paths.LogsDir(root),
		paths.ResultsDir(root),
		paths.AgentPromptsDir(root),
		paths.PromptsDir(root),
		paths.TemplatesDir(root),
		paths.SwarmsDir(root),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	// Best-effort: a session now saves the first spawn a round trip.
	t := tmux.New()
	if t.IsAvailable() {
		_ = t.EnsureSession(sessionName, root)
	}

	return &InitResult{
		ProjectRoot:  root,
		SessionName:  sessionName,
		ManifestPath: paths.ManifestPath(root),
		ConfigPath:   paths.ConfigPath(root),
	}, nil
}
