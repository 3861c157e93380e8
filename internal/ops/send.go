package ops

import (
	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/manifest"
)

// SendOptions configures sending input to an agent's pane.
type SendOptions struct {
	ProjectRoot string `json:"-"`
	Agent       string `json:"agent"`

	// Text is pasted into the pane followed by Enter.
	Text string `json:"text,omitempty"`

	// Key sends a named key (e.g., "C-c", "Escape") instead of text.
	Key string `json:"key,omitempty"`
}

// SendResult reports where the input went.
type SendResult struct {
	AgentID    string `json:"agentId"`
	TmuxTarget string `json:"tmuxTarget"`
}

// Send delivers text or a named key to an agent's pane.
func Send(opts SendOptions) (*SendResult, error) {
	env, err := NewEnv(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if (opts.Text == "") == (opts.Key == "") {
		return nil, errs.New(errs.InvalidArgs, "exactly one of text or --key is required")
	}

	m, err := manifest.Read(env.ProjectRoot)
	if err != nil {
		return nil, err
	}
	_, ag := m.Agent(opts.Agent)
	if ag == nil {
		return nil, errs.New(errs.AgentNotFound, "no agent %q", opts.Agent)
	}

	info, err := env.Tmux.PaneAt(ag.TmuxTarget)
	if err != nil {
		return nil, err
	}
	if info == nil || info.Dead {
		return nil, errs.New(errs.PaneNotFound, "agent %s pane %s is gone", ag.ID, ag.TmuxTarget)
	}

	if opts.Key != "" {
		err = env.Tmux.SendRawKeys(ag.TmuxTarget, opts.Key)
	} else {
		err = env.Tmux.SendKeys(ag.TmuxTarget, opts.Text)
	}
	if err != nil {
		return nil, err
	}
	return &SendResult{AgentID: ag.ID, TmuxTarget: ag.TmuxTarget}, nil
}
