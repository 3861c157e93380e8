// Package style provides consistent terminal styling using Lipgloss.
package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Core styles used across command output.
var (
	Bold    = lipgloss.NewStyle().Bold(true)
	Dim     = lipgloss.NewStyle().Faint(true)
	Header  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	ID      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// lifecycle-to-style mapping for status output.
var lifecycleStyles = map[string]lipgloss.Style{
	"busy":      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"ready":     Success,
	"attention": Error,
	"idle":      Dim,
	"empty":     Dim,
	"merging":   lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	"merged":    Success,
	"cleaned":   Dim,
}

// Lifecycle renders a worktree lifecycle with its color.
func Lifecycle(name string) string {
	if s, ok := lifecycleStyles[name]; ok {
		return s.Render(name)
	}
	return name
}

// agent status styles.
var statusStyles = map[string]lipgloss.Style{
	"spawning":  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"running":   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	"waiting":   lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	"idle":      Success,
	"completed": Success,
	"exited":    Dim,
	"gone":      Dim,
	"killed":    Dim,
	"failed":    Error,
	"lost":      Error,
}

// Status renders an agent status with its color.
func Status(name string) string {
	if s, ok := statusStyles[name]; ok {
		return s.Render(name)
	}
	return name
}

// IsTTY reports whether stdout is a terminal. Lipgloss already degrades
// to plain output on non-TTYs; commands use this to decide between
// human-oriented and plain layouts.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
