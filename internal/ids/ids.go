// Package ids generates the opaque identifiers used throughout ppg.
// All randomness comes from crypto/rand so ids never collide in practice
// across the lifetime of a machine.
package ids

import (
	"crypto/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomSuffix returns n characters drawn uniformly from idAlphabet.
func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// there is no sane fallback.
		panic("ids: reading random bytes: " + err.Error())
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(out)
}

// NewWorktreeID returns a fresh worktree id of the form "wt-xxxxxx".
func NewWorktreeID() string {
	return "wt-" + randomSuffix(6)
}

// NewAgentID returns a fresh agent id of the form "ag-xxxxxxxx".
func NewAgentID() string {
	return "ag-" + randomSuffix(8)
}

// NewSessionID returns an RFC 4122 v4 UUID. It only exists so a later
// resume can locate an agent's conversation state.
func NewSessionID() string {
	return uuid.NewString()
}

// IsWorktreeID reports whether s looks like a generated worktree id.
func IsWorktreeID(s string) bool {
	return worktreeIDRe.MatchString(s)
}

// IsAgentID reports whether s looks like a generated agent id.
func IsAgentID(s string) bool {
	return agentIDRe.MatchString(s)
}

var (
	worktreeIDRe = regexp.MustCompile(`^wt-[a-z0-9]{6}$`)
	agentIDRe    = regexp.MustCompile(`^ag-[a-z0-9]{8}$`)

	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// SanitizeName converts an arbitrary string into a filesystem- and
// branch-safe slug. Runs of unsafe characters collapse to a single dash.
func SanitizeName(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "work"
	}
	return s
}

// SanitizeSessionName converts a string into a legal tmux session name.
// tmux forbids '.' and ':' in session names; whitespace breaks targets.
func SanitizeSessionName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ':', ' ', '\t', '\n':
			return '-'
		}
		return r
	}, s)
	s = strings.Trim(s, "-")
	if s == "" {
		return "ppg"
	}
	return s
}
