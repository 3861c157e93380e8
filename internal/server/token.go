// Package server exposes the operation API over local HTTP with static
// bearer-token auth, and manages the server daemon's lifecycle.
package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppgdev/ppg/internal/paths"
)

// GenerateToken creates a fresh bearer token and stores it with owner-only
// permissions. Replaces any existing token.
func GenerateToken(projectRoot string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(buf)

	path := paths.TokenPath(projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return "", err
	}
	return token, nil
}

// ReadToken loads the stored token, or "" when none is registered.
func ReadToken(projectRoot string) string {
	data, err := os.ReadFile(paths.TokenPath(projectRoot))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// RemoveToken revokes the stored token.
func RemoveToken(projectRoot string) error {
	err := os.Remove(paths.TokenPath(projectRoot))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// tokenMatches compares in constant time.
func tokenMatches(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
