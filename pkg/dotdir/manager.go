// Package dotdir manages the .fair/ and ~/.fair directories.
//
// The directory holds config.toml and the CLI state: the logged in user and
// the session and chat the CLI is currently working in.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".fair"

	// HomeEnv points every fair command at one directory, regardless of
	// the working directory.
	HomeEnv = "FAIR_HOME"
)

type Manager struct {
	getwd   func() (string, error)
	homeDir func() (string, error)
}

func NewManager() *Manager {
	return &Manager{getwd: os.Getwd, homeDir: os.UserHomeDir}
}

// Target resolves the .fair/ directory to use, creating it if needed:
//  1. overrideDir (the --config-dir flag)
//  2. $FAIR_HOME
//  3. the nearest .fair/ in the working directory or one of its parents
//  4. ~/.fair/
func (m *Manager) Target(overrideDir string) (string, error) {
	dir := overrideDir
	if dir == "" {
		dir = os.Getenv(HomeEnv)
	}
	if dir == "" {
		dir = m.findProjectDir()
	}
	if dir == "" {
		home, err := m.homeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating fair directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// findProjectDir walks up from the working directory and returns the first
// existing .fair/ directory, or "".
func (m *Manager) findProjectDir() string {
	cwd, err := m.getwd()
	if err != nil {
		return ""
	}

	for dir := cwd; ; {
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
