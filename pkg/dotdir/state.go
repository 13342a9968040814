package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	stateFile = "state.json"
)

// State is what the CLI remembers between invocations: who is logged in
// and which session and chat later commands act on by default.
type State struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`

	// SessionID and ChatID are updated from the session metadata of the
	// last streamed summary, revision or chat reply.
	SessionID int64 `json:"session_id,omitempty"`
	ChatID    int64 `json:"chat_id,omitempty"`
}

// LoadState loads the CLI state from a target .fair/state.json.
// Returns nil, nil if no state exists (not logged in).
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadState(overrideDir string) (*State, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}

	return state, nil
}

// SaveState persists the CLI state to a target .fair/state.json.
func (m *Manager) SaveState(state *State, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, stateFile), data, 0o600); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}

	return nil
}

// ClearState removes the state file, logging the CLI out.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, stateFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing state: %w", err)
	}

	return nil
}
