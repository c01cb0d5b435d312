package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const StateFile = ".trimix-updater.json"

// LocalState is the small bookkeeping file the updater keeps next to
// the firmware image: what is installed and when we last looked.
type LocalState struct {
	InstalledVersion string `json:"installed_version,omitempty"`
	LastCheckTime    string `json:"last_check_time,omitempty"`
	LastSeenVersion  string `json:"last_seen_version,omitempty"`
}

// Load reads the local state from dir. A missing file yields an empty
// state; first runs are normal.
func Load(dir string) (*LocalState, error) {
	path := filepath.Join(dir, StateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LocalState{}, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var s LocalState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return &s, nil
}

// Save writes the local state to dir.
func (s *LocalState) Save(dir string) error {
	path := filepath.Join(dir, StateFile)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

// MarkChecked records a completed update check.
func (s *LocalState) MarkChecked(latest string, at time.Time) {
	s.LastCheckTime = at.UTC().Format(time.RFC3339)
	s.LastSeenVersion = latest
}

// MarkInstalled records a successful install.
func (s *LocalState) MarkInstalled(version string) {
	s.InstalledVersion = version
}
