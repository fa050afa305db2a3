// Package state persists the small bits of application state that outlive
// a single run: the active picker profile and the cache file locations.
package state

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/cache"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/perfjson"
)

// LocalProfile is the mode name for local directory discovery. Every
// other profile name selects a configured remote source.
const LocalProfile = "local"

// AppState is the persisted runtime state.
type AppState struct {
	ActiveProfile string `json:"active_profile"`
}

// Manager resolves state and cache file locations and loads/saves AppState.
type Manager struct {
	stateDir string
	cacheDir string
}

// NewManager resolves the XDG state and cache directories. Directories
// are created lazily on first write.
func NewManager() (*Manager, error) {
	stateDir, err := xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
	if err != nil {
		return nil, err
	}
	cacheDir, err := xdgDir("XDG_CACHE_HOME", ".cache")
	if err != nil {
		return nil, err
	}
	return &Manager{
		stateDir: filepath.Join(stateDir, "tms"),
		cacheDir: filepath.Join(cacheDir, "tms"),
	}, nil
}

// NewManagerAt uses explicit directories (for testing).
func NewManagerAt(stateDir, cacheDir string) *Manager {
	return &Manager{stateDir: stateDir, cacheDir: cacheDir}
}

func xdgDir(envVar, homeSuffix string) (string, error) {
	if dir := os.Getenv(envVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, homeSuffix), nil
}

// StatePath returns the state file location.
func (m *Manager) StatePath() string {
	return filepath.Join(m.stateDir, "state.json")
}

// LocalCachePath returns the local discovery snapshot location.
func (m *Manager) LocalCachePath() string {
	return filepath.Join(m.cacheDir, "directories.json")
}

// GitHubCachePath returns the remote record location for a profile.
func (m *Manager) GitHubCachePath(profile string) string {
	return filepath.Join(m.cacheDir, "github", profile+".json")
}

// Load reads the persisted state. A missing or unreadable state file
// yields the default state rather than an error.
func (m *Manager) Load() *AppState {
	data, err := os.ReadFile(m.StatePath())
	if err != nil {
		return &AppState{ActiveProfile: LocalProfile}
	}

	var state AppState
	if err := perfjson.Unmarshal(data, &state); err != nil {
		return &AppState{ActiveProfile: LocalProfile}
	}
	if state.ActiveProfile == "" {
		state.ActiveProfile = LocalProfile
	}
	return &state
}

// Save persists the state atomically.
func (m *Manager) Save(state *AppState) error {
	data, err := perfjson.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "failed to serialize state")
	}
	if err := os.MkdirAll(m.stateDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create state directory")
	}
	return cache.WriteFileAtomic(m.StatePath(), data, 0o644)
}
