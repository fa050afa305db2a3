package state

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	tmpDir := t.TempDir()
	return NewManagerAt(filepath.Join(tmpDir, "state"), filepath.Join(tmpDir, "cache"))
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	m := newTestManager(t)

	state := m.Load()
	if state.ActiveProfile != LocalProfile {
		t.Errorf("ActiveProfile = %q, want %q", state.ActiveProfile, LocalProfile)
	}
}

func TestSaveAndLoad(t *testing.T) {
	m := newTestManager(t)

	if err := m.Save(&AppState{ActiveProfile: "work"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state := m.Load()
	if state.ActiveProfile != "work" {
		t.Errorf("ActiveProfile = %q, want %q", state.ActiveProfile, "work")
	}
}

func TestLoadCorruptFallsBackToDefault(t *testing.T) {
	m := newTestManager(t)

	if err := os.MkdirAll(filepath.Dir(m.StatePath()), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(m.StatePath(), []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	state := m.Load()
	if state.ActiveProfile != LocalProfile {
		t.Errorf("ActiveProfile = %q, want %q", state.ActiveProfile, LocalProfile)
	}
}

func TestCachePaths(t *testing.T) {
	m := NewManagerAt("/state", "/cache")

	if got := m.LocalCachePath(); got != "/cache/directories.json" {
		t.Errorf("LocalCachePath = %q", got)
	}
	if got := m.GitHubCachePath("work"); got != "/cache/github/work.json" {
		t.Errorf("GitHubCachePath = %q", got)
	}
}

func TestXDGOverrides(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")

	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if got := m.StatePath(); got != "/custom/state/tms/state.json" {
		t.Errorf("StatePath = %q", got)
	}
	if got := m.LocalCachePath(); got != "/custom/cache/tms/directories.json" {
		t.Errorf("LocalCachePath = %q", got)
	}
}
