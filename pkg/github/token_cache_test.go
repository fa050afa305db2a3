package github

import (
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
)

func TestFileTokenCacheRoundTrip(t *testing.T) {
	cache := &FileTokenCache{
		profile: "work",
		path:    filepath.Join(t.TempDir(), "github-token-work.json"),
	}

	token := &oauth2.Token{
		AccessToken: "gho_abc123",
		TokenType:   "bearer",
		Expiry:      time.Now().Add(time.Hour).Truncate(time.Second),
	}
	if err := cache.Set(token); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.AccessToken != token.AccessToken || got.TokenType != token.TokenType {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestFileTokenCacheMissingReturnsNil(t *testing.T) {
	cache := &FileTokenCache{
		profile: "work",
		path:    filepath.Join(t.TempDir(), "missing.json"),
	}

	got, err := cache.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil token, got %+v", got)
	}
}

func TestFileTokenCacheClear(t *testing.T) {
	cache := &FileTokenCache{
		profile: "work",
		path:    filepath.Join(t.TempDir(), "github-token-work.json"),
	}

	if err := cache.Set(&oauth2.Token{AccessToken: "gho_abc123"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got, _ := cache.Get(); got != nil {
		t.Error("expected no token after Clear")
	}

	// Clearing twice is fine.
	if err := cache.Clear(); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}
}

func TestCloneURLFor(t *testing.T) {
	repo := Repository{
		SSHURL:   "git@github.com:acme/widgets.git",
		CloneURL: "https://github.com/acme/widgets.git",
	}

	tests := []struct {
		method string
		want   string
	}{
		{"", "git@github.com:acme/widgets.git"},
		{"ssh", "git@github.com:acme/widgets.git"},
		{"https", "https://github.com/acme/widgets.git"},
	}
	for _, tt := range tests {
		profile := &config.Profile{Name: "work", CloneMethod: tt.method}
		if got := CloneURLFor(repo, profile); got != tt.want {
			t.Errorf("CloneURLFor(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}
}
