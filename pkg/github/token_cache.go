package github

import (
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/perfjson"
)

const (
	// KeyringService is the keychain service name for tms.
	KeyringService = "tms-github"

	// TokenCacheDir is the directory for fallback token files.
	TokenCacheDir = ".config/tms" //nolint:gosec // Not a credential, just a directory name
)

// TokenCache manages OAuth token storage for one profile.
type TokenCache interface {
	Get() (*oauth2.Token, error)
	Set(token *oauth2.Token) error
	Clear() error
}

// cachedToken wraps oauth2.Token with JSON serialization.
type cachedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func (c *cachedToken) toOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

func fromOAuth2Token(t *oauth2.Token) *cachedToken {
	return &cachedToken{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

// NewTokenCache creates a token cache for a profile, preferring the system
// keychain when available.
func NewTokenCache(profile string) TokenCache {
	// Probe whether a keyring backend is usable on this system.
	testService := KeyringService + "-test"
	if err := keyring.Set(testService, "test", "test"); err == nil {
		_ = keyring.Delete(testService, "test")
		return &KeychainTokenCache{
			service: KeyringService,
			account: profile,
		}
	}

	return &FileTokenCache{
		profile: profile,
		path:    tokenCachePath(profile),
	}
}

// KeychainTokenCache uses macOS keychain / Linux secret service / Windows
// credential manager.
type KeychainTokenCache struct {
	service string
	account string
}

// Get retrieves the cached token from keychain.
func (k *KeychainTokenCache) Get() (*oauth2.Token, error) {
	data, err := keyring.Get(k.service, k.account)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil // No cached token
		}
		return nil, tmserrors.NewCredentialErrorWithCause(k.account, "failed to read from keychain", err)
	}

	var cached cachedToken
	if err := perfjson.Unmarshal([]byte(data), &cached); err != nil {
		return nil, tmserrors.NewCredentialErrorWithCause(k.account, "failed to parse cached token", err)
	}

	return cached.toOAuth2Token(), nil
}

// Set stores the token in keychain.
func (k *KeychainTokenCache) Set(token *oauth2.Token) error {
	data, err := perfjson.Marshal(fromOAuth2Token(token))
	if err != nil {
		return tmserrors.NewCredentialErrorWithCause(k.account, "failed to serialize token", err)
	}

	if err := keyring.Set(k.service, k.account, string(data)); err != nil {
		return tmserrors.NewCredentialErrorWithCause(k.account, "failed to save to keychain", err)
	}

	return nil
}

// Clear removes the token from keychain.
func (k *KeychainTokenCache) Clear() error {
	err := keyring.Delete(k.service, k.account)
	if err != nil && err != keyring.ErrNotFound {
		return tmserrors.NewCredentialErrorWithCause(k.account, "failed to clear keychain", err)
	}
	return nil
}

// FileTokenCache stores the token in a file (fallback for headless
// systems without a keyring backend).
type FileTokenCache struct {
	profile string
	path    string
}

// Get retrieves the cached token from file.
func (f *FileTokenCache) Get() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No cached token
		}
		return nil, tmserrors.NewCredentialErrorWithCause(f.profile, "failed to read token file", err)
	}

	var cached cachedToken
	if err := perfjson.Unmarshal(data, &cached); err != nil {
		return nil, tmserrors.NewCredentialErrorWithCause(f.profile, "failed to parse cached token", err)
	}

	return cached.toOAuth2Token(), nil
}

// Set stores the token in a file with restrictive permissions.
func (f *FileTokenCache) Set(token *oauth2.Token) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return tmserrors.NewCredentialErrorWithCause(f.profile, "failed to create config directory", err)
	}

	data, err := perfjson.Marshal(fromOAuth2Token(token))
	if err != nil {
		return tmserrors.NewCredentialErrorWithCause(f.profile, "failed to serialize token", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return tmserrors.NewCredentialErrorWithCause(f.profile, "failed to write token file", err)
	}

	return nil
}

// Clear removes the token file.
func (f *FileTokenCache) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return tmserrors.NewCredentialErrorWithCause(f.profile, "failed to remove token file", err)
	}
	return nil
}

func tokenCachePath(profile string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, TokenCacheDir, "github-token-"+profile+".json")
}
