package github

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/oauth2"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
)

// CredentialProvider resolves an access token for a profile. Token may
// block on user interaction (command prompts, device flow), so it must
// only be invoked on an actual cache miss.
type CredentialProvider interface {
	Token(ctx context.Context, profile *config.Profile) (string, error)
}

// DefaultCredentialProvider runs the profile's credentials_command when
// one is configured, and falls back to OAuth device flow (with a cached
// token) for profiles that configure a client_id instead.
type DefaultCredentialProvider struct {
	// NewTokenCache is swappable for testing; defaults to NewTokenCache.
	newTokenCache func(profile string) TokenCache
}

// NewCredentialProvider creates the default provider.
func NewCredentialProvider() *DefaultCredentialProvider {
	return &DefaultCredentialProvider{newTokenCache: NewTokenCache}
}

// Token implements CredentialProvider.
func (p *DefaultCredentialProvider) Token(ctx context.Context, profile *config.Profile) (string, error) {
	if profile.CredentialsCommand != "" {
		return runCredentialsCommand(ctx, profile)
	}
	if profile.ClientID != "" {
		return p.deviceFlowToken(profile)
	}
	return "", tmserrors.NewCredentialError(profile.Name, "no credentials_command or client_id configured")
}

// runCredentialsCommand executes the configured command through the shell
// and returns its trimmed stdout as the token.
func runCredentialsCommand(ctx context.Context, profile *config.Profile) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", profile.CredentialsCommand)
	cmd.Stderr = os.Stderr
	output, err := cmd.Output()
	if err != nil {
		return "", tmserrors.NewCredentialErrorWithCause(profile.Name, "credentials command failed", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", tmserrors.NewCredentialError(profile.Name, "credentials command produced no token")
	}
	return token, nil
}

// deviceFlowToken returns a cached OAuth token, or runs the device flow
// and caches the result.
func (p *DefaultCredentialProvider) deviceFlowToken(profile *config.Profile) (string, error) {
	newCache := p.newTokenCache
	if newCache == nil {
		newCache = NewTokenCache
	}
	tokenCache := newCache(profile.Name)

	if cached, err := tokenCache.Get(); err == nil && cached != nil && cached.AccessToken != "" {
		return cached.AccessToken, nil
	}

	token, err := DeviceAuth(profile.Name, profile.ClientID, os.Stderr)
	if err != nil {
		return "", err
	}

	// A token that cannot be cached is still usable this run.
	_ = tokenCache.Set(&oauth2.Token{AccessToken: token.Token, TokenType: token.Type})
	return token.Token, nil
}
