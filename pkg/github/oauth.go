package github

import (
	"fmt"
	"io"
	"os"

	"github.com/cli/oauth"
	"github.com/cli/oauth/api"

	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
)

const (
	// DefaultGitHubHost is the default GitHub host.
	DefaultGitHubHost = "https://github.com"

	// DefaultScopes are the OAuth scopes required to list and clone
	// private repositories.
	DefaultScopes = "repo"
)

// DeviceAuth performs OAuth device flow authentication for a profile with
// a configured client_id. It displays a code for the user to enter at
// GitHub's verification URL, then polls until authorization completes.
func DeviceAuth(profileName, clientID string, stdout io.Writer) (*api.AccessToken, error) {
	if clientID == "" {
		return nil, tmserrors.NewCredentialError(profileName, "client_id is required for OAuth device flow")
	}

	host, err := oauth.NewGitHubHost(DefaultGitHubHost)
	if err != nil {
		return nil, tmserrors.NewCredentialErrorWithCause(profileName, "invalid GitHub host URL", err)
	}

	flow := &oauth.Flow{
		Host:     host,
		ClientID: clientID,
		Scopes:   []string{DefaultScopes},
		Stdout:   stdout,
		Stdin:    os.Stdin,
		DisplayCode: func(code, verificationURL string) error {
			fmt.Fprintf(stdout, "\n! First, copy your one-time code: %s\n", code)
			fmt.Fprintf(stdout, "- Press Enter to open %s in your browser...\n", verificationURL)
			return nil
		},
	}

	token, err := flow.DeviceFlow()
	if err != nil {
		return nil, tmserrors.NewCredentialErrorWithCause(profileName, "device flow failed", err)
	}

	return token, nil
}
