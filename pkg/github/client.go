package github

import (
	"context"
	"log/slog"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
)

// listPageSize is the page size used for repository listing.
const listPageSize = 100

// Lister fetches the full repository list for an authenticated user.
// Pagination is internal: callers always receive the complete list or an
// error, never a partial page.
type Lister interface {
	ListRepositories(ctx context.Context, profile string) ([]Repository, error)
}

// APIClient implements Lister using the GitHub REST API.
type APIClient struct {
	client *gh.Client
	logger *slog.Logger
}

// Compile-time check that APIClient implements Lister.
var _ Lister = (*APIClient)(nil)

// NewAPIClient creates a GitHub API client with the given token.
func NewAPIClient(token string, logger *slog.Logger) (*APIClient, error) {
	if token == "" {
		return nil, tmserrors.NewFetchError("", "token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &APIClient{client: gh.NewClient(tc), logger: logger}, nil
}

// ListRepositories fetches every repository the authenticated user can
// access, walking all pages before returning.
func (c *APIClient) ListRepositories(ctx context.Context, profile string) ([]Repository, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		ListOptions: gh.ListOptions{PerPage: listPageSize},
	}

	var all []Repository
	for {
		repos, resp, err := c.client.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			if resp != nil && resp.StatusCode > 0 {
				return nil, tmserrors.NewFetchErrorWithStatus(profile, resp.StatusCode, err.Error())
			}
			return nil, tmserrors.NewFetchErrorWithCause(profile, "API request failed", err)
		}

		for _, repo := range repos {
			all = append(all, Repository{
				Name:     repo.GetName(),
				FullName: repo.GetFullName(),
				SSHURL:   repo.GetSSHURL(),
				CloneURL: repo.GetCloneURL(),
				Private:  repo.GetPrivate(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Debug("listed repositories", "profile", profile, "count", len(all))
	return all, nil
}
