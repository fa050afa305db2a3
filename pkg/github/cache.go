package github

import (
	"context"
	"log/slog"
	"time"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/cache"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/discovery"
	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
)

// ListerFactory builds a Lister for a freshly resolved token.
type ListerFactory func(ctx context.Context, token string, logger *slog.Logger) (Lister, error)

// Source serves repository entries for configured profiles, backed by a
// per-profile cache record. It implements discovery.RemoteSource.
//
// Credential resolution is strictly gated on a cache miss: a record
// within its TTL is served without invoking the credential provider or
// any network call, because credential commands may prompt interactively
// or hit rate limits.
type Source struct {
	cfg       *config.Config
	cachePath func(profile string) string
	creds     CredentialProvider
	newLister ListerFactory
	logger    *slog.Logger
}

// Compile-time check that Source implements discovery.RemoteSource.
var _ discovery.RemoteSource = (*Source)(nil)

// SourceOption is a functional option for configuring Source.
type SourceOption func(*Source)

// WithCredentialProvider overrides the credential provider.
func WithCredentialProvider(creds CredentialProvider) SourceOption {
	return func(s *Source) { s.creds = creds }
}

// WithListerFactory overrides how API clients are built.
func WithListerFactory(factory ListerFactory) SourceOption {
	return func(s *Source) { s.newLister = factory }
}

// WithSourceLogger sets a custom logger.
func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = logger }
}

// NewSource creates a Source. cachePath maps a profile name to its cache
// file location.
func NewSource(cfg *config.Config, cachePath func(profile string) string, opts ...SourceOption) *Source {
	s := &Source{
		cfg:       cfg,
		cachePath: cachePath,
		creds:     NewCredentialProvider(),
		logger:    slog.Default(),
	}
	s.newLister = func(_ context.Context, token string, logger *slog.Logger) (Lister, error) {
		return NewAPIClient(token, logger)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Repositories implements discovery.RemoteSource.
func (s *Source) Repositories(ctx context.Context, profileName string, forceRefresh bool) ([]discovery.Entry, error) {
	profile := s.cfg.Profile(profileName)
	if profile == nil {
		return nil, tmserrors.NewConfigError("github_profiles", "unknown profile "+profileName)
	}

	store := cache.NewStore[Record](s.cachePath(profileName), s.cfg.GitHubTTL())

	if !forceRefresh {
		if result := store.Load(nil); result.Status == cache.StatusValid {
			s.logger.Debug("served repositories from cache",
				"profile", profileName, "count", len(result.Record.Repositories))
			return toEntries(result.Record.Repositories, profile), nil
		}
	}

	token, err := s.creds.Token(ctx, profile)
	if err != nil {
		return nil, err
	}

	lister, err := s.newLister(ctx, token, s.logger)
	if err != nil {
		return nil, err
	}

	repos, err := lister.ListRepositories(ctx, profileName)
	if err != nil {
		if s.cfg.Cache.StaleOnError {
			if result := store.Load(nil); result.Record != nil {
				s.logger.Warn("fetch failed, serving stale repository list",
					"profile", profileName, "error", err)
				return toEntries(result.Record.Repositories, profile), nil
			}
		}
		return nil, err
	}

	// Persist only after the full list arrived, never partial pagination.
	record := &Record{Profile: profileName, Repositories: repos, FetchedAt: time.Now().Unix()}
	if err := store.Save(record); err != nil {
		s.logger.Warn("failed to persist repository cache", "profile", profileName, "error", err)
	}

	return toEntries(repos, profile), nil
}

// Invalidate discards the cached record for a profile.
func (s *Source) Invalidate(profileName string) error {
	store := cache.NewStore[Record](s.cachePath(profileName), s.cfg.GitHubTTL())
	return store.Invalidate()
}
