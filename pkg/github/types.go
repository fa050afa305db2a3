// Package github lists remote repositories for configured profiles and
// caches the results per profile.
package github

import (
	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/discovery"
)

// Repository is the subset of remote repository metadata tms needs.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	SSHURL   string `json:"ssh_url"`
	CloneURL string `json:"clone_url"`
	Private  bool   `json:"private"`
}

// Record is the persisted repository list for one profile.
type Record struct {
	Profile      string       `json:"profile"`
	Repositories []Repository `json:"repositories"`
	FetchedAt    int64        `json:"fetched_at"`
}

// CachedAtUnix implements cache.Record.
func (r Record) CachedAtUnix() int64 { return r.FetchedAt }

// CloneURLFor returns the URL the profile's clone method wants.
func CloneURLFor(repo Repository, profile *config.Profile) string {
	if profile.CloneMethod == "https" {
		return repo.CloneURL
	}
	return repo.SSHURL
}

// toEntries converts repositories into picker entries. Entry.Path carries
// the clone URL so selection can clone without a second lookup.
func toEntries(repos []Repository, profile *config.Profile) []discovery.Entry {
	entries := make([]discovery.Entry, 0, len(repos))
	for _, repo := range repos {
		entries = append(entries, discovery.Entry{
			Name:   repo.Name,
			Path:   CloneURLFor(repo, profile),
			Origin: profile.Name,
		})
	}
	return entries
}
