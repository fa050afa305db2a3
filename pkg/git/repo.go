// Package git provides the repository primitives used by discovery:
// a cheap marker probe, a repository-open call, and an idempotent clone.
package git

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind identifies the version control system backing a repository.
type Kind string

const (
	KindGit     Kind = "git"
	KindJujutsu Kind = "jj"
)

// Repo is the metadata returned by a successful Open.
type Repo struct {
	Path     string // Directory that was opened
	Kind     Kind
	Bare     bool // Bare layout, no working tree
	Worktree bool // Linked worktree of another repository
}

// HasMarker reports whether path contains a repository marker (.git or
// .jj). It is a cheap presence probe meant to run before the more
// expensive Open, so the large majority of directories never pay for a
// full open.
func HasMarker(path string) bool {
	if _, err := os.Lstat(filepath.Join(path, ".git")); err == nil {
		return true
	}
	if _, err := os.Lstat(filepath.Join(path, ".jj")); err == nil {
		return true
	}
	return false
}

// Open inspects path and returns repository metadata, or a definite
// negative result. It is expected to be called only after HasMarker (or
// for bare-layout candidates).
func Open(path string) (*Repo, error) {
	gitPath := filepath.Join(path, ".git")
	if info, err := os.Lstat(gitPath); err == nil {
		if info.IsDir() {
			// A .git directory without HEAD is not a usable repository.
			if _, err := os.Stat(filepath.Join(gitPath, "HEAD")); err != nil {
				return nil, errors.Newf("%s has a .git directory but no HEAD", path)
			}
			return &Repo{Path: path, Kind: KindGit}, nil
		}
		if info.Mode().IsRegular() {
			// A .git file points at the real git dir for linked worktrees
			// and submodules.
			data, err := os.ReadFile(gitPath)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read %s", gitPath)
			}
			if strings.HasPrefix(strings.TrimSpace(string(data)), "gitdir:") {
				return &Repo{Path: path, Kind: KindGit, Worktree: true}, nil
			}
			return nil, errors.Newf("%s has a .git file with no gitdir pointer", path)
		}
	}

	if info, err := os.Lstat(filepath.Join(path, ".jj")); err == nil && info.IsDir() {
		return &Repo{Path: path, Kind: KindJujutsu}, nil
	}

	// Bare layout: HEAD + config + objects directly in the directory.
	if isBareLayout(path) {
		return &Repo{Path: path, Kind: KindGit, Bare: true}, nil
	}

	return nil, errors.Newf("%s is not a repository", path)
}

func isBareLayout(path string) bool {
	if _, err := os.Stat(filepath.Join(path, "HEAD")); err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(path, "config")); err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(path, "objects"))
	return err == nil && info.IsDir()
}
