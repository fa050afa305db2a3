package discovery

import (
	"time"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/cache"
)

// Snapshot is the persisted result of one completed local scan, bundled
// with the configuration fingerprint it was produced under.
type Snapshot struct {
	SearchDirs []Target `json:"search_dirs"`
	Bookmarks  []string `json:"bookmarks"`
	Entries    []Entry  `json:"entries"`
	CachedAt   int64    `json:"cached_at"`
}

// CachedAtUnix implements cache.Record.
func (s Snapshot) CachedAtUnix() int64 { return s.CachedAt }

// LocalCache persists scan snapshots. A snapshot is served only while it
// is younger than the TTL and its search dirs and bookmarks are set-equal
// to the current configuration; anything else is a miss that falls back
// to scanning.
type LocalCache struct {
	store *cache.Store[Snapshot]
}

// NewLocalCache creates a cache at path with the given TTL.
func NewLocalCache(path string, ttl time.Duration) *LocalCache {
	return &LocalCache{store: cache.NewStore[Snapshot](path, ttl)}
}

// Load validates the stored snapshot against the current targets and
// bookmarks. It performs no scanning.
func (c *LocalCache) Load(targets []Target, bookmarks []string) cache.Result[Snapshot] {
	return c.store.Load(func(s *Snapshot) string {
		if !targetsEqual(s.SearchDirs, targets) {
			return "search dirs changed"
		}
		if !stringSetEqual(s.Bookmarks, bookmarks) {
			return "bookmarks changed"
		}
		return ""
	})
}

// Store atomically persists a fresh snapshot, replacing any previous one
// wholesale.
func (c *LocalCache) Store(targets []Target, bookmarks []string, entries []Entry) error {
	return c.store.Save(&Snapshot{
		SearchDirs: targets,
		Bookmarks:  bookmarks,
		Entries:    entries,
		CachedAt:   time.Now().Unix(),
	})
}

// Invalidate discards the stored snapshot.
func (c *LocalCache) Invalidate() error {
	return c.store.Invalidate()
}

// targetsEqual compares two target lists as sets of (path, depth) pairs.
// Order is irrelevant.
func targetsEqual(a, b []Target) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[Target]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
