// Package discovery finds session candidates: local repositories found by
// a concurrent filesystem scan, bookmarked directories, and remote
// repositories served by a profile source. Results flow to the picker
// through a non-blocking stream, backed by a two-tier cache.
package discovery

// Origin values for Entry. Remote entries carry their profile name.
const (
	OriginLocal    = "local"
	OriginBookmark = "bookmark"
)

// Entry is one selectable candidate. Entries are immutable once created
// and unique by canonical path within a run.
type Entry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Origin string `json:"origin"`
}

// Target is one search root with its maximum traversal depth. Paths are
// expected to be expanded and canonicalized by the config layer.
type Target struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

// Stats summarizes one scan run.
type Stats struct {
	Dirs    int64 // directories visited
	Found   int64 // repositories emitted
	Skipped int64 // subtrees skipped due to I/O errors
}
