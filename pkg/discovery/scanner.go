package discovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/git"
)

// Scanner walks the configured search roots concurrently and emits every
// repository it finds. Each Scan call is an independent run with fresh
// state.
type Scanner struct {
	Targets   []Target
	Excluded  []string
	Workers   int           // 0 means GOMAXPROCS
	HighWater int           // outstanding-task count above which walks go inline
	Budget    time.Duration // soft wall-clock budget, 0 disables
	Logger    *slog.Logger
}

// Scan walks all targets and publishes each discovered repository to the
// stream as soon as it is found. It returns the full entry list for
// persistence, run statistics, and ErrCancelled when the run was cut
// short by the context or the stream's cancellation signal. A run that
// merely exhausts its time budget is successful-but-partial, not an
// error.
//
// Per-directory I/O errors are never fatal: the subtree is skipped,
// counted, and sibling work continues.
func (s *Scanner) Scan(ctx context.Context, stream *Stream) ([]Entry, Stats, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	highWater := s.HighWater
	if highWater <= 0 {
		highWater = 256
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	run := &scanRun{
		stream:    stream,
		sem:       semaphore.NewWeighted(int64(workers)),
		highWater: int64(highWater),
		excluded:  make(map[string]struct{}, len(s.Excluded)),
		visited:   make(map[string]struct{}),
		logger:    logger,
	}
	for _, name := range s.Excluded {
		run.excluded[name] = struct{}{}
	}
	if s.Budget > 0 {
		run.deadline = time.Now().Add(s.Budget)
	}

	for _, target := range s.Targets {
		run.spawn(ctx, target.Path, target.Depth)
	}
	run.wg.Wait()

	stats := Stats{
		Dirs:    run.dirs.Load(),
		Found:   int64(len(run.found)),
		Skipped: run.skipped.Load(),
	}

	if run.wasCancelled(ctx) {
		return run.found, stats, tmserrors.ErrCancelled
	}
	return run.found, stats, nil
}

// scanRun holds the per-invocation state of one scan.
type scanRun struct {
	stream    *Stream
	sem       *semaphore.Weighted
	highWater int64
	excluded  map[string]struct{}
	deadline  time.Time
	logger    *slog.Logger

	wg          sync.WaitGroup
	outstanding atomic.Int64

	mu      sync.Mutex
	visited map[string]struct{}
	found   []Entry

	dirs    atomic.Int64
	skipped atomic.Int64
}

// spawn schedules a walk of path. Above the high-water mark the walk runs
// inline on the caller's goroutine instead of spawning, which bounds the
// number of outstanding tasks on very wide trees. Past the deadline or
// after cancellation nothing new is scheduled; in-flight walks finish on
// their own.
func (r *scanRun) spawn(ctx context.Context, path string, depth int) {
	if r.stopSpawning(ctx) {
		return
	}

	if r.outstanding.Load() >= r.highWater {
		r.walk(ctx, path, depth)
		return
	}

	r.outstanding.Add(1)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.outstanding.Add(-1)

		if err := r.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer r.sem.Release(1)

		r.walk(ctx, path, depth)
	}()
}

func (r *scanRun) walk(ctx context.Context, path string, depth int) {
	// Roots get the same name filter as children: a search dir whose own
	// name is excluded or hidden is not scanned.
	if r.skipName(filepath.Base(path)) {
		r.skipped.Add(1)
		return
	}

	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		r.skipped.Add(1)
		return
	}
	if !r.markVisited(canonical) {
		return
	}
	r.dirs.Add(1)

	if git.HasMarker(canonical) {
		if _, err := git.Open(canonical); err == nil {
			r.emit(Entry{
				Name:   filepath.Base(canonical),
				Path:   canonical,
				Origin: OriginLocal,
			})
		}
	}

	if depth <= 0 {
		return
	}

	children, err := os.ReadDir(canonical)
	if err != nil {
		r.skipped.Add(1)
		r.logger.Debug("skipping unreadable directory", "path", canonical, "error", err)
		return
	}

	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		name := child.Name()
		if r.skipName(name) {
			continue
		}
		r.spawn(ctx, filepath.Join(canonical, name), depth-1)
	}
}

// skipName reports whether a directory name is excluded or hidden. "."
// and ".." are path syntax, not hidden names, so a relative root like "."
// still scans.
func (r *scanRun) skipName(name string) bool {
	if _, ok := r.excluded[name]; ok {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// markVisited records a canonical path, reporting false if it was already
// seen. This deduplicates overlapping roots and symlink cycles in one
// check.
func (r *scanRun) markVisited(canonical string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.visited[canonical]; ok {
		return false
	}
	r.visited[canonical] = struct{}{}
	return true
}

func (r *scanRun) emit(entry Entry) {
	r.mu.Lock()
	r.found = append(r.found, entry)
	r.mu.Unlock()
	r.stream.Publish(entry)
}

func (r *scanRun) stopSpawning(ctx context.Context) bool {
	if r.wasCancelled(ctx) {
		return true
	}
	return !r.deadline.IsZero() && time.Now().After(r.deadline)
}

func (r *scanRun) wasCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-r.stream.Cancelled():
		return true
	default:
		return false
	}
}
