package discovery

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/cache"
	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
	tmserrors "github.com/alisonjenkins/tmux-sessionizer/pkg/errors"
)

// Phase is the engine's position in one run.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseScanning  Phase = "scanning"
	PhaseStreaming Phase = "streaming"
	PhaseDone      Phase = "done"
)

// RemoteSource supplies repository entries for a named profile. The
// implementation owns credential handling, pagination, and its own cache
// tier.
type RemoteSource interface {
	Repositories(ctx context.Context, profile string, forceRefresh bool) ([]Entry, error)
}

// Engine orchestrates one discovery run at a time: it decides between
// cache and live scan/fetch for the requested mode, drives the stream,
// and persists results. Mode is explicit state passed into Start and read
// back with Mode; the caller persists it between runs.
type Engine struct {
	cfg    *config.Config
	local  *LocalCache
	remote RemoteSource
	logger *slog.Logger

	mu     sync.Mutex
	phase  Phase
	mode   string
	stream *Stream
}

// NewEngine creates an idle engine.
func NewEngine(cfg *config.Config, local *LocalCache, remote RemoteSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, local: local, remote: remote, logger: logger, phase: PhaseIdle}
}

// Phase reports the engine's current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Mode reports the mode of the current or most recent run.
func (e *Engine) Mode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Start begins a run for mode ("local" or a profile name) and returns its
// stream. Any in-flight run is cancelled first, so a slow previous scan
// cannot leak late results into the new mode's displayed set. The returned
// error is fatal (configuration); profile-scoped failures surface through
// the stream's Err instead.
func (e *Engine) Start(ctx context.Context, mode string, forceRefresh bool) (*Stream, error) {
	stream := NewStream()

	e.mu.Lock()
	if e.stream != nil {
		select {
		case <-e.stream.Done():
		default:
			e.stream.Cancel()
		}
	}
	e.stream = stream
	e.mode = mode
	e.phase = PhaseScanning
	e.mu.Unlock()

	logger := e.logger.With("run_id", uuid.NewString(), "mode", mode)

	if mode == OriginLocal {
		return e.startLocal(ctx, stream, forceRefresh, logger)
	}
	return e.startProfile(ctx, stream, mode, forceRefresh, logger)
}

func (e *Engine) startLocal(ctx context.Context, stream *Stream, forceRefresh bool, logger *slog.Logger) (*Stream, error) {
	dirs, err := e.cfg.ResolvedSearchDirs()
	if err != nil {
		e.setPhaseFor(stream, PhaseIdle)
		return nil, err
	}
	targets := make([]Target, len(dirs))
	for i, d := range dirs {
		targets[i] = Target{Path: d.Path, Depth: d.Depth}
	}
	bookmarks := e.cfg.BookmarkPaths()

	if forceRefresh {
		if err := e.local.Invalidate(); err != nil {
			logger.Warn("failed to invalidate local cache", "error", err)
		}
	}

	result := e.local.Load(targets, bookmarks)
	if result.Status == cache.StatusValid {
		stream.PublishAll(result.Record.Entries)
		publishMissingBookmarks(stream, bookmarks, result.Record.Entries)
		e.setPhaseFor(stream, PhaseDone)
		stream.Finish(nil)
		logger.Debug("served local entries from cache", "entries", len(result.Record.Entries))
		return stream, nil
	}
	logger.Debug("local cache miss", "reason", result.Reason)

	e.setPhaseFor(stream, PhaseStreaming)
	go func() {
		scanner := &Scanner{
			Targets:   targets,
			Excluded:  e.cfg.ExcludedDirs,
			Workers:   e.cfg.Scan.Workers,
			HighWater: e.cfg.Scan.HighWater,
			Budget:    e.cfg.ScanTimeout(),
			Logger:    logger,
		}
		entries, stats, err := scanner.Scan(ctx, stream)
		if err != nil {
			// Cancelled runs never persist: a partial snapshot from an
			// abandoned mode would poison the next run.
			e.setPhaseFor(stream, PhaseDone)
			stream.Finish(err)
			logger.Debug("scan cancelled", "found", stats.Found)
			return
		}

		publishMissingBookmarks(stream, bookmarks, entries)

		// Persist only after all scan tasks have drained, never mid-scan.
		if err := e.local.Store(targets, bookmarks, entries); err != nil {
			logger.Warn("failed to persist scan snapshot", "error", err)
		}

		e.setPhaseFor(stream, PhaseDone)
		stream.Finish(nil)
		logger.Debug("scan complete",
			"dirs", stats.Dirs, "found", stats.Found, "skipped", stats.Skipped)
	}()

	return stream, nil
}

func (e *Engine) startProfile(ctx context.Context, stream *Stream, mode string, forceRefresh bool, logger *slog.Logger) (*Stream, error) {
	if e.cfg.Profile(mode) == nil {
		e.setPhaseFor(stream, PhaseIdle)
		return nil, tmserrors.NewConfigError("github_profiles", "unknown profile "+mode)
	}
	if e.remote == nil {
		e.setPhaseFor(stream, PhaseIdle)
		return nil, tmserrors.NewConfigError("github_profiles", "no remote source configured")
	}

	go func() {
		// The remote list arrives as one batch, not an incremental stream;
		// the consumer shows a loading state until Done.
		repos, err := e.remote.Repositories(ctx, mode, forceRefresh)
		if err != nil {
			e.setPhaseFor(stream, PhaseDone)
			stream.Finish(err)
			logger.Warn("profile fetch failed", "error", err)
			return
		}
		stream.PublishAll(repos)
		e.setPhaseFor(stream, PhaseDone)
		stream.Finish(nil)
		logger.Debug("profile fetch complete", "repositories", len(repos))
	}()

	return stream, nil
}

// setPhaseFor updates the phase only while stream is still the current
// run. A cancelled run's goroutine outlives its replacement, so an
// unconditional update would let a stale run report Done for the run
// that superseded it.
func (e *Engine) setPhaseFor(stream *Stream, phase Phase) {
	e.mu.Lock()
	if e.stream == stream {
		e.phase = phase
	}
	e.mu.Unlock()
}

// publishMissingBookmarks emits bookmark entries whose paths are not
// already covered by scan results, keeping one run's entries unique by
// canonical path.
func publishMissingBookmarks(stream *Stream, bookmarks []string, entries []Entry) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Path] = struct{}{}
	}
	for _, path := range bookmarks {
		if _, ok := seen[path]; ok {
			continue
		}
		stream.Publish(Entry{
			Name:   filepath.Base(path),
			Path:   path,
			Origin: OriginBookmark,
		})
	}
}
