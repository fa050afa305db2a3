package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/config"
)

type fakeRemote struct {
	entries []Entry
	err     error
	calls   atomic.Int32
	block   chan struct{}
}

func (f *fakeRemote) Repositories(ctx context.Context, profile string, forceRefresh bool) ([]Entry, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	return f.entries, f.err
}

func waitDone(t *testing.T, stream *Stream) {
	t.Helper()
	select {
	case <-stream.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not finish in time")
	}
}

func entryPaths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	sort.Strings(paths)
	return paths
}

func newLocalEngine(t *testing.T, root string) (*Engine, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		SearchDirs:   []config.SearchDir{{Path: root, Depth: 5}},
		ExcludedDirs: []string{"node_modules"},
	}
	local := NewLocalCache(filepath.Join(t.TempDir(), "directories.json"), 24*time.Hour)
	return NewEngine(cfg, local, nil, nil), cfg
}

func TestEngineScansThenServesFromCache(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, filepath.Join(root, "a"))
	mustMkdir(t, filepath.Join(root, "b"))
	mkRepo(t, filepath.Join(root, "b", "c"))
	mkRepo(t, filepath.Join(root, "node_modules"))

	engine, _ := newLocalEngine(t, root)

	// First run: no cache, so a real scan that finds exactly {a, b/c} and
	// persists a snapshot.
	stream, err := engine.Start(context.Background(), OriginLocal, false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("stream finished with error: %v", err)
	}

	canonical, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}
	want := []string{
		filepath.Join(canonical, "a"),
		filepath.Join(canonical, "b", "c"),
	}
	first := entryPaths(stream.All())
	if len(first) != 2 || first[0] != want[0] || first[1] != want[1] {
		t.Fatalf("first run found %v, want %v", first, want)
	}

	// Remove the repositories but keep the root: a second run within the
	// TTL must serve the snapshot without touching the filesystem.
	if err := os.RemoveAll(filepath.Join(root, "a")); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if err := os.RemoveAll(filepath.Join(root, "b")); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}

	stream, err = engine.Start(context.Background(), OriginLocal, false)
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	waitDone(t, stream)

	second := entryPaths(stream.All())
	if len(second) != 2 || second[0] != want[0] || second[1] != want[1] {
		t.Errorf("cached run found %v, want %v", second, want)
	}
	if engine.Phase() != PhaseDone {
		t.Errorf("Phase = %v, want PhaseDone", engine.Phase())
	}
}

func TestEngineForceRefreshRescans(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, filepath.Join(root, "a"))

	engine, _ := newLocalEngine(t, root)

	stream, err := engine.Start(context.Background(), OriginLocal, false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, stream)

	// A repository added after the snapshot only appears on force-refresh.
	mkRepo(t, filepath.Join(root, "fresh"))

	stream, err = engine.Start(context.Background(), OriginLocal, false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, stream)
	if len(stream.All()) != 1 {
		t.Fatalf("cached run should not see new repo, got %v", stream.All())
	}

	stream, err = engine.Start(context.Background(), OriginLocal, true)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, stream)
	if len(stream.All()) != 2 {
		t.Errorf("force refresh found %v, want 2 entries", stream.All())
	}
}

func TestEngineSearchDirChangeInvalidatesSnapshot(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, filepath.Join(root, "a"))

	engine, cfg := newLocalEngine(t, root)

	stream, err := engine.Start(context.Background(), OriginLocal, false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, stream)

	// Adding a search dir changes the fingerprint, so the next run scans
	// again and picks up repos under the new root.
	other := t.TempDir()
	mkRepo(t, filepath.Join(other, "extra"))
	cfg.SearchDirs = append(cfg.SearchDirs, config.SearchDir{Path: other, Depth: 5})

	stream, err = engine.Start(context.Background(), OriginLocal, false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, stream)
	if len(stream.All()) != 2 {
		t.Errorf("rescan found %v, want 2 entries", stream.All())
	}
}

func TestEngineNoSearchDirsIsFatal(t *testing.T) {
	cfg := &config.Config{}
	local := NewLocalCache(filepath.Join(t.TempDir(), "directories.json"), time.Hour)
	engine := NewEngine(cfg, local, nil, nil)

	if _, err := engine.Start(context.Background(), OriginLocal, false); err == nil {
		t.Error("expected fatal error for missing search dirs")
	}
	if engine.Phase() != PhaseIdle {
		t.Errorf("Phase = %v, want PhaseIdle", engine.Phase())
	}
}

func TestEngineBookmarksAppearOnce(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "a")
	mkRepo(t, repo)
	marked := filepath.Join(root, "notes")
	mustMkdir(t, marked)

	engine, cfg := newLocalEngine(t, root)
	// One bookmark is also a scanned repo, one is a plain directory.
	cfg.Bookmarks = []string{repo, marked}

	stream, err := engine.Start(context.Background(), OriginLocal, false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, stream)

	seen := make(map[string]int)
	for _, e := range stream.All() {
		seen[e.Path]++
	}
	for path, count := range seen {
		if count != 1 {
			t.Errorf("path %s appeared %d times", path, count)
		}
	}
	if len(seen) != 2 {
		t.Errorf("expected repo + bookmark, got %v", stream.All())
	}
}

func TestEngineProfileBatch(t *testing.T) {
	remote := &fakeRemote{entries: []Entry{
		{Name: "widgets", Path: "acme/widgets", Origin: "work"},
		{Name: "gadgets", Path: "acme/gadgets", Origin: "work"},
	}}
	cfg := &config.Config{GitHubProfiles: []config.Profile{
		{Name: "work", CredentialsCommand: "true", CloneRootPath: "/src"},
	}}
	local := NewLocalCache(filepath.Join(t.TempDir(), "directories.json"), time.Hour)
	engine := NewEngine(cfg, local, remote, nil)

	stream, err := engine.Start(context.Background(), "work", false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, stream)

	if len(stream.All()) != 2 {
		t.Errorf("got %v, want 2 repositories", stream.All())
	}
	if remote.calls.Load() != 1 {
		t.Errorf("remote called %d times, want 1", remote.calls.Load())
	}
	if engine.Mode() != "work" {
		t.Errorf("Mode = %q, want work", engine.Mode())
	}
}

func TestEngineUnknownProfile(t *testing.T) {
	cfg := &config.Config{}
	local := NewLocalCache(filepath.Join(t.TempDir(), "directories.json"), time.Hour)
	engine := NewEngine(cfg, local, &fakeRemote{}, nil)

	if _, err := engine.Start(context.Background(), "nope", false); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestEngineModeSwitchCancelsInFlightRun(t *testing.T) {
	root := t.TempDir()
	mkRepo(t, filepath.Join(root, "a"))

	remote := &fakeRemote{
		entries: []Entry{{Name: "late", Path: "acme/late", Origin: "work"}},
		block:   make(chan struct{}),
	}
	cfg := &config.Config{
		SearchDirs:     []config.SearchDir{{Path: root, Depth: 3}},
		GitHubProfiles: []config.Profile{{Name: "work", CredentialsCommand: "true", CloneRootPath: "/src"}},
	}
	local := NewLocalCache(filepath.Join(t.TempDir(), "directories.json"), time.Hour)
	engine := NewEngine(cfg, local, remote, nil)

	slow, err := engine.Start(context.Background(), "work", false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	fast, err := engine.Start(context.Background(), OriginLocal, false)
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	select {
	case <-slow.Cancelled():
	default:
		t.Fatal("previous run was not cancelled on mode switch")
	}

	// Let the slow fetch complete; its late results must not surface.
	close(remote.block)
	waitDone(t, slow)
	if len(slow.All()) != 0 {
		t.Errorf("late results leaked into cancelled stream: %v", slow.All())
	}

	waitDone(t, fast)
	if len(fast.All()) != 1 {
		t.Errorf("new mode got %v, want 1 entry", fast.All())
	}
}

// gatedRemote blocks each call on its own channel so two overlapping runs
// can be released independently.
type gatedRemote struct {
	gates []chan struct{}
	calls atomic.Int32
}

func (g *gatedRemote) Repositories(ctx context.Context, profile string, forceRefresh bool) ([]Entry, error) {
	n := int(g.calls.Add(1)) - 1
	if n < len(g.gates) && g.gates[n] != nil {
		<-g.gates[n]
	}
	return []Entry{{Name: "repo", Path: "acme/repo", Origin: profile}}, nil
}

func TestEngineStaleRunDoesNotClobberPhase(t *testing.T) {
	remote := &gatedRemote{gates: []chan struct{}{
		make(chan struct{}),
		make(chan struct{}),
	}}
	cfg := &config.Config{GitHubProfiles: []config.Profile{
		{Name: "work", CredentialsCommand: "true", CloneRootPath: "/src"},
	}}
	local := NewLocalCache(filepath.Join(t.TempDir(), "directories.json"), time.Hour)
	engine := NewEngine(cfg, local, remote, nil)

	stale, err := engine.Start(context.Background(), "work", false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Ensure the stale run has claimed gates[0] before the second Start,
	// so each gate releases the run it is meant to.
	for remote.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	current, err := engine.Start(context.Background(), "work", false)
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	// Finish the cancelled run while the current one is still fetching.
	close(remote.gates[0])
	waitDone(t, stale)

	select {
	case <-current.Done():
		t.Fatal("current run finished before its gate was opened")
	default:
	}
	if phase := engine.Phase(); phase == PhaseDone {
		t.Errorf("stale run set Phase = %v while the current run is in flight", phase)
	}

	close(remote.gates[1])
	waitDone(t, current)
	if engine.Phase() != PhaseDone {
		t.Errorf("Phase = %v after current run finished, want PhaseDone", engine.Phase())
	}
}
