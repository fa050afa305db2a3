// Package cache implements a generic validated file cache.
//
// Both cache tiers (local scan snapshots and per-profile remote repository
// records) share the same shape: a JSON record with a timestamp, validated
// against a TTL and an optional fingerprint before being served. Store
// captures that shape once; the record type and fingerprint function are
// supplied by the caller.
//
// Writes are atomic: the record is written to a temporary file in the same
// directory and renamed into place, so concurrent readers see either the
// old complete file or the new complete file, never a mixture.
package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/perfjson"
)

// Record is implemented by cached record types. CachedAtUnix anchors the
// TTL check.
type Record interface {
	CachedAtUnix() int64
}

// Status classifies the outcome of a Load.
type Status int

const (
	// StatusValid means the record passed all checks and can be served.
	StatusValid Status = iota
	// StatusInvalid means the record was readable but failed the TTL or
	// fingerprint check. Reason says which.
	StatusInvalid
	// StatusUnreadable means the file is missing, unreadable, or
	// unparseable. Never an error: callers treat it as a miss.
	StatusUnreadable
)

// Result is the tagged outcome of a Load, so callers branch exhaustively
// instead of re-deriving the validity check.
type Result[T Record] struct {
	Status Status
	Record *T     // set whenever the record was readable, including StatusInvalid
	Reason string // set when Status == StatusInvalid
}

// Store persists one record of type T at a fixed path.
type Store[T Record] struct {
	Path string
	TTL  time.Duration

	now func() time.Time // for testing; defaults to time.Now
}

// NewStore creates a store for records at path with the given TTL.
func NewStore[T Record](path string, ttl time.Duration) *Store[T] {
	return &Store[T]{Path: path, TTL: ttl, now: time.Now}
}

// NewStoreWithClock creates a store with a custom clock (for testing).
func NewStoreWithClock[T Record](path string, ttl time.Duration, now func() time.Time) *Store[T] {
	return &Store[T]{Path: path, TTL: ttl, now: now}
}

// Load reads and validates the stored record. The optional fingerprint
// function returns a non-empty reason when the record no longer matches the
// current configuration. Load never fails: every failure mode maps onto
// StatusUnreadable or StatusInvalid.
func (s *Store[T]) Load(fingerprint func(*T) string) Result[T] {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Result[T]{Status: StatusUnreadable}
	}

	rec := new(T)
	if err := perfjson.Unmarshal(data, rec); err != nil {
		// Corrupt cache is a miss, not an error.
		return Result[T]{Status: StatusUnreadable}
	}

	age := s.now().Unix() - (*rec).CachedAtUnix()
	if age < 0 || time.Duration(age)*time.Second > s.TTL {
		// Record is kept so callers with a stale-fallback policy can still
		// reach it.
		return Result[T]{Status: StatusInvalid, Record: rec, Reason: "expired"}
	}

	if fingerprint != nil {
		if reason := fingerprint(rec); reason != "" {
			return Result[T]{Status: StatusInvalid, Record: rec, Reason: reason}
		}
	}

	return Result[T]{Status: StatusValid, Record: rec}
}

// Save atomically persists rec, replacing any previous record wholesale.
func (s *Store[T]) Save(rec *T) error {
	data, err := perfjson.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode cache record")
	}

	return WriteFileAtomic(s.Path, data, 0o644)
}

// Invalidate removes the stored record. A missing file is not an error.
func (s *Store[T]) Invalidate() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove cache file %s", s.Path)
	}
	return nil
}

// WriteFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename. Readers never observe a partial write;
// a crash before the rename leaves any prior file intact.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "failed to rename temp file into %s", path)
	}

	return nil
}
