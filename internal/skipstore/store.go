// Package skipstore implements the Skip Store (spec §4.3): a map from
// meeting-id to expiry instant, persisted as a single JSON file with
// atomic write-to-temp-then-rename, self-purging on load. Shaped after
// the teacher's idempotency.Store (TTL entry, backend-or-fallback) but
// redesigned to the spec's single-file persistence contract rather than a
// Redis backend — the store of record here is the file, never a cache.
package skipstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bencan1a/calendarlite/internal/apperrors"
	"github.com/bencan1a/calendarlite/internal/clock"
	"github.com/bencan1a/calendarlite/internal/logging"
)

// DefaultExpiry is how long a skip lasts from the moment it's added.
const DefaultExpiry = 24 * time.Hour

// Store is a mutex-serialized, file-persisted map of meeting-id -> expiry.
type Store struct {
	mu      sync.Mutex
	path    string
	clock   clock.Source
	entries map[string]time.Time
}

// New constructs a Store backed by path, without touching disk. Call Load
// to read and purge existing state.
func New(path string, c clock.Source) *Store {
	return &Store{
		path:    path,
		clock:   c,
		entries: make(map[string]time.Time),
	}
}

// Load reads the persisted file (if any), purges expired entries, and
// rewrites the file with only the active entries. Corruption is treated as
// an empty store: never block startup on a broken file.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.For("skipstore")

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.entries = make(map[string]time.Time)
			return nil
		}
		log.Warn().Err(err).Str("path", s.path).Msg("failed to read skip store file; starting empty")
		s.entries = make(map[string]time.Time)
		return nil
	}

	raw := make(map[string]time.Time)
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("skip store file is corrupt; treating as empty")
		s.entries = make(map[string]time.Time)
		return nil
	}

	now := s.clock.Now()
	purged := make(map[string]time.Time, len(raw))
	for id, expiry := range raw {
		if expiry.After(now) {
			purged[id] = expiry
		}
	}
	s.entries = purged
	return s.persistLocked()
}

// IsSkipped reports whether id has an active skip entry. It fails open
// (returns false) on any internal error, per spec §4.3.
func (s *Store) IsSkipped(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.entries[id]
	if !ok {
		return false
	}
	return expiry.After(s.clock.Now())
}

// AddSkip sets id's expiry to now+24h, persists, and returns the expiry in
// RFC3339 ("Z"-suffixed) form.
func (s *Store) AddSkip(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := s.clock.Now().Add(DefaultExpiry)
	s.entries[id] = expiry
	if err := s.persistLocked(); err != nil {
		return "", apperrors.New("skipstore.AddSkip", apperrors.KindSkipStore, err)
	}
	return expiry.UTC().Format(time.RFC3339), nil
}

// ClearAll wipes every entry, persists an empty object, and returns the
// number of entries removed.
func (s *Store) ClearAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.entries)
	s.entries = make(map[string]time.Time)
	if err := s.persistLocked(); err != nil {
		return 0, apperrors.New("skipstore.ClearAll", apperrors.KindSkipStore, err)
	}
	return count, nil
}

// ActiveList returns the currently active entries as id -> expiry ISO
// string, purging expired ones from the in-memory map first (spec §8
// "skip purging" invariant).
func (s *Store) ActiveList() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	out := make(map[string]string, len(s.entries))
	for id, expiry := range s.entries {
		if expiry.After(now) {
			out[id] = expiry.UTC().Format(time.RFC3339)
		} else {
			delete(s.entries, id)
		}
	}
	return out
}

// persistLocked atomically rewrites the backing file. Callers must hold
// s.mu.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
