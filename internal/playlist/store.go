package playlist

import (
	"iter"
	"sync"
	"sync/atomic"

	"replay/pkg/models"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// BuildFunc turns a file path into a Track. It returns an error when the file
// cannot be decoded; the store skips such files instead of failing.
type BuildFunc func(path string) (*models.Track, error)

// Store is the ordered, deduplicated track collection. Entries are addressed
// by a dense zero-based index; every mutation re-indexes so indices stay the
// contiguous range 0..n-1. The store exclusively owns Track lifetime.
type Store struct {
	mu     sync.RWMutex
	build  BuildFunc
	tracks []*models.Track
	byPath map[string]int
	logger *logrus.Logger

	shuffling  atomic.Bool
	reordering atomic.Bool
}

// NewStore creates an empty playlist backed by the given track builder.
func NewStore(build BuildFunc, logger *logrus.Logger) *Store {
	return &Store{
		build:  build,
		byPath: make(map[string]int),
		logger: logger,
	}
}

// Add decodes the file at path and appends it to the playlist, returning the
// new index. A path that is already present, or a file that cannot be
// decoded, is skipped and reported with ok=false.
func (s *Store) Add(path string) (int, bool) {
	s.mu.RLock()
	_, dup := s.byPath[path]
	s.mu.RUnlock()
	if dup {
		return 0, false
	}

	track, err := s.build(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Skipping track")
		return 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byPath[path]; dup {
		return 0, false
	}
	index := len(s.tracks)
	s.tracks = append(s.tracks, track)
	s.byPath[path] = index

	s.logger.WithFields(logrus.Fields{
		"path":  path,
		"title": track.Title,
		"index": index,
	}).Info("Added track")
	return index, true
}

// Remove drops the entry with the given path and re-indexes the remaining
// entries. Removing an unknown path is a no-op.
func (s *Store) Remove(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.byPath[path]
	if !ok {
		return false
	}
	s.tracks = append(s.tracks[:index], s.tracks[index+1:]...)
	s.reindex()

	s.logger.WithField("path", path).Info("Removed track")
	return true
}

// Reorder swaps the entries at from and to, used for drag-to-reorder. A
// reorder already in progress rejects the call.
func (s *Store) Reorder(from, to int) bool {
	if !s.reordering.CompareAndSwap(false, true) {
		return false
	}
	defer s.reordering.Store(false)

	if from == to {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if from < 0 || from >= len(s.tracks) || to < 0 || to >= len(s.tracks) {
		return false
	}
	s.tracks[from], s.tracks[to] = s.tracks[to], s.tracks[from]
	s.reindex()
	return true
}

// Shuffle randomly permutes all entries. A shuffle already in progress
// rejects the call.
func (s *Store) Shuffle() bool {
	if !s.shuffling.CompareAndSwap(false, true) {
		return false
	}
	defer s.shuffling.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	lo.Shuffle(s.tracks)
	s.reindex()
	return true
}

// Clear drops every entry, used when the tracks directory changes.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = nil
	s.byPath = make(map[string]int)
}

// Len reports the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Track returns the entry at index.
func (s *Store) Track(index int) (*models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.tracks) {
		return nil, false
	}
	return s.tracks[index], true
}

// IndexOf resolves a path to its current index.
func (s *Store) IndexOf(path string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index, ok := s.byPath[path]
	return index, ok
}

// All returns a read-only ordered view of (index, track) pairs for display.
// The view is a snapshot: iterating it is not affected by later mutations,
// and it can be ranged over more than once.
func (s *Store) All() iter.Seq2[int, *models.Track] {
	s.mu.RLock()
	snapshot := make([]*models.Track, len(s.tracks))
	copy(snapshot, s.tracks)
	s.mu.RUnlock()

	return func(yield func(int, *models.Track) bool) {
		for i, track := range snapshot {
			if !yield(i, track) {
				return
			}
		}
	}
}

// reindex rebuilds the path lookup after a mutation. Caller holds the lock.
func (s *Store) reindex() {
	s.byPath = make(map[string]int, len(s.tracks))
	for i, track := range s.tracks {
		s.byPath[track.Path] = i
	}
}
