package playlist

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"replay/pkg/models"

	"github.com/sirupsen/logrus"
)

func testBuild(path string) (*models.Track, error) {
	if strings.Contains(path, "corrupt") {
		return nil, errors.New("undecodable file")
	}
	return &models.Track{
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Duration: 100,
		Path:     path,
		Seek:     models.NewSeekMap(100),
	}, nil
}

func newTestStore() *Store {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewStore(testBuild, logger)
}

// requireDense asserts the 0..n-1 index invariant.
func requireDense(t *testing.T, s *Store) {
	t.Helper()
	n := s.Len()
	for i := 0; i < n; i++ {
		track, ok := s.Track(i)
		if !ok {
			t.Fatalf("Missing entry at index %d (len %d)", i, n)
		}
		index, ok := s.IndexOf(track.Path)
		if !ok || index != i {
			t.Fatalf("IndexOf(%s) = (%d, %v), expected %d", track.Path, index, ok, i)
		}
	}
}

func TestAddAssignsDenseIndices(t *testing.T) {
	s := newTestStore()

	for i, path := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		index, ok := s.Add(path)
		if !ok || index != i {
			t.Fatalf("Add(%s) = (%d, %v), expected index %d", path, index, ok, i)
		}
	}
	requireDense(t, s)
}

func TestAddRejectsDuplicates(t *testing.T) {
	s := newTestStore()

	s.Add("a.mp3")
	if _, ok := s.Add("a.mp3"); ok {
		t.Fatal("Expected duplicate add to be rejected")
	}
	if s.Len() != 1 {
		t.Fatalf("Expected 1 entry, got %d", s.Len())
	}
}

func TestAddSkipsUndecodableFiles(t *testing.T) {
	s := newTestStore()

	if _, ok := s.Add("corrupt.mp3"); ok {
		t.Fatal("Expected undecodable file to be skipped")
	}
	if s.Len() != 0 {
		t.Fatalf("Expected empty playlist, got %d entries", s.Len())
	}
}

func TestRemoveReindexes(t *testing.T) {
	s := newTestStore()
	s.Add("a.mp3")
	s.Add("b.mp3")
	s.Add("c.mp3")

	if !s.Remove("b.mp3") {
		t.Fatal("Expected remove to succeed")
	}
	requireDense(t, s)

	if index, _ := s.IndexOf("c.mp3"); index != 1 {
		t.Fatalf("Expected c.mp3 at index 1, got %d", index)
	}

	// Removing an absent path is a no-op.
	if s.Remove("b.mp3") {
		t.Fatal("Expected second remove to be a no-op")
	}
}

func TestAddRemoveKeepsIndicesContiguous(t *testing.T) {
	s := newTestStore()

	for i := 0; i < 10; i++ {
		s.Add(fmt.Sprintf("t%02d.mp3", i))
	}
	for _, path := range []string{"t00.mp3", "t05.mp3", "t09.mp3"} {
		s.Remove(path)
		requireDense(t, s)
	}
	s.Add("t00.mp3")
	requireDense(t, s)
}

func TestReorderSwapsEntries(t *testing.T) {
	s := newTestStore()
	s.Add("a.mp3")
	s.Add("b.mp3")
	s.Add("c.mp3")

	if !s.Reorder(0, 2) {
		t.Fatal("Expected reorder to succeed")
	}
	requireDense(t, s)

	first, _ := s.Track(0)
	last, _ := s.Track(2)
	if first.Path != "c.mp3" || last.Path != "a.mp3" {
		t.Fatalf("Expected [c b a], got [%s _ %s]", first.Path, last.Path)
	}

	// Same-index reorder is a no-op.
	if !s.Reorder(1, 1) {
		t.Fatal("Expected same-index reorder to succeed")
	}
	middle, _ := s.Track(1)
	if middle.Path != "b.mp3" {
		t.Fatalf("Expected b.mp3 to stay at index 1, got %s", middle.Path)
	}
}

func TestReorderRejectsOutOfRange(t *testing.T) {
	s := newTestStore()
	s.Add("a.mp3")

	if s.Reorder(0, 5) || s.Reorder(-1, 0) {
		t.Fatal("Expected out-of-range reorder to be rejected")
	}
}

func TestShufflePreservesEntries(t *testing.T) {
	s := newTestStore()
	paths := make(map[string]bool)
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("t%02d.mp3", i)
		s.Add(path)
		paths[path] = true
	}

	if !s.Shuffle() {
		t.Fatal("Expected shuffle to succeed")
	}
	requireDense(t, s)

	if s.Len() != len(paths) {
		t.Fatalf("Expected %d entries after shuffle, got %d", len(paths), s.Len())
	}
	for _, track := range s.All() {
		if !paths[track.Path] {
			t.Fatalf("Unexpected entry after shuffle: %s", track.Path)
		}
	}
}

func TestAllIsARestartableSnapshot(t *testing.T) {
	s := newTestStore()
	s.Add("a.mp3")
	s.Add("b.mp3")

	view := s.All()

	// A mutation after taking the view must not affect it.
	s.Remove("a.mp3")

	for pass := 0; pass < 2; pass++ {
		var got []string
		for index, track := range view {
			if index != len(got) {
				t.Fatalf("Non-contiguous index %d", index)
			}
			got = append(got, track.Path)
		}
		if len(got) != 2 || got[0] != "a.mp3" || got[1] != "b.mp3" {
			t.Fatalf("Pass %d: unexpected view %v", pass, got)
		}
	}
}

func TestClear(t *testing.T) {
	s := newTestStore()
	s.Add("a.mp3")
	s.Add("b.mp3")

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Expected empty playlist, got %d entries", s.Len())
	}
	if _, ok := s.IndexOf("a.mp3"); ok {
		t.Fatal("Expected path lookup to fail after clear")
	}

	// The store is reusable after a clear.
	if index, ok := s.Add("a.mp3"); !ok || index != 0 {
		t.Fatalf("Add after clear = (%d, %v), expected (0, true)", index, ok)
	}
}
