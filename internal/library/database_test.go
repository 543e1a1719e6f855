package library

import (
	"path/filepath"
	"testing"
	"time"

	"replay/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	db, err := Open(filepath.Join(t.TempDir(), "library.db"), logger)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTrack(path string) *models.Track {
	return &models.Track{
		ID:       uuid.New(),
		Title:    "Sample",
		Artist:   "Artist",
		Album:    "Album",
		Duration: 187.4,
		Path:     path,
		FileSize: 4096,
		Seek:     models.NewSeekMap(187.4),
	}
}

func TestStoreAndLookup(t *testing.T) {
	db := newTestDatabase(t)
	modTime := time.Now().Truncate(time.Second)
	track := sampleTrack("/music/a.mp3")

	if err := db.Store(track, modTime); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, ok := db.Lookup(track.Path, track.FileSize, modTime)
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if got.ID != track.ID || got.Title != track.Title || got.Artist != track.Artist {
		t.Fatalf("Cached track differs: %+v", got)
	}
	if got.Duration != track.Duration {
		t.Fatalf("Expected duration %v, got %v", track.Duration, got.Duration)
	}
	if got.Seek == nil || got.Seek.Segments() != track.Seek.Segments() {
		t.Fatal("Expected the seek map to be rebuilt from the cached duration")
	}
}

func TestLookupMissesOnChangedFile(t *testing.T) {
	db := newTestDatabase(t)
	modTime := time.Now().Truncate(time.Second)
	track := sampleTrack("/music/a.mp3")

	if err := db.Store(track, modTime); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if _, ok := db.Lookup(track.Path, track.FileSize+1, modTime); ok {
		t.Fatal("Expected a miss for a changed file size")
	}
	if _, ok := db.Lookup(track.Path, track.FileSize, modTime.Add(time.Minute)); ok {
		t.Fatal("Expected a miss for a changed modification time")
	}
	if _, ok := db.Lookup("/music/other.mp3", track.FileSize, modTime); ok {
		t.Fatal("Expected a miss for an unknown path")
	}
}

func TestStoreUpsertsByPath(t *testing.T) {
	db := newTestDatabase(t)
	modTime := time.Now().Truncate(time.Second)
	track := sampleTrack("/music/a.mp3")

	if err := db.Store(track, modTime); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// Same path, new content: the row is replaced, not duplicated.
	updated := sampleTrack(track.Path)
	updated.Title = "Retagged"
	updated.FileSize = 8192
	later := modTime.Add(time.Hour)
	if err := db.Store(updated, later); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if _, ok := db.Lookup(track.Path, track.FileSize, modTime); ok {
		t.Fatal("Expected the old row to be gone")
	}
	got, ok := db.Lookup(track.Path, updated.FileSize, later)
	if !ok || got.Title != "Retagged" {
		t.Fatalf("Expected the updated row, got %+v (hit=%v)", got, ok)
	}
}

func TestRemove(t *testing.T) {
	db := newTestDatabase(t)
	modTime := time.Now().Truncate(time.Second)
	track := sampleTrack("/music/a.mp3")

	if err := db.Store(track, modTime); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := db.Remove(track.Path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := db.Lookup(track.Path, track.FileSize, modTime); ok {
		t.Fatal("Expected the row to be removed")
	}

	// Removing an unknown path is a no-op.
	if err := db.Remove("/music/unknown.mp3"); err != nil {
		t.Fatalf("Remove of unknown path failed: %v", err)
	}
}
