package ui

import (
	"bytes"
	"strings"
	"testing"

	"replay/internal/playlist"
	"replay/pkg/models"

	"github.com/sirupsen/logrus"
)

func TestReadableDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{187.6, "00:03:07"},
		{3661, "01:01:01"},
		{-5, "00:00:00"},
	}
	for _, tt := range tests {
		if got := ReadableDuration(tt.seconds); got != tt.want {
			t.Errorf("ReadableDuration(%v) = %q, expected %q", tt.seconds, got, tt.want)
		}
	}
}

func newConsoleFixture(t *testing.T) (*Console, *playlist.Store, *bytes.Buffer) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	build := func(path string) (*models.Track, error) {
		return &models.Track{
			Title:    strings.TrimSuffix(path, ".mp3"),
			Artist:   "Artist",
			Album:    "Album",
			Duration: 100,
			Path:     path,
			Seek:     models.NewSeekMap(100),
		}, nil
	}
	store := playlist.NewStore(build, logger)

	var out bytes.Buffer
	return NewConsole(store, &out), store, &out
}

func TestTrackStartedLine(t *testing.T) {
	c, _, out := newConsoleFixture(t)

	c.TrackStarted(0, &models.Track{
		Title:    "Song",
		Artist:   "Artist",
		Album:    "Album",
		Duration: 187,
	})

	got := out.String()
	if !strings.Contains(got, "1. Song - Album - Artist (00:03:07)") {
		t.Fatalf("Unexpected track line: %q", got)
	}
}

func TestProgressShowsRemainingTime(t *testing.T) {
	c, _, out := newConsoleFixture(t)

	c.Progress(40, 100)
	if !strings.Contains(out.String(), "-00:01:00") {
		t.Fatalf("Unexpected progress line: %q", out.String())
	}
}

func TestPlaylistChangedMarksActiveEntry(t *testing.T) {
	c, store, out := newConsoleFixture(t)
	store.Add("first.mp3")
	store.Add("second.mp3")

	c.PlaylistChanged("second.mp3")

	got := out.String()
	if !strings.Contains(got, "2. [Now Playing]: second") {
		t.Fatalf("Expected active marker on the second entry, got %q", got)
	}
	if strings.Contains(got, "1. [Now Playing]") {
		t.Fatalf("Unexpected marker on the first entry: %q", got)
	}
}

func TestPlaylistChangedWithNothingActive(t *testing.T) {
	c, store, out := newConsoleFixture(t)
	store.Add("first.mp3")

	c.PlaylistChanged("")

	if strings.Contains(out.String(), "[Now Playing]") {
		t.Fatalf("Unexpected marker: %q", out.String())
	}
}

func TestStateChanged(t *testing.T) {
	c, _, out := newConsoleFixture(t)

	c.StateChanged(models.StatePaused)
	if !strings.Contains(out.String(), "[paused]") {
		t.Fatalf("Unexpected state line: %q", out.String())
	}
}
