package ui

import (
	"fmt"
	"io"
	"sync"

	"replay/internal/playlist"
	"replay/pkg/models"
)

// Console renders the player state as plain terminal output. It implements
// player.Display.
type Console struct {
	mu    sync.Mutex
	store *playlist.Store
	out   io.Writer
}

// NewConsole creates a console display over the given playlist.
func NewConsole(store *playlist.Store, out io.Writer) *Console {
	return &Console{store: store, out: out}
}

// TrackStarted announces the track now playing.
func (c *Console) TrackStarted(index int, track *models.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := track.Title
	if track.Album != "" {
		line += " - " + track.Album
	}
	if track.Artist != "" {
		line += " - " + track.Artist
	}
	fmt.Fprintf(c.out, "\n%d. %s (%s)\n", index+1, line, ReadableDuration(track.Duration))
}

// Progress rewrites the remaining-time line in place.
func (c *Console) Progress(elapsed int, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r-%s ", ReadableDuration(duration-float64(elapsed)))
}

// StateChanged reports playing/paused/stopped transitions.
func (c *Console) StateChanged(state models.PlaybackState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r[%s]\n", state)
}

// PlaylistChanged re-renders the ordered track view, marking the active
// entry.
func (c *Console) PlaylistChanged(nowPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	for index, track := range c.store.All() {
		marker := ""
		if nowPath != "" && track.Path == nowPath {
			marker = "[Now Playing]: "
		}
		line := track.Title
		if track.Album != "" {
			line += " - " + track.Album
		}
		if track.Artist != "" {
			line += " - " + track.Artist
		}
		fmt.Fprintf(c.out, "%d. %s%s\n", index+1, marker, line)
	}
}

// Reset returns the display to its idle state.
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r-%s \n", ReadableDuration(0))
}

// ReadableDuration converts a duration in seconds to HH:MM:SS.
func ReadableDuration(duration float64) string {
	if duration < 0 {
		duration = 0
	}
	total := int(duration)
	hours := total / 3600
	minutes := (total - hours*3600) / 60
	seconds := total - hours*3600 - minutes*60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
