package player

import "replay/pkg/models"

// Display is the front-end surface the controller renders into. The
// controller only pushes state; how it is drawn is the display's business.
type Display interface {
	// TrackStarted announces the track now playing and its playlist index.
	TrackStarted(index int, track *models.Track)
	// Progress reports elapsed whole seconds against the track duration.
	Progress(elapsed int, duration float64)
	// StateChanged reports a playing/paused/stopped transition.
	StateChanged(state models.PlaybackState)
	// PlaylistChanged signals that the ordered view must be re-rendered.
	// nowPath identifies the active track, empty when nothing is loaded.
	PlaylistChanged(nowPath string)
	// Reset returns the display to its idle state.
	Reset()
}

// NopDisplay discards all updates.
type NopDisplay struct{}

func (NopDisplay) TrackStarted(int, *models.Track)   {}
func (NopDisplay) Progress(int, float64)             {}
func (NopDisplay) StateChanged(models.PlaybackState) {}
func (NopDisplay) PlaylistChanged(string)            {}
func (NopDisplay) Reset()                            {}
