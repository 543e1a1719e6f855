package player

import "time"

// Device is the playback engine the controller drives. Implementations are
// expected to return quickly; nothing here may stall the timer loop.
type Device interface {
	// Load prepares the file at path for playback without starting it.
	Load(path string) error
	// Play starts the loaded stream from its current position, ramping the
	// volume up over the fade duration.
	Play(fade time.Duration)
	Pause()
	Unpause()
	Stop()
	// Unload releases the loaded stream.
	Unload()
	// SetPosition relocates playback to a whole-second offset.
	SetPosition(seconds int) error
	// SetVolume sets the effective output level in [0.0, 1.0].
	SetVolume(level float64)
}
