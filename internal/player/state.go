package player

import (
	"time"

	"replay/pkg/models"
)

// State is a point-in-time snapshot of the player, safe to hand out to
// front ends.
type State struct {
	Track     *models.Track        `json:"track,omitempty"`
	Index     int                  `json:"index"`
	Playback  models.PlaybackState `json:"playback"`
	Repeat    models.RepeatMode    `json:"repeat"`
	Elapsed   int                  `json:"elapsed"`  // in seconds
	Duration  float64              `json:"duration"` // in seconds
	Volume    int                  `json:"volume"`   // 0 to 100
	Muted     bool                 `json:"muted"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// Status returns a snapshot of the current player state (thread-safe).
func (c *Controller) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Track:     c.now,
		Index:     c.nowIndex,
		Playback:  c.state,
		Repeat:    c.repeat,
		Elapsed:   c.elapsed,
		Duration:  c.duration,
		Volume:    c.volume,
		Muted:     c.muted,
		UpdatedAt: time.Now(),
	}
}
