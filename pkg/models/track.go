package models

import "github.com/google/uuid"

// Track represents one audio file together with the metadata decoded from it.
// A Track is built once when its file is first discovered and never mutated
// afterwards; when the file disappears the Track is dropped with it.
type Track struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist,omitempty"`
	Album      string    `json:"album,omitempty"`
	Duration   float64   `json:"duration"` // in seconds
	Path       string    `json:"-"`        // unique key, not exposed to clients
	FileSize   int64     `json:"fileSize"`
	HasArtwork bool      `json:"hasArtwork"`
	ArtworkID  string    `json:"artworkId,omitempty"`
	Seek       *SeekMap  `json:"-"`
}

// RepeatMode controls how playback advances past the end of a track.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// Next returns the mode that follows in the OFF -> ONE -> ALL -> OFF cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatOff
	}
}

func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// ParseRepeatMode maps a user-supplied mode name to a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, bool) {
	switch s {
	case "off":
		return RepeatOff, true
	case "one":
		return RepeatOne, true
	case "all":
		return RepeatAll, true
	}
	return RepeatOff, false
}

// PlaybackState describes what the player is currently doing.
type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}
