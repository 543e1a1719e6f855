//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Available indicates whether audio playback is supported in this build.
const Available = false

// Output is a no-op playback device for builds without audio support. The
// controller, playlist and watchdog all behave normally; only sound output
// is missing.
type Output struct{}

// New creates a no-op audio output.
func New(logger *logrus.Logger) *Output {
	logger.Warn("Audio playback not supported in this build")
	return &Output{}
}

func (o *Output) Load(path string) error        { return nil }
func (o *Output) Play(fade time.Duration)       {}
func (o *Output) Pause()                        {}
func (o *Output) Unpause()                      {}
func (o *Output) Stop()                         {}
func (o *Output) Unload()                       {}
func (o *Output) SetPosition(seconds int) error { return nil }
func (o *Output) SetVolume(level float64)       {}
