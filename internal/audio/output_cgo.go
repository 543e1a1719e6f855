//go:build (linux && cgo) || windows || darwin

package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
)

// Available indicates whether audio playback is supported in this build.
const Available = true

// fadeSteps is how many gain increments a fade-in is divided into.
const fadeSteps = 10

// Output plays audio files through the system speaker using beep. It
// implements player.Device.
type Output struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	level       float64
	fadeGen     uint64

	logger *logrus.Logger
}

// New creates an audio output at the standard sample rate.
func New(logger *logrus.Logger) *Output {
	return &Output{
		sampleRate: beep.SampleRate(44100),
		level:      1.0,
		logger:     logger,
	}
}

// Load decodes the file at path and prepares it for playback.
func (o *Output) Load(path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.unloadLocked()

	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("unsupported audio format: %s", path)
	}
	if err != nil {
		f.Close()
		return err
	}

	o.streamer = streamer
	o.format = format
	return nil
}

// Play starts the loaded stream, ramping the volume up over the fade
// duration.
func (o *Output) Play(fade time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.streamer == nil {
		return
	}

	if !o.initialized {
		if err := speaker.Init(o.sampleRate, o.sampleRate.N(time.Second/10)); err != nil {
			o.logger.WithError(err).Error("Could not initialize speaker")
			return
		}
		o.initialized = true
	}

	resampled := beep.Resample(4, o.format.SampleRate, o.sampleRate, o.streamer)
	o.ctrl = &beep.Ctrl{Streamer: resampled}
	o.volume = &effects.Volume{Streamer: o.ctrl, Base: 2, Silent: true}

	speaker.Clear()
	speaker.Play(o.volume)

	o.fadeGen++
	go o.fadeIn(fade, o.fadeGen)
}

// fadeIn ramps the gain from silence up to the configured level.
func (o *Output) fadeIn(fade time.Duration, gen uint64) {
	if fade <= 0 {
		o.applyLevel(gen, 1.0)
		return
	}
	for step := 1; step <= fadeSteps; step++ {
		time.Sleep(fade / fadeSteps)
		if !o.applyLevel(gen, float64(step)/fadeSteps) {
			return
		}
	}
}

// applyLevel sets the output gain to fraction*level. Returns false when a
// newer playback superseded this ramp.
func (o *Output) applyLevel(gen uint64, fraction float64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.fadeGen || o.volume == nil {
		return false
	}
	o.setGainLocked(o.level * fraction)
	return true
}

// Pause suspends playback, keeping the position.
func (o *Output) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl != nil {
		speaker.Lock()
		o.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Unpause resumes playback.
func (o *Output) Unpause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl != nil {
		speaker.Lock()
		o.ctrl.Paused = false
		speaker.Unlock()
	}
}

// Stop halts playback.
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fadeGen++
	if o.initialized {
		speaker.Clear()
	}
	o.ctrl = nil
	o.volume = nil
}

// Unload releases the loaded stream.
func (o *Output) Unload() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unloadLocked()
}

func (o *Output) unloadLocked() {
	o.fadeGen++
	if o.initialized && o.ctrl != nil {
		speaker.Clear()
	}
	if o.streamer != nil {
		o.streamer.Close()
		o.streamer = nil
	}
	o.ctrl = nil
	o.volume = nil
}

// SetPosition relocates playback to a whole-second offset.
func (o *Output) SetPosition(seconds int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()
	return o.streamer.Seek(o.format.SampleRate.N(time.Duration(seconds) * time.Second))
}

// SetVolume sets the effective output level in [0.0, 1.0].
func (o *Output) SetVolume(level float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.level = level
	if o.volume != nil {
		o.setGainLocked(level)
	}
}

// setGainLocked maps a linear level onto the exponential gain of the volume
// effect. Caller holds the lock.
func (o *Output) setGainLocked(level float64) {
	speaker.Lock()
	if level <= 0 {
		o.volume.Silent = true
	} else {
		o.volume.Silent = false
		o.volume.Volume = math.Log2(level)
	}
	speaker.Unlock()
}
