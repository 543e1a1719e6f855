package player

import (
	"sync"
	"time"

	"replay/internal/playlist"
	"replay/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	// fadeIn is the volume ramp applied whenever a track starts.
	fadeIn = 3000 * time.Millisecond
	// restartAfter is the elapsed time past which restart reloads the
	// current track instead of falling back to the previous one.
	restartAfter = 2
	// volumeStep is the increment used by the volume up/down actions.
	volumeStep = 10
	// tickInterval is the progress clock period.
	tickInterval = time.Second
)

// VolumeWriter persists volume changes. Implementations must not block.
type VolumeWriter interface {
	Save(volume int)
}

// Controller is the playback state machine. It glues the playlist store, the
// progress clock, the seek map and the playback device together, and is the
// single entry point for user actions, clock ticks and watchdog
// reconciliation. All entry points serialize on one mutex, so the controller
// behaves like the single callback queue it models; no operation blocks.
//
// Operations on an empty playlist are no-ops, never errors.
type Controller struct {
	mu      sync.Mutex
	store   *playlist.Store
	device  Device
	display Display
	volumes VolumeWriter
	logger  *logrus.Logger
	clock   clock

	state    models.PlaybackState
	repeat   models.RepeatMode
	now      *models.Track // nil when nothing is loaded
	nowIndex int
	elapsed  int
	duration float64
	volume   int
	muted    bool
}

// NewController creates a controller over the given collaborators. volumes
// may be nil to disable volume persistence.
func NewController(store *playlist.Store, device Device, display Display, volumes VolumeWriter, volume int, logger *logrus.Logger) *Controller {
	if display == nil {
		display = NopDisplay{}
	}
	c := &Controller{
		store:   store,
		device:  device,
		display: display,
		volumes: volumes,
		logger:  logger,
		volume:  clampVolume(volume),
	}
	c.device.SetVolume(c.effectiveVolume())
	return c
}

// Start warms the progress clock so the first play() finds a running loop.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.clock.reset()
	c.clock.schedule(tickInterval, gen, c.tick)
}

// Close cancels the pending tick and stops the device.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock.reset()
	c.device.Stop()
	c.device.Unload()
}

// Play starts the current track from the beginning, or the first playlist
// entry when nothing is loaded. No-op on an empty playlist.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playLocked()
}

func (c *Controller) playLocked() {
	if c.now != nil {
		c.startTrackLocked(c.nowIndex, c.now)
		return
	}
	if track, ok := c.store.Track(0); ok {
		c.startTrackLocked(0, track)
	}
}

// TogglePlayback pauses a playing track, resumes a paused one, and starts
// playback from index 0 when nothing is loaded.
func (c *Controller) TogglePlayback() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == models.StatePlaying {
		c.state = models.StatePaused
		c.device.Pause()
		c.display.StateChanged(c.state)
		return
	}

	if c.now == nil {
		c.playLocked()
		return
	}
	c.state = models.StatePlaying
	c.device.Unpause()
	c.display.StateChanged(c.state)
}

// Restart reloads the current track from zero when it has been playing for
// more than two seconds; otherwise it acts as "go to previous track".
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restartLocked()
}

func (c *Controller) restartLocked() {
	if c.now == nil {
		c.playLocked()
		return
	}

	if c.elapsed > restartAfter {
		c.startTrackLocked(c.nowIndex, c.now)
		return
	}

	if track, ok := c.store.Track(c.nowIndex - 1); ok {
		c.startTrackLocked(c.nowIndex-1, track)
		return
	}

	// No previous entry: wrap around to the last index.
	if n := c.store.Len(); n > 0 {
		track, _ := c.store.Track(n - 1)
		c.startTrackLocked(n-1, track)
		return
	}

	c.clearNowLocked()
	c.stopLocked(true)
}

// Previous plays the previous track, wrapping to the last index at the
// start of the playlist. Near the middle of a track it restarts it instead.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now == nil {
		c.playLocked()
		return
	}
	c.restartLocked()
}

// Next advances to the next track. finished reports that the current track
// played to completion, which is what arms repeat-one and the end-of-playlist
// stop under repeat-off.
func (c *Controller) Next(finished bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextLocked(finished)
}

func (c *Controller) nextLocked(finished bool) {
	if c.now == nil {
		c.playLocked()
		return
	}

	if c.repeat == models.RepeatOne && float64(c.elapsed) >= c.duration {
		c.startTrackLocked(c.nowIndex, c.now)
		return
	}

	if track, ok := c.store.Track(c.nowIndex + 1); ok {
		c.startTrackLocked(c.nowIndex+1, track)
		return
	}

	// Past the last entry.
	c.clearNowLocked()

	if c.repeat == models.RepeatOff && finished {
		// Stop playback and reset the play/pause affordance, but keep the
		// position display as-is.
		gen := c.clock.reset()
		c.state = models.StateStopped
		c.display.StateChanged(c.state)
		c.clock.schedule(tickInterval, gen, c.tick)
		return
	}

	if track, ok := c.store.Track(0); ok {
		c.startTrackLocked(0, track)
		return
	}

	c.playLocked()
}

// SetRepeat sets the repeat mode.
func (c *Controller) SetRepeat(mode models.RepeatMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = mode
}

// CycleRepeat advances the repeat mode OFF -> ONE -> ALL -> OFF and returns
// the new mode.
func (c *Controller) CycleRepeat() models.RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = c.repeat.Next()
	return c.repeat
}

// Seek translates a seek-bar coordinate into a time offset via the active
// track's seek map and relocates playback there. Out-of-range coordinates
// and seeks with nothing loaded are ignored.
func (c *Controller) Seek(x float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now == nil {
		return
	}
	offset, ok := c.now.Seek.Offset(x)
	if !ok {
		return
	}

	c.elapsed = offset
	if err := c.device.SetPosition(offset); err != nil {
		c.logger.WithError(err).Warn("Could not set playback position")
	}
	c.display.Progress(c.elapsed, c.duration)
}

// SetVolume clamps v to [0,100] and forwards the effective level to the
// device. Zero implies the muted appearance; anything above clears it.
func (c *Controller) SetVolume(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setVolumeLocked(v)
}

func (c *Controller) setVolumeLocked(v int) {
	c.volume = clampVolume(v)
	c.muted = c.volume == 0
	c.device.SetVolume(c.effectiveVolume())
	if c.volumes != nil {
		c.volumes.Save(c.volume)
	}
}

// IncreaseVolume raises the volume by one step.
func (c *Controller) IncreaseVolume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setVolumeLocked(c.volume + volumeStep)
}

// DecreaseVolume lowers the volume by one step.
func (c *Controller) DecreaseVolume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setVolumeLocked(c.volume - volumeStep)
}

// ToggleMute flips the mute latch. The stored volume value is untouched and
// restored on unmute.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = !c.muted
	c.device.SetVolume(c.effectiveVolume())
}

// Reconcile re-resolves the now-playing pointer against the playlist after a
// mutation. The active track is matched by path identity, so it keeps
// playing across reorders; if its entry is gone the player stops and the
// display resets. Always triggers a playlist re-render.
func (c *Controller) Reconcile() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now != nil {
		if index, ok := c.store.IndexOf(c.now.Path); ok {
			c.nowIndex = index
		} else {
			c.clearNowLocked()
			c.stopLocked(true)
		}
	}

	nowPath := ""
	if c.now != nil {
		nowPath = c.now.Path
	}
	c.display.PlaylistChanged(nowPath)
}

// tick is the progress clock callback. While playing it advances elapsed
// time by one second and auto-advances at completion; otherwise it just
// reschedules itself so a later play() finds a warmed loop.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.clock.valid(gen) {
		return
	}

	if c.state != models.StatePlaying {
		c.clock.schedule(tickInterval, gen, c.tick)
		return
	}

	if float64(c.elapsed) < c.duration {
		c.elapsed++
		c.display.Progress(c.elapsed, c.duration)
		c.clock.schedule(tickInterval, gen, c.tick)
		return
	}

	c.nextLocked(true)
}

// startTrackLocked makes the given entry the active track and plays it from
// the beginning. Cancels the pending tick for the previous track first.
func (c *Controller) startTrackLocked(index int, track *models.Track) {
	gen := c.clock.reset()

	c.now = track
	c.nowIndex = index
	c.elapsed = 0
	c.duration = track.Duration
	c.state = models.StatePlaying

	c.display.TrackStarted(index, track)
	c.display.Progress(0, c.duration)
	c.display.StateChanged(c.state)

	if err := c.device.Load(track.Path); err != nil {
		// The file may have vanished between discovery and playback; the
		// watchdog reconciles that on its next pass.
		c.logger.WithError(err).WithField("path", track.Path).Warn("Could not load track")
	} else {
		c.device.Play(fadeIn)
	}

	c.logger.WithFields(logrus.Fields{
		"index": index,
		"title": track.Title,
	}).Info("Now playing")

	c.clock.schedule(tickInterval, gen, c.tick)
}

// stopLocked halts the device and optionally resets the display to idle,
// then keeps the clock idle-polling.
func (c *Controller) stopLocked(resetDisplay bool) {
	gen := c.clock.reset()
	c.state = models.StateStopped
	c.elapsed = 0
	c.duration = 0
	c.device.Stop()
	c.device.Unload()
	if resetDisplay {
		c.display.Reset()
	}
	c.display.StateChanged(c.state)
	c.clock.schedule(tickInterval, gen, c.tick)
}

func (c *Controller) clearNowLocked() {
	c.now = nil
	c.nowIndex = 0
}

func (c *Controller) effectiveVolume() float64 {
	if c.muted {
		return 0
	}
	return float64(c.volume) / 100
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
