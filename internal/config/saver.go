package config

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// retryDelay is how long a deferred volume write waits before trying again.
const retryDelay = 15 * time.Second

// VolumeSaver debounces volume writes to the settings store. A write in
// progress makes later requests defer themselves rather than queue: only the
// most recent requested value is retried, after a fixed delay. A write that
// fails because the settings file is unreadable restores the backup copy and
// retries exactly once.
type VolumeSaver struct {
	store  *Store
	logger *logrus.Logger

	busy  atomic.Bool
	mu    sync.Mutex
	retry *time.Timer
}

// NewVolumeSaver creates a saver writing through the given store.
func NewVolumeSaver(store *Store, logger *logrus.Logger) *VolumeSaver {
	return &VolumeSaver{store: store, logger: logger}
}

// Save persists the volume value. Safe to call from any goroutine; never
// blocks behind another write.
func (s *VolumeSaver) Save(volume int) {
	s.cancelRetry()

	if !s.busy.CompareAndSwap(false, true) {
		// A write is in flight; try again later with the newest value.
		s.mu.Lock()
		s.retry = time.AfterFunc(retryDelay, func() { s.Save(volume) })
		s.mu.Unlock()
		return
	}
	defer s.busy.Store(false)

	err := s.store.SetVolume(volume)
	if err == nil {
		return
	}
	s.logger.WithError(err).Warn("Volume write failed, restoring settings backup")

	if err := s.store.RestoreBackup(); err != nil {
		s.logger.WithError(err).Error("Could not restore settings backup")
		return
	}
	if err := s.store.SetVolume(volume); err != nil {
		s.logger.WithError(err).Error("Volume write failed after backup restore")
	}
}

// Close drops any pending deferred write.
func (s *VolumeSaver) Close() {
	s.cancelRetry()
}

func (s *VolumeSaver) cancelRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}
