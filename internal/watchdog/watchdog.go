package watchdog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"replay/internal/player"
	"replay/internal/playlist"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// interval is the reconciliation period.
const interval = time.Second

// Watchdog reconciles the playlist against the tracks directory once per
// second: it lists the directory, filters by the supported extensions and
// diffs the result against the previously recorded set. New files are added
// to the playlist, vanished files are removed, and the controller re-resolves
// its now-playing pointer after any mutation. Filesystem notifications only
// wake the next pass early; the poll diff stays the source of truth.
type Watchdog struct {
	mu         sync.Mutex
	dir        string
	extensions []string
	known      []string

	store  *playlist.Store
	ctrl   *player.Controller
	logger *logrus.Logger

	notify *fsnotify.Watcher
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a watchdog over the given directory.
func New(dir string, extensions []string, store *playlist.Store, ctrl *player.Controller, logger *logrus.Logger) *Watchdog {
	return &Watchdog{
		dir:        dir,
		extensions: extensions,
		store:      store,
		ctrl:       ctrl,
		logger:     logger,
	}
}

// Start launches the reconciliation loop. The fsnotify watcher is
// best-effort: when it cannot be created the poll loop alone carries the
// reconciliation.
func (w *Watchdog) Start() error {
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.WithError(err).Warn("Could not create filesystem notifier, polling only")
	} else {
		w.notify = notify
		if err := notify.Add(w.dir); err != nil {
			w.logger.WithError(err).WithField("directory", w.dir).Warn("Could not watch directory")
		}
	}

	w.done = make(chan struct{})
	w.wg.Add(1)
	go w.loop()

	w.logger.WithField("directory", w.dir).Info("Watchdog started")
	return nil
}

// Stop terminates the loop and closes the notifier.
func (w *Watchdog) Stop() {
	if w.done != nil {
		close(w.done)
		w.wg.Wait()
		w.done = nil
	}
	if w.notify != nil {
		w.notify.Close()
		w.notify = nil
	}
}

// SetDirectory re-points the watchdog at a new directory. The recorded file
// set, the playlist and the now-playing pointer are all reset in the same
// critical section the scan passes serialize on, so a tick landing mid-change
// cannot record the new directory's files before the clear wipes them. The
// new contents are scanned in before returning.
func (w *Watchdog) SetDirectory(dir string) {
	w.mu.Lock()
	old := w.dir
	w.dir = dir
	w.known = nil
	w.store.Clear()
	w.ctrl.Reconcile()
	w.mu.Unlock()

	if w.notify != nil {
		w.notify.Remove(old)
		if err := w.notify.Add(dir); err != nil {
			w.logger.WithError(err).WithField("directory", dir).Warn("Could not watch directory")
		}
	}

	w.Scan()
}

// loop ticks once per second and additionally wakes on filesystem events.
func (w *Watchdog) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errors <-chan error
	if w.notify != nil {
		events = w.notify.Events
		errors = w.notify.Errors
	}

	for {
		select {
		case <-ticker.C:
			w.Scan()

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if w.relevant(event.Name) {
				w.Scan()
			}

		case err, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			w.logger.WithError(err).Error("File watcher error")

		case <-w.done:
			return
		}
	}
}

// Scan runs one reconciliation pass. Playlist mutation and re-indexing
// complete before the controller re-resolves its pointer, all on the calling
// goroutine.
func (w *Watchdog) Scan() {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := w.listDir()
	added, removed := lo.Difference(current, w.known)

	for _, path := range removed {
		w.store.Remove(path)
	}
	for _, path := range added {
		w.store.Add(path)
	}
	w.known = current

	if len(added) > 0 || len(removed) > 0 {
		w.logger.WithFields(logrus.Fields{
			"added":   len(added),
			"removed": len(removed),
		}).Debug("Tracks directory changed")
		w.ctrl.Reconcile()
	}
}

// listDir returns the sorted supported files currently in the directory.
func (w *Watchdog) listDir() []string {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.WithError(err).WithField("directory", w.dir).Warn("Could not list tracks directory")
		return nil
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if w.supported(name) {
			files = append(files, filepath.Join(w.dir, name))
		}
	}
	sort.Strings(files)
	return files
}

func (w *Watchdog) supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return lo.Contains(w.extensions, ext)
}

// relevant filters notifier events down to supported files, ignoring
// temporary and hidden files.
func (w *Watchdog) relevant(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	return w.supported(base)
}
