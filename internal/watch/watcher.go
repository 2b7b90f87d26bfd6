package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"modelsync/internal/registry"
	"modelsync/pkg/logging"
)

// WatcherConfig holds configuration for the filesystem watcher.
type WatcherConfig struct {
	// Registry supplies the set of watched files.
	Registry *registry.Registry

	// WatchInterval is the fallback polling interval when fsnotify is not available.
	WatchInterval time.Duration

	// OnChange is called, debounced, when a watched file changes.
	OnChange func()
}

// DefaultWatchInterval is the fallback polling cadence.
const DefaultWatchInterval = 5 * time.Second

// DefaultDebounceInterval is the time to wait before triggering after the
// last file change is detected, so an editor's save burst costs one run.
const DefaultDebounceInterval = 500 * time.Millisecond

// Watcher monitors the registry's underlying files for changes and triggers
// the change callback. It uses fsnotify for efficient file system monitoring
// with a fallback to polling for environments where fsnotify is not available
// or reliable.
//
// Directories are watched rather than individual files because editors
// commonly replace files on save, which drops a per-file watch.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	// fsWatcher is the fsnotify watcher (may be nil if fsnotify is unavailable)
	fsWatcher *fsnotify.Watcher

	// stopCh signals the watcher to stop
	stopCh chan struct{}

	// running indicates if the watcher is active
	running bool

	// lastObserved tracks the latest known change for fallback polling
	lastObserved time.Time

	// debounceTimer helps prevent rapid successive runs
	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a watcher over the registry's files.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}
	return &Watcher{config: config}
}

// Start begins watching for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("Watcher", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges()
		return nil
	}

	w.fsWatcher = watcher

	dirs := w.watchDirs()
	added := 0
	for _, dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			logging.Warn("Watcher", "Failed to watch directory %s: %v", dir, err)
			continue
		}
		added++
	}
	if added == 0 && len(dirs) > 0 {
		logging.Warn("Watcher", "No directory could be watched, falling back to polling")
		w.fsWatcher.Close()
		w.fsWatcher = nil
		go w.pollForChanges()
		return nil
	}

	// Capture channels before releasing lock to avoid race conditions
	eventsCh := w.fsWatcher.Events
	errorsCh := w.fsWatcher.Errors

	go w.processEvents(eventsCh, errorsCh)

	logging.Info("Watcher", "Started watching %d directories", added)
	return nil
}

// watchDirs returns the distinct parent directories of all registered files.
func (w *Watcher) watchDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, e := range w.config.Registry.Entries() {
		dir := filepath.Dir(e.Path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// processEvents handles fsnotify events.
// The channels are passed as parameters to avoid race conditions with Stop().
func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("Watcher", err, "fsnotify error")
		}
	}
}

// handleEvent processes a single fsnotify event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.isRelevantFile(event.Name) {
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	logging.Debug("Watcher", "Watched file changed: %s (%s)", event.Name, event.Op)

	w.triggerDebounced()
}

// isRelevantFile checks if a path is one of the registry's underlying files.
func (w *Watcher) isRelevantFile(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, e := range w.config.Registry.Entries() {
		if e.Path == abs {
			return true
		}
	}
	return false
}

// triggerDebounced invokes the change callback after a debounce period.
// This prevents multiple rapid runs when several files change at once
// (e.g., when an editor saves a batch of model files).
func (w *Watcher) triggerDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(DefaultDebounceInterval, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnChange
		w.mu.Unlock()

		if running && callback != nil {
			callback()
		}
	})
}

// pollForChanges implements fallback polling when fsnotify is not available.
func (w *Watcher) pollForChanges() {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	w.lastObserved = w.config.Registry.LatestChange()

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			latest := w.config.Registry.LatestChange()
			if latest.After(w.lastObserved) {
				w.lastObserved = latest
				logging.Debug("Watcher", "File changes detected via polling")
				w.triggerDebounced()
			}
		}
	}
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	// Cancel any pending debounce timer
	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("Watcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("Watcher", "Stopped filesystem watcher")
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
