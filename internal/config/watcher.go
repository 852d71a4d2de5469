package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the daemon config file for changes and invokes a
// callback with the freshly loaded Snapshot on every write. Reload errors
// (a malformed file mid-save) are logged and otherwise ignored: the
// daemon keeps running on its last-known-good configuration.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	logger   *slog.Logger
	onReload func(*Snapshot)

	mu      sync.Mutex
	running bool
}

// NewWatcher builds a Watcher for the config file at path.
func NewWatcher(path string, logger *slog.Logger, onReload func(*Snapshot)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		watcher:  fw,
		path:     path,
		logger:   logger,
		onReload: onReload,
	}, nil
}

// Start begins watching the config file's directory (more reliable than
// watching the file itself across editors that write-then-rename).
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	go w.watch()
	return nil
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) watch() {
	filename := filepath.Base(w.path)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != filename {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			snap, err := LoadFrom(w.path)
			if err != nil {
				w.logger.Warn("config reload failed, keeping previous snapshot", "error", err)
				continue
			}
			w.logger.Info("configuration file changed, reloading")
			w.onReload(snap)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
