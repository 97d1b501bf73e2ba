package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads the configuration file when it changes on disk.
// Rapid successive writes are debounced so editors that write in several
// steps trigger a single reload.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	done     chan struct{}
	path     string
	onReload func(Config)
}

// NewWatcher watches path and invokes onReload with each successfully
// re-parsed Config. The containing directory is watched rather than the file
// itself so atomic rename-into-place saves are seen.
func NewWatcher(path string, onReload func(Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		watcher:  fw,
		done:     make(chan struct{}),
		path:     path,
		onReload: onReload,
	}
	go w.watchLoop(fw)
	log.Printf("INFO: Watching %s for config changes (auto-reload enabled)", path)
	return w, nil
}

// Stop ends the watch loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}
	close(w.done)
	w.watcher.Close()
	w.watcher = nil
}

func (w *Watcher) watchLoop(fw *fsnotify.Watcher) {
	var debounce *time.Timer
	const debounceDuration = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDuration, w.reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("WARN: Config watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		log.Printf("WARN: Config reload failed, keeping previous settings: %v", err)
		return
	}
	log.Printf("INFO: Configuration reloaded from %s", w.path)
	w.onReload(cfg)
}
