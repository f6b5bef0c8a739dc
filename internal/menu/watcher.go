package menu

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes from editors and copy tools
const DefaultDebounce = 500 * time.Millisecond

// Reloader is called after the watched menu file settles
type Reloader interface {
	Reload(ctx context.Context, path string) error
}

// ReloadFunc adapts a function to Reloader
type ReloadFunc func(ctx context.Context, path string) error

// Reload calls f
func (f ReloadFunc) Reload(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Watcher watches one menu file and triggers a reload when it changes.
// The parent directory is watched so atomic rename-over saves are seen.
type Watcher struct {
	path     string
	reloader Reloader
	watcher  *fsnotify.Watcher
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for path. A non-positive debounce uses DefaultDebounce.
func NewWatcher(path string, reloader Reloader, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve menu path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		reloader: reloader,
		watcher:  fw,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching in a background goroutine
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops the watcher and waits for the event loop to exit
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		_ = w.watcher.Close()
	})
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	reloadCh := make(chan struct{}, 1)
	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-w.stopCh:
			stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				stopTimer()
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			stopTimer()
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			})

		case <-reloadCh:
			w.triggerReload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				stopTimer()
				return
			}
			log.Printf("Menu watcher error: %v", err)
		}
	}
}

func (w *Watcher) triggerReload(ctx context.Context) {
	log.Printf("Menu changed, reloading %s", w.path)
	start := time.Now()

	if err := w.reloader.Reload(ctx, w.path); err != nil {
		log.Printf("Error reloading menu: %v", err)
		return
	}

	log.Printf("Menu reloaded in %v", time.Since(start))
}
