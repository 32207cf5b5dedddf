package refresh

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"portfolio-assistant-be/internal/pkg/logger"
)

// Updatable is what the refresher drives; in production it is the
// knowledge store.
type Updatable interface {
	Update(ctx context.Context) error
}

// Refresher rebuilds the knowledge corpus on a fixed interval and whenever
// the profile file changes on disk. Rebuilds are single-flight: a trigger
// arriving during a rebuild is dropped, the next tick catches up.
type Refresher struct {
	store     Updatable
	interval  time.Duration
	watchPath string
	log       logger.ILogger

	mu      sync.Mutex
	running bool
	started bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewRefresher(store Updatable, interval time.Duration, watchPath string, log logger.ILogger) *Refresher {
	return &Refresher{
		store:     store,
		interval:  interval,
		watchPath: watchPath,
		log:       log,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop to end it.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.loop(ctx)
}

// Stop terminates the loop and waits for it to drain. Safe to call
// whether or not Start ever ran.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return
	}
	<-r.doneCh
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	watcher, watchEvents := r.startWatcher()
	if watcher != nil {
		defer watcher.Close()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.refresh(ctx, "interval")
		case event, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			if event.Name == r.watchPath && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				r.refresh(ctx, "file_change")
			}
		}
	}
}

// startWatcher is best-effort; without a watcher the interval still
// drives refreshes.
func (r *Refresher) startWatcher() (*fsnotify.Watcher, chan fsnotify.Event) {
	if r.watchPath == "" {
		return nil, nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.log.Warn("refresh", "file watcher unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}
	// Watch the directory: editors replace files on save, which drops
	// per-file watches.
	if err := watcher.Add(filepath.Dir(r.watchPath)); err != nil {
		r.log.Warn("refresh", "cannot watch profile directory", map[string]interface{}{
			"error": err.Error(),
		})
		watcher.Close()
		return nil, nil
	}
	return watcher, watcher.Events
}

func (r *Refresher) refresh(ctx context.Context, trigger string) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	r.log.Info("refresh", "knowledge refresh triggered", map[string]interface{}{
		"trigger": trigger,
	})
	if err := r.store.Update(ctx); err != nil {
		r.log.Error("refresh", "knowledge refresh failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
