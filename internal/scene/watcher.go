package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/stagehand/pkg/log"
)

// DefaultDebounceDelay is used when WatcherConfig.DebounceDelay is not set.
const DefaultDebounceDelay = 250 * time.Millisecond

// WatcherConfig holds configuration options for a script Watcher.
type WatcherConfig struct {
	// Path is the script file to watch.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 250 milliseconds
	DebounceDelay time.Duration

	// OnReload receives the freshly loaded script. It runs on the watcher's
	// timer goroutine, so callers hand the script to their tick goroutine.
	OnReload func(*Script)

	// OnError receives load failures. The previous script stays in use.
	OnError func(error)

	Logger log.Logger
}

// Watcher reloads a script file whenever it changes on disk.
// It watches the file's directory so editors that replace files on save
// are still picked up.
type Watcher struct {
	mu sync.Mutex

	path          string
	debounceDelay time.Duration
	onReload      func(*Script)
	onError       func(error)
	logger        log.Logger

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// NewWatcher creates a watcher. Call Start to begin watching.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("scene watcher: path is required")
	}
	if cfg.OnReload == nil {
		return nil, fmt.Errorf("scene watcher: OnReload is required")
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("scene watcher: %w", err)
	}

	return &Watcher{
		path:          abs,
		debounceDelay: cfg.DebounceDelay,
		onReload:      cfg.OnReload,
		onError:       cfg.OnError,
		logger:        log.OrNoop(cfg.Logger),
	}, nil
}

// Start begins watching. The returned error reports setup failures; later
// errors go to the logger and OnError.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("scene watcher: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("scene watcher: watch %s: %w", filepath.Dir(w.path), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.Info("watching script", log.String("path", w.path))

	w.wg.Add(1)
	go w.watchLoop(watchCtx, fw)
	return nil
}

// Stop stops watching and waits for the watch loop to exit. A pending
// debounced reload is dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fw.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.debounceReload(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("script watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) debounceReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(w.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		w.logger.Warn("script reload failed", log.String("path", w.path), log.Err(err))
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.logger.Info("script changed", log.String("path", w.path), log.Int("states", len(s.States)))
	w.onReload(s)
}
