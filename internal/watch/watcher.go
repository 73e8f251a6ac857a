// Package watch re-renders a layout file's SVG whenever the file changes
// on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/TOJI-ZINGY/citysense/internal/render"
	"github.com/TOJI-ZINGY/citysense/internal/repair"
	"github.com/TOJI-ZINGY/citysense/internal/svgout"
)

// Config describes what to watch and where renders go.
type Config struct {
	LayoutPath string
	OutputPath string
	Debounce   time.Duration // settle window for rapid saves; defaults to 500ms
	SVGOptions svgout.Options
}

// Stats track watcher activity.
type Stats struct {
	Events        int
	Renders       int
	Failures      int
	LastEventOp   string
	LastEventTime time.Time
}

// Watcher debounces filesystem events on a layout file and re-renders its
// SVG. When a render fails the previous output file is left untouched.
type Watcher struct {
	mu      sync.RWMutex
	watcher *fsnotify.Watcher
	cfg     Config
	logger  *zap.Logger
	pending map[string]time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stats   Stats
}

// New creates a watcher for cfg.
func New(cfg Config, logger *zap.Logger) (*Watcher, error) {
	if cfg.LayoutPath == "" {
		return nil, fmt.Errorf("layout path is required")
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start renders once, then begins watching. Non-blocking; the event loop
// runs in its own goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the parent directory: editors replace files on save, which
	// would drop a watch held on the file itself.
	dir := filepath.Dir(w.cfg.LayoutPath)
	if err := w.watcher.Add(dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		_ = w.watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.Info("watching layout",
		zap.String("layout", w.cfg.LayoutPath),
		zap.String("output", w.cfg.OutputPath),
		zap.Duration("debounce", w.cfg.Debounce),
	)

	if err := w.RenderNow(); err != nil {
		w.logger.Warn("initial render failed", zap.Error(err))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the event loop and releases the filesystem watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("error closing watcher", zap.Error(err))
	}
	w.logger.Info("watcher stopped")
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// The ticker sweeps the pending map so bursts settle into one render.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Failures++
			w.mu.Unlock()

		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.cfg.LayoutPath) {
		return
	}

	var op string
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "write"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	case event.Op&fsnotify.Remove != 0:
		op = "remove"
	default:
		return // chmod noise
	}

	w.logger.Debug("layout event", zap.String("op", op), zap.String("path", event.Name))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventOp = op
	w.stats.LastEventTime = time.Now()
	// Keyed by the configured path so create/write/rename spellings of the
	// same save merge into one pending entry.
	w.pending[w.cfg.LayoutPath] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	due := false
	for path, at := range w.pending {
		if now.Sub(at) >= w.cfg.Debounce {
			delete(w.pending, path)
			due = true
		}
	}
	w.mu.Unlock()

	if !due {
		return
	}
	if err := w.RenderNow(); err != nil {
		w.logger.Warn("render failed, keeping previous output", zap.Error(err))
	}
}

// RenderNow renders the layout immediately. Any failure leaves the
// previous output file in place.
func (w *Watcher) RenderNow() error {
	start := time.Now()

	data, err := os.ReadFile(w.cfg.LayoutPath)
	if err != nil {
		return w.fail(fmt.Errorf("read layout: %w", err))
	}
	desc, err := repair.Recover(string(data))
	if err != nil {
		return w.fail(fmt.Errorf("recover layout: %w", err))
	}
	pic, err := render.Compose(desc)
	if err != nil {
		return w.fail(fmt.Errorf("compose scene: %w", err))
	}
	if err := svgout.EncodeFile(w.cfg.OutputPath, pic, w.cfg.SVGOptions); err != nil {
		return w.fail(err)
	}

	w.mu.Lock()
	w.stats.Renders++
	w.mu.Unlock()

	w.logger.Info("rendered",
		zap.String("output", w.cfg.OutputPath),
		zap.Int("layers", len(desc.Layers)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (w *Watcher) fail(err error) error {
	w.mu.Lock()
	w.stats.Failures++
	w.mu.Unlock()
	return err
}
