package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period after the last file event
// before the configuration is reloaded.
const DefaultDebounceInterval = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes on disk. Editors
// usually replace files instead of writing in place, so the parent directory
// is watched and events are filtered by file name.
//
// A reload that fails to parse or validate is logged and the previous
// configuration stays in effect.
type Watcher struct {
	path     string
	interval time.Duration
	logger   *slog.Logger
	onChange func(*Config)

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	current *Config
}

// NewWatcher creates a watcher for the configuration file at path. onChange
// is called with every successfully reloaded configuration.
func NewWatcher(path string, current *Config, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		interval: DefaultDebounceInterval,
		logger:   logger.With("component", "config.watcher"),
		onChange: onChange,
		watcher:  fw,
		current:  current,
	}, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run processes file events until ctx is cancelled. It closes the
// underlying fsnotify watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		w.watcher.Close()
	}()

	w.logger.Info("Configuration watcher started",
		"path", w.path,
		"debounce_ms", w.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Configuration watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("Configuration file event", "path", event.Name, "op", event.Op.String())
			w.trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Continue watching despite errors
			w.logger.Error("Configuration watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

// trigger (re)arms the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := LoadConfigWithEnvOverrides(w.path)
	if err != nil {
		w.logger.Error("Configuration reload failed, keeping previous configuration", "error", err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
