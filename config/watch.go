package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jonwraymond/llmops/secret"
)

// WatchConfig configures a config file watcher.
type WatchConfig struct {
	// Path is the config file to watch.
	Path string

	// Debounce is how long to wait after a write before reloading.
	// Editors and orchestrators often emit several events per save.
	// Default: 500ms
	Debounce time.Duration

	// OnReload receives each successfully reloaded config.
	OnReload func(*Config)

	// OnError is called when a reload or the watcher itself fails.
	// The previously delivered config stays live.
	OnError func(error)

	// Resolver resolves secret references during reloads.
	// Default: secret.NewDefaultResolver()
	Resolver *secret.Resolver
}

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	config  WatchConfig
	path    string
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	dirty bool
}

// NewWatcher creates a watcher for config.Path. Call Start to begin
// delivering reloads and Stop to release the file watcher.
func NewWatcher(config WatchConfig) (*Watcher, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("config: watch path is required")
	}
	if config.OnReload == nil {
		return nil, fmt.Errorf("config: OnReload callback is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if config.Resolver == nil {
		config.Resolver = secret.NewDefaultResolver()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}

	abs, err := filepath.Abs(config.Path)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: resolve path: %w", err)
	}

	// Watch the directory: editors and config mounts replace the file
	// by rename, which would drop a watch set on the file itself.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{config: config, path: abs, watcher: fw}, nil
}

// Start begins delivering reloads until ctx is canceled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) {
	go w.processEvents(ctx)
}

// Stop closes the file watcher. The event loop exits once its
// channels drain.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.dirty = true
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.config.OnError != nil {
				w.config.OnError(fmt.Errorf("config: watch: %w", err))
			}

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// flush reloads at most once per debounce tick.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.mu.Unlock()
	if !dirty {
		return
	}

	config, err := LoadWithResolver(ctx, w.path, w.config.Resolver)
	if err != nil {
		if w.config.OnError != nil {
			w.config.OnError(err)
		}
		return
	}
	w.config.OnReload(config)
}

// Watch creates and starts a watcher in one call.
func Watch(ctx context.Context, path string, onReload func(*Config), onError func(error)) (*Watcher, error) {
	w, err := NewWatcher(WatchConfig{Path: path, OnReload: onReload, OnError: onError})
	if err != nil {
		return nil, err
	}
	w.Start(ctx)
	return w, nil
}
