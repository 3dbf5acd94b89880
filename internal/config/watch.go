package config

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/imposter-project/assetscheme/pkg/logger"
)

// DefaultReloadDebounce groups bursts of file events into a single reload.
const DefaultReloadDebounce = 250 * time.Millisecond

// Watch reloads the configs in configDir whenever files under it change, passing each
// successfully loaded set to onReload. A reload that fails to parse is logged and the
// previous set stays in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, configDir string, scanRecursive bool, debounce time.Duration, onReload func([]BrowserConfig)) error {
	log := logger.Named("watch")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()

	addDirs := func() error {
		return filepath.WalkDir(configDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if p != configDir && !scanRecursive {
				return filepath.SkipDir
			}
			return w.Add(p)
		})
	}
	if err := addDirs(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", configDir, err)
	}
	log.Debug("watching config directory", "dir", configDir, "recursive", scanRecursive)

	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create && scanRecursive {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.Add(ev.Name)
				}
			}
			log.Trace("config directory event", "name", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case <-timer.C:
			configs, err := LoadConfig(configDir, scanRecursive)
			if err != nil {
				log.Warn("config reload failed, keeping previous sources", "error", err)
				continue
			}
			log.Info("reloaded browser sources", "count", len(configs))
			onReload(configs)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Debug("watcher error", "error", err)
		}
	}
}
