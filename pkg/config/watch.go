package config

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch watches the config file and reloads the global configuration
// when it is written or replaced. onReload, if non-nil, runs after each
// successful reload with the fresh config. The returned stop function
// closes the watcher.
//
// The parent directory is watched rather than the file itself so that
// editors and config-management tools that replace the file atomically
// still trigger a reload.
func Watch(onReload func(*HybridConfig)) (stop func(), err error) {
	cfg := Get()
	path := cfg.ConfigFilePath()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := Reload(); err != nil {
					log.Printf("config reload failed: %v", err)
					continue
				}
				log.Printf("config reloaded from %s", path)
				if onReload != nil {
					onReload(Get())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config watcher error: %v", err)
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}
