package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile watches the file at path and invokes fn with the full file
// contents on every change until ctx is cancelled. The containing directory is
// watched rather than the file itself, because editors commonly save through a
// temp-file rename that would otherwise detach the watch. Read failures are
// skipped: they are transient while an editor is mid-save.
func WatchFile(ctx context.Context, path string, fn func(string)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving watch path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !sameFile(event.Name, abs) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				data, err := os.ReadFile(abs)
				if err != nil {
					continue
				}
				fn(string(data))
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}

func sameFile(name, abs string) bool {
	n, err := filepath.Abs(name)
	return err == nil && n == abs
}
