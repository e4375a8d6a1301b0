package application

import (
	"context"
	"errors"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchWorkbook invalidates the loader's cache whenever the workbook file is
// rewritten, so an uploaded refresh shows up without waiting out the
// freshness window. Blocks until ctx is done.
func WatchWorkbook(ctx context.Context, path string, loader *Loader, logger *log.Logger) error {
	if path == "" {
		return errors.New("watcher: empty path")
	}
	if loader == nil {
		return errors.New("watcher: nil loader")
	}
	if logger == nil {
		logger = log.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors and uploads commonly replace the file,
	// which drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Printf("workbook changed (%s), invalidating cache", event.Op)
				loader.Invalidate(ctx)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("workbook watch error: %v", err)
		}
	}
}
