package page

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads p from the file at path whenever it changes, until ctx is
// done. The parent directory is watched so editors that replace the file by
// rename are still picked up.
func Watch(ctx context.Context, path string, p *Page, logger *log.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch page: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			b, err := os.ReadFile(abs)
			if err != nil {
				logger.Printf("page: reload %s: %v", abs, err)
				continue
			}
			p.Set(b)
			logger.Printf("page: reloaded %s (%d bytes)", abs, len(b))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Printf("page: watcher: %v", err)
		}
	}
}
