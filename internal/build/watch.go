package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long Watch waits after the last change before rebuilding.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a rebuild whenever files under its directories change.
type Watcher struct {
	Dirs     []string
	Debounce time.Duration
	Logger   zerolog.Logger
	// Rebuild runs on its own goroutine, never concurrently with itself.
	Rebuild func(ctx context.Context)
}

// Run watches until ctx is cancelled. Directories that do not exist are skipped;
// directories created later inside a watched tree are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, root := range w.Dirs {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			w.Logger.Warn().Str("dir", root).Msg("directory not found, not watching")
			continue
		}
		n, err := addTree(watcher, root)
		if err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		watched += n
	}
	w.Logger.Info().Int("dirs", watched).Msg("watching for changes")

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	// Buffered so a change during a rebuild queues exactly one more.
	trigger := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				w.Rebuild(ctx)
			}
		}
	}()
	defer func() { <-done }()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.Logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change detected")

			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if _, err := addTree(watcher, event.Name); err != nil {
					w.Logger.Error().Err(err).Str("dir", event.Name).Msg("watch new directory")
				}
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
