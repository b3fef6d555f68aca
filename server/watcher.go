package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tagmint/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounceWindow collapses bursts of file events (editors often write a
// file several times in quick succession) into one invalidation.
const debounceWindow = 100 * time.Millisecond

// Watcher monitors the web root for changes and triggers cache
// invalidation.
type Watcher struct {
	watcher    *fsnotify.Watcher
	root       string
	invalidate func()
	logger     zerolog.Logger

	mu         sync.Mutex
	lastChange time.Time
}

// NewWatcher creates a file watcher over the web root. onChange runs after
// each debounced batch of changes.
func NewWatcher(root string, onChange func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:    fsWatcher,
		root:       root,
		invalidate: onChange,
		logger:     logging.GetLogger("server.watcher"),
	}, nil
}

// Start begins watching for file changes and blocks until ctx is
// cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	if err := w.addRecursive(w.root); err != nil {
		w.logger.Error().Err(err).Str("root", w.root).Msg("failed to watch web root")
		return
	}
	w.logger.Info().Str("root", w.root).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
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
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Ignore hidden files and editor temp files
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return
	}

	// New directories need to be watched too
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
			}
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	now := time.Now()
	debounced := now.Sub(w.lastChange) < debounceWindow
	w.lastChange = now
	w.mu.Unlock()

	if debounced {
		return
	}

	w.logger.Debug().Str("file", event.Name).Msg("file changed")
	w.invalidate()
}

// addRecursive watches dir and all its subdirectories.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}
