package credentials

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// WatchedFile serves a credential file from memory and reloads it whenever
// the directory holding it changes. Watching the directory rather than the
// file keeps working across atomic rename and symlink swaps.
//
// When a reload fails, for example because the file was removed, Fetch
// returns that error until a later reload succeeds. Stale content is never
// served after a failed reload.
type WatchedFile struct {
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu      sync.RWMutex
	content string
	err     error

	closeOnce sync.Once
}

// NewWatchedFile loads path and starts watching its directory. Call Close to
// stop the watcher.
func NewWatchedFile(path string) (*WatchedFile, error) {
	w := &WatchedFile{
		path: filepath.Clean(path),
		done: make(chan struct{}),
	}

	w.reload()
	if w.err != nil {
		return nil, w.err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create credential watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.watcher = watcher
	go w.run()

	log.Debug().Str("path", w.path).Msg("watching credential file")

	return w, nil
}

// Path returns the watched file.
func (w *WatchedFile) Path() string {
	return w.path
}

// Fetch returns the most recently loaded content.
func (w *WatchedFile) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.err != nil {
		return "", w.err
	}
	return w.content, nil
}

// Close stops the watcher. It is safe to call more than once, and on a
// WatchedFile not built by NewWatchedFile, where it does nothing.
func (w *WatchedFile) Close() error {
	var err error
	w.closeOnce.Do(func() {
		if w.watcher == nil {
			return
		}
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *WatchedFile) run() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			log.Debug().Str("path", w.path).Str("event", event.String()).Msg("credential directory changed")
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", w.path).Msg("credential watcher error")
		}
	}
}

func (w *WatchedFile) reload() {
	content, err := readCredential(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.content = content
	w.err = err
}
