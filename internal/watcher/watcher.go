// Package watcher reports changes to the board database made by other processes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of sqlite writes into one callback.
const DefaultDebounce = 150 * time.Millisecond

const meaningfulOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watcher calls back after files under the watched directories change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	callback func()
	prefix   string
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period before the callback fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithNamePrefix limits events to files whose base name starts with prefix.
// A sqlite database named board.db also matches board.db-wal and board.db-shm.
func WithNamePrefix(prefix string) Option {
	return func(w *Watcher) {
		w.prefix = prefix
	}
}

// New watches every directory in paths.
func New(paths []string, callback func(), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
	}
	w := &Watcher{fsw: fsw, callback: callback, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// ForDatabase watches the directory holding dbPath for changes to that database.
func ForDatabase(dbPath string, callback func(), opts ...Option) (*Watcher, error) {
	opts = append([]Option{WithNamePrefix(filepath.Base(dbPath))}, opts...)
	return New([]string{filepath.Dir(dbPath)}, callback, opts...)
}

// Run delivers debounced callbacks until ctx ends or the watcher closes.
// errFn may be nil.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if w.debounce == 0 {
				w.callback()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.callback()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&meaningfulOps == 0 {
		return false
	}
	if w.prefix == "" {
		return true
	}
	return strings.HasPrefix(filepath.Base(ev.Name), w.prefix)
}
