package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skippedDirectories are never watched.
var skippedDirectories = []string{".git", ".jj", ".chainload"}

const eventChannelBuffer = 100

// Watcher implements recursive directory watching using fsnotify.
type Watcher struct {
	logger ports.Logger

	mu        sync.Mutex
	fsWatcher *fsnotify.Watcher
	events    chan ports.WatchEvent
	done      chan struct{}
}

// NewWatcher creates a file system watcher. The underlying fsnotify watcher is created by Start.
func NewWatcher(logger ports.Logger) *Watcher {
	return &Watcher{logger: logger}
}

// Start begins watching the given roots recursively. Missing roots are skipped with a debug message.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsWatcher != nil {
		return zerr.Wrap(domain.ErrWatchFailed, "watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}

	for _, root := range roots {
		if _, statErr := os.Stat(root); statErr != nil {
			w.logger.Debug(fmt.Sprintf("not watching %s: %v", root, statErr))
			continue
		}
		for dir := range watchRecursively(root) {
			if addErr := fsw.Add(dir); addErr != nil {
				_ = fsw.Close()
				return zerr.With(zerr.Wrap(addErr, domain.ErrWatchFailed.Error()), "path", dir)
			}
		}
	}

	w.fsWatcher = fsw
	w.events = make(chan ports.WatchEvent, eventChannelBuffer)
	w.done = make(chan struct{})

	go w.processEvents(ctx, fsw, w.events, w.done)

	return nil
}

// Stop stops the watcher and closes the event stream. Stopping an idle watcher is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fsw, done := w.fsWatcher, w.done
	w.fsWatcher = nil
	w.mu.Unlock()

	if fsw == nil {
		return nil
	}
	err := fsw.Close()
	<-done
	return err
}

// Events returns an iterator of file system events. It ends when the watcher stops or the
// context passed to Start is canceled.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	w.mu.Lock()
	events := w.events
	w.mu.Unlock()

	return func(yield func(ports.WatchEvent) bool) {
		if events == nil {
			return
		}
		for event := range events {
			if !yield(event) {
				return
			}
		}
	}
}

// watchRecursively yields root and every directory below it that is not skipped.
func watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && slices.Contains(skippedDirectories, d.Name()) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

//nolint:cyclop // one select over the fsnotify channels
func (w *Watcher) processEvents(
	ctx context.Context,
	fsw *fsnotify.Watcher,
	out chan<- ports.WatchEvent,
	done chan<- struct{},
) {
	defer close(done)
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}

			watchEvent, ok := convertEvent(event)
			if !ok {
				continue
			}

			select {
			case out <- watchEvent:
			case <-ctx.Done():
				return
			}

			// New directories are watched as soon as they appear.
			if watchEvent.Operation == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() &&
					!slices.Contains(skippedDirectories, info.Name()) {
					for dir := range watchRecursively(event.Name) {
						_ = fsw.Add(dir)
					}
				}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn(fmt.Sprintf("watcher: file system error: %v", err))
		}
	}
}

func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	var op ports.WatchOp
	switch {
	case event.Has(fsnotify.Write):
		op = ports.OpWrite
	case event.Has(fsnotify.Create):
		op = ports.OpCreate
	case event.Has(fsnotify.Remove):
		op = ports.OpRemove
	case event.Has(fsnotify.Rename):
		op = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}
	return ports.WatchEvent{Path: event.Name, Operation: op}, true
}
