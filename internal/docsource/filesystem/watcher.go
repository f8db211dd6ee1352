package filesystem

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/logger"
)

// ChangeType classifies a watched file event.
type ChangeType int

const (
	// ChangeUpserted indicates a file was created or rewritten.
	ChangeUpserted ChangeType = iota
	// ChangeRemoved indicates a file was deleted or renamed away.
	ChangeRemoved
)

// Change is a debounced file event from the docs folder.
type Change struct {
	Type ChangeType
	File domain.FileRef
}

// DefaultDebounceWindow coalesces the burst of write events editors and
// upload handlers produce for a single file.
const DefaultDebounceWindow = 500 * time.Millisecond

// Watcher emits debounced changes for eligible files in the docs folder.
type Watcher struct {
	source   *Source
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher over the source's folder.
func NewWatcher(source *Source) *Watcher {
	return &Watcher{
		source:   source,
		debounce: DefaultDebounceWindow,
		pending:  make(map[string]*time.Timer),
	}
}

// Watch streams changes until the context is cancelled. The channel is
// closed when watching stops. Files with unsupported extensions and hidden
// files are ignored.
//
// The watch goroutine is the sole sender on the returned channel. Debounce
// timers report through an internal channel that is never closed, so a
// timer firing during shutdown can never hit a closed channel.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(w.source.Root()); err != nil {
		fsw.Close()
		return nil, err
	}

	changes := make(chan Change, 16)
	fired := make(chan domain.FileRef, 16)
	done := make(chan struct{})

	go func() {
		defer close(changes)
		defer fsw.Close()
		// Runs first: stop outstanding timers, then release any callback
		// already blocked on the fired channel. Only after that may the
		// changes channel close.
		defer func() {
			w.stopAll()
			close(done)
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				w.handle(ctx, event, changes, fired, done)

			case ref := <-fired:
				select {
				case changes <- Change{Type: ChangeUpserted, File: ref}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

func (w *Watcher) handle(
	ctx context.Context,
	event fsnotify.Event,
	changes chan<- Change,
	fired chan<- domain.FileRef,
	done <-chan struct{},
) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !w.source.Supported(name) {
		return
	}

	ref := domain.FileRef{Path: event.Name, Name: name}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.cancelPending(event.Name)
		select {
		case changes <- Change{Type: ChangeRemoved, File: ref}:
		case <-ctx.Done():
		}

	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		// Coalesce write bursts: only the last event within the window fires.
		// The callback hands the file back to the watch goroutine; it never
		// touches the changes channel itself.
		w.mu.Lock()
		if timer, ok := w.pending[event.Name]; ok {
			timer.Stop()
		}
		w.pending[event.Name] = time.AfterFunc(w.debounce, func() {
			w.cancelPending(event.Name)
			select {
			case fired <- ref:
			case <-done:
			}
		})
		w.mu.Unlock()
	}
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
}

// stopAll stops every outstanding debounce timer. Timers that already fired
// are unblocked by the done channel closing.
func (w *Watcher) stopAll() {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
}
