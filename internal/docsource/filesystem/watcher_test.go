package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refchat/internal/chunker"
	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/extract/plaintext"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()

	source := New(t.TempDir(), chunker.New(), []driven.Extractor{plaintext.New()})
	w := NewWatcher(source)
	w.debounce = 20 * time.Millisecond
	return w
}

type handleChans struct {
	changes chan Change
	fired   chan domain.FileRef
	done    chan struct{}
}

func newHandleChans() handleChans {
	return handleChans{
		changes: make(chan Change, 4),
		fired:   make(chan domain.FileRef, 4),
		done:    make(chan struct{}),
	}
}

func (c handleChans) handle(ctx context.Context, w *Watcher, event fsnotify.Event) {
	w.handle(ctx, event, c.changes, c.fired, c.done)
}

func receiveChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()

	select {
	case change := <-changes:
		return change
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func receiveFired(t *testing.T, fired <-chan domain.FileRef) domain.FileRef {
	t.Helper()

	select {
	case ref := <-fired:
		return ref
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounce to fire")
		return domain.FileRef{}
	}
}

func assertQuiet(t *testing.T, c handleChans, wait time.Duration) {
	t.Helper()

	select {
	case change := <-c.changes:
		t.Fatalf("unexpected change: %+v", change)
	case ref := <-c.fired:
		t.Fatalf("unexpected debounce firing: %+v", ref)
	case <-time.After(wait):
	}
}

func TestWatcher_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("remove emits immediately", func(t *testing.T) {
		w := newTestWatcher(t)
		c := newHandleChans()

		c.handle(ctx, w, fsnotify.Event{Name: "/docs/notes.txt", Op: fsnotify.Remove})

		change := receiveChange(t, c.changes)
		assert.Equal(t, ChangeRemoved, change.Type)
		assert.Equal(t, "notes.txt", change.File.Name)
	})

	t.Run("write burst coalesces to one upsert", func(t *testing.T) {
		w := newTestWatcher(t)
		c := newHandleChans()

		for i := 0; i < 5; i++ {
			c.handle(ctx, w, fsnotify.Event{Name: "/docs/notes.txt", Op: fsnotify.Write})
		}

		ref := receiveFired(t, c.fired)
		assert.Equal(t, "notes.txt", ref.Name)
		assertQuiet(t, c, 100*time.Millisecond)
	})

	t.Run("remove cancels pending upsert", func(t *testing.T) {
		w := newTestWatcher(t)
		c := newHandleChans()

		c.handle(ctx, w, fsnotify.Event{Name: "/docs/notes.txt", Op: fsnotify.Write})
		c.handle(ctx, w, fsnotify.Event{Name: "/docs/notes.txt", Op: fsnotify.Remove})

		change := receiveChange(t, c.changes)
		require.Equal(t, ChangeRemoved, change.Type)
		assertQuiet(t, c, 100*time.Millisecond)
	})

	t.Run("hidden and unsupported files are ignored", func(t *testing.T) {
		w := newTestWatcher(t)
		c := newHandleChans()

		c.handle(ctx, w, fsnotify.Event{Name: "/docs/.hidden.txt", Op: fsnotify.Write})
		c.handle(ctx, w, fsnotify.Event{Name: "/docs/archive.zip", Op: fsnotify.Write})
		c.handle(ctx, w, fsnotify.Event{Name: "/docs/image.png", Op: fsnotify.Remove})

		assertQuiet(t, c, 100*time.Millisecond)
	})

	t.Run("distinct files debounce independently", func(t *testing.T) {
		w := newTestWatcher(t)
		c := newHandleChans()

		c.handle(ctx, w, fsnotify.Event{Name: "/docs/a.txt", Op: fsnotify.Write})
		c.handle(ctx, w, fsnotify.Event{Name: "/docs/b.txt", Op: fsnotify.Create})

		seen := map[string]bool{}
		for i := 0; i < 2; i++ {
			ref := receiveFired(t, c.fired)
			seen[ref.Name] = true
		}
		assert.True(t, seen["a.txt"])
		assert.True(t, seen["b.txt"])
	})
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("writes surface as upserts", func(t *testing.T) {
		w := newTestWatcher(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		path := filepath.Join(w.source.Root(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

		change := receiveChange(t, changes)
		assert.Equal(t, ChangeUpserted, change.Type)
		assert.Equal(t, "notes.txt", change.File.Name)
	})

	t.Run("shutdown with pending debounce closes cleanly", func(t *testing.T) {
		w := newTestWatcher(t)
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		// Leave a debounce timer outstanding, then cancel before it fires.
		// The timer must not reach a closed channel.
		path := filepath.Join(w.source.Root(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
		time.Sleep(5 * time.Millisecond)
		cancel()

		deadline := time.After(2 * time.Second)
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					// Closed. Wait out the debounce window so a stray timer
					// firing would surface as a panic before the test ends.
					time.Sleep(3 * w.debounce)
					return
				}
			case <-deadline:
				t.Fatal("changes channel did not close after cancel")
			}
		}
	})
}

func TestWatcher_WatchMissingFolder(t *testing.T) {
	source := New("/nonexistent/docs/folder", chunker.New(), []driven.Extractor{plaintext.New()})
	w := NewWatcher(source)

	_, err := w.Watch(context.Background())

	assert.Error(t, err)
}
