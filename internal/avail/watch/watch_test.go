package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/avail/internal/avail/watch"
)

func TestWatcher_TrackSameFileTwiceIsNoop(t *testing.T) {
	w, err := watch.New()
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(t.TempDir(), "mod.avail")
	require.NoError(t, os.WriteFile(path, []byte("Module \"M\" Body"), 0o644))

	require.NoError(t, w.Track(path))
	require.NoError(t, w.Track(path), "tracking the same path twice should not error")
}

func TestWatcher_RecompilesOnWrite(t *testing.T) {
	w, err := watch.New()
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(t.TempDir(), "mod.avail")
	require.NoError(t, os.WriteFile(path, []byte("Module \"M\" Body"), 0o644))
	require.NoError(t, w.Track(path))

	changed := make(chan string, 1)
	w.Recompile = func(p string) { changed <- p }

	go w.Run()
	defer w.Close()

	// give the watcher goroutine a moment to start selecting on events
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("Module \"M\" Body Print: 1."), 0o644))

	select {
	case got := <-changed:
		assert.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Recompile to be called after a tracked file write")
	}
}
