package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanschultz/ngoboard/internal/watcher"
)

func TestWatcher_DatabaseWriteTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ngoboard.db")

	var called atomic.Int32
	w, err := watcher.ForDatabase(dbPath, func() { called.Add(1) }, watcher.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, nil)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("ab"), 0o600))

	assert.Eventually(t, func() bool { return called.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), called.Load(), "burst of writes should debounce into one callback")
}

func TestWatcher_OtherFilesIgnored(t *testing.T) {
	dir := t.TempDir()

	var called atomic.Int32
	w, err := watcher.ForDatabase(filepath.Join(dir, "ngoboard.db"), func() { called.Add(1) }, watcher.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, nil)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, int32(0), called.Load())
}

func TestWatcher_NewInvalidPath(t *testing.T) {
	_, err := watcher.New([]string{t.TempDir(), "/nonexistent/path"}, func() {})
	require.Error(t, err)
}

func TestWatcher_RunReturnsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := watcher.New([]string{dir}, func() {})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, func(err error) { t.Logf("watcher error: %v", err) })
		close(done)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.db"), []byte("x"), 0o600))
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_RunReturnsAfterClose(t *testing.T) {
	w, err := watcher.New([]string{t.TempDir()}, func() {})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
