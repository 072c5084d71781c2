package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sghaida/autocode/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string, fired *atomic.Int32) {
	t.Helper()

	w, err := loader.NewWatcher(func() { fired.Add(1) }, []string{dir}, loader.WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_DebouncesSourceChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var fired atomic.Int32
	startWatcher(t, dir, &fired)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))
	}

	require.Eventually(t, func() bool { return fired.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.EqualValues(t, 1, fired.Load())
}

func TestWatcher_IgnoresGeneratedAndForeignFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var fired atomic.Int32
	startWatcher(t, dir, &fired)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "LoggerProxy.gen.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_test.go"), []byte("package a\n"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, 0, fired.Load())
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var fired atomic.Int32
	startWatcher(t, dir, &fired)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(sub, "b.go"), []byte("package sub\n"), 0o644)
		return fired.Load() >= 1
	}, 2*time.Second, 50*time.Millisecond)
}

func TestNewWatcher_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := loader.NewWatcher(func() {}, []string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestWatcher_RunWaitsForRunningCallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var finished atomic.Bool

	w, err := loader.NewWatcher(func() {
		once.Do(func() { close(started) })
		<-release
		finished.Store(true)
	}, []string{dir}, loader.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}

	cancel()
	select {
	case <-done:
		t.Fatal("Run returned while a callback was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the callback finished")
	}
	assert.True(t, finished.Load())
}
