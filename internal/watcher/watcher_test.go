package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptPNG(path string) bool {
	return strings.HasSuffix(path, ".png")
}

func TestWatchEmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0755))

	w, err := New(dir, acceptPNG)
	require.NoError(t, err)
	w.SetDebounceTime(50 * time.Millisecond)
	w.Ignore(outDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files, err := w.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "ignored.png"), []byte("x"), 0644))
	want := filepath.Join(dir, "new.png")
	require.NoError(t, os.WriteFile(want, []byte("x"), 0644))

	select {
	case got := <-files:
		assert.Equal(t, want, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no file received")
	}

	select {
	case got := <-files:
		t.Fatalf("unexpected file %s", got)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	for range files {
	}
}

func TestWatchNewSubdirectory(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, acceptPNG)
	require.NoError(t, err)
	w.SetDebounceTime(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	files, err := w.Watch(ctx)
	require.NoError(t, err)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))
	// даём watcher время добавить директорию
	time.Sleep(200 * time.Millisecond)
	want := filepath.Join(sub, "deep.png")
	require.NoError(t, os.WriteFile(want, []byte("x"), 0644))

	select {
	case got := <-files:
		assert.Equal(t, want, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no file received")
	}
}

func TestIgnored(t *testing.T) {
	w := &Watcher{}
	w.Ignore("/data/out")

	assert.True(t, w.ignored("/data/out"))
	assert.True(t, w.ignored("/data/out/a.png"))
	assert.False(t, w.ignored("/data/outside/a.png"))
	assert.False(t, w.ignored("/data/a.png"))
}

func TestWatchRejectsIgnoredRoot(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, acceptPNG)
	require.NoError(t, err)
	w.Ignore(dir)

	_, err = w.Watch(context.Background())
	assert.Error(t, err)
}
