package shader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(testSource), 0o644))

	s, err := NewShader(path,
		WithSourceFile(path),
		WithEntryPoints("vs_main", "fs_main"),
	)
	require.NoError(t, err)

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(s))

	updated := testSource + "\nfn helper() {}\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case key := <-w.Changed():
		assert.Equal(t, path, key)
		assert.Equal(t, updated, s.Source())
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification within deadline")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(testSource), 0o644))

	s, err := NewShader(path,
		WithSourceFile(path),
		WithEntryPoints("vs_main", "fs_main"),
	)
	require.NoError(t, err)

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(s))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("unrelated"), 0o644))

	select {
	case key := <-w.Changed():
		t.Fatalf("unexpected notification for %q", key)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherIgnoresInlineShaders(t *testing.T) {
	s, err := NewShader("inline", WithSource(testSource))
	require.NoError(t, err)

	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(s))
}
