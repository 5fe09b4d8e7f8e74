package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReportsInitialAndChangedContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.jsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w, err := New(path, 20*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 10)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(src string) { got <- src }) }()

	assert.Equal(t, "v1", receive(t, got))

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.jsx"), []byte("x"), 0o644))

	// Editors that save via rename must keep working.
	tmp := filepath.Join(dir, ".demo.jsx.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("v2"), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	assert.Equal(t, "v2", receive(t, got))

	require.NoError(t, os.WriteFile(path, []byte("v3"), 0o644))
	assert.Equal(t, "v3", receive(t, got))

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, got)
}

func TestRun_MissingFile(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "nope.jsx"), 0, nil)
	require.NoError(t, err)

	err = w.Run(context.Background(), func(string) { t.Fatal("must not be called") })
	assert.Error(t, err)
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return ""
	}
}
