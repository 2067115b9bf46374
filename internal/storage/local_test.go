package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseObjectStorage runs the behaviour every sink must share.
func exerciseObjectStorage(t *testing.T, s ObjectStorage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "snapshots/latest.img")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	exists, err := s.Exists(ctx, "snapshots/latest.img")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Put(ctx, "snapshots/latest.img", []byte("first")))
	require.NoError(t, s.Put(ctx, "snapshots/latest.img", []byte("second")))
	require.NoError(t, s.Put(ctx, "snapshots/history/0002.img", []byte("b")))
	require.NoError(t, s.Put(ctx, "snapshots/history/0001.img", []byte("a")))
	require.NoError(t, s.Put(ctx, "other/file", []byte("x")))

	data, err := s.Get(ctx, "snapshots/latest.img")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data), "put must replace the object")

	exists, err = s.Exists(ctx, "snapshots/latest.img")
	require.NoError(t, err)
	assert.True(t, exists)

	keys, err := s.ListObjects(ctx, "snapshots/history/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/history/0001.img", "snapshots/history/0002.img"}, keys)

	all, err := s.ListObjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, s.Delete(ctx, "snapshots/history/0001.img"))
	require.NoError(t, s.Delete(ctx, "snapshots/history/0001.img"), "deleting a missing object is not an error")
	keys, err = s.ListObjects(ctx, "snapshots/history/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/history/0002.img"}, keys)
}

func TestLocalStorage_Contract(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	exerciseObjectStorage(t, s)
}

func TestLocalStorage_NoTempFilesLeftBehind(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "a/b.img", []byte("payload")))

	entries, err := os.ReadDir(filepath.Join(base, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.img", entries[0].Name())
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Put(ctx, "k", []byte("v")))
	_, err = s.Get(ctx, "k")
	assert.Error(t, err)
}
