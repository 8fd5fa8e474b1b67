package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchString(w *WatchedFile) string {
	s, _ := w.Fetch(context.Background())
	return s
}

func TestWatchedFile(t *testing.T) {
	t.Run("loads initial content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "instance.key")
		require.NoError(t, os.WriteFile(path, []byte("key-v1"), 0600))

		w, err := NewWatchedFile(path)
		require.NoError(t, err)
		defer w.Close()

		got, err := w.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "key-v1", got)
		assert.Equal(t, path, w.Path())
	})

	t.Run("picks up rewritten content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "instance.key")
		require.NoError(t, os.WriteFile(path, []byte("key-v1"), 0600))

		w, err := NewWatchedFile(path)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, os.WriteFile(path, []byte("key-v2"), 0600))

		require.Eventually(t, func() bool {
			return fetchString(w) == "key-v2"
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("picks up atomic rename", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "instance.crt")
		require.NoError(t, os.WriteFile(path, []byte("cert-v1"), 0600))

		w, err := NewWatchedFile(path)
		require.NoError(t, err)
		defer w.Close()

		tmp := filepath.Join(dir, "instance.crt.tmp")
		require.NoError(t, os.WriteFile(tmp, []byte("cert-v2"), 0600))
		require.NoError(t, os.Rename(tmp, path))

		require.Eventually(t, func() bool {
			return fetchString(w) == "cert-v2"
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("does not serve removed content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "instance.crt")
		require.NoError(t, os.WriteFile(path, []byte("cert-v1"), 0600))

		w, err := NewWatchedFile(path)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, os.Remove(path))

		require.Eventually(t, func() bool {
			_, err := w.Fetch(context.Background())
			return err != nil
		}, 5*time.Second, 10*time.Millisecond)

		_, err = w.Fetch(context.Background())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing file at start", func(t *testing.T) {
		w, err := NewWatchedFile(filepath.Join(t.TempDir(), "missing.crt"))
		require.ErrorIs(t, err, ErrNotFound)
		require.Nil(t, w)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "instance.crt")
		require.NoError(t, os.WriteFile(path, []byte("cert"), 0600))

		w, err := NewWatchedFile(path)
		require.NoError(t, err)

		require.NoError(t, w.Close())
		require.NoError(t, w.Close())
	})

	t.Run("close on zero value", func(t *testing.T) {
		var w WatchedFile
		require.NoError(t, w.Close())

		text, err := w.Fetch(context.Background())
		require.NoError(t, err)
		assert.Empty(t, text)
	})
}
