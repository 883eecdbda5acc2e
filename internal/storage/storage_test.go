package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorageWriteAndRemove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := New(filepath.Join(root, "images"))
	require.NoError(t, err)

	require.NoError(t, store.WriteFile("avatar.png", []byte("png bytes")))

	content, err := os.ReadFile(filepath.Join(store.RootAbs(), "avatar.png"))
	require.NoError(t, err)
	require.Equal(t, "png bytes", string(content))

	info, err := store.Stat("avatar.png")
	require.NoError(t, err)
	require.False(t, info.IsDir())

	served, err := fs.ReadFile(store.FileSystem(), "avatar.png")
	require.NoError(t, err)
	require.Equal(t, content, served)

	entries, err := os.ReadDir(store.RootAbs())
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary upload files are cleaned up")

	require.NoError(t, store.Remove("avatar.png"))
	require.NoError(t, store.Remove("avatar.png"))
	_, err = store.Stat("avatar.png")
	require.Error(t, err)
}

func TestStorageRejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../escape.png", `sub\file.png`, "a/b.png", "bad\nname.png"} {
		require.Error(t, store.WriteFile(name, []byte("x")), name)
	}
}
