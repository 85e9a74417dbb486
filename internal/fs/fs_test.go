package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0755))

	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	require.NoError(t, f.Close())

	data, err := ReadFile(lfs, fpath)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	newPath := filepath.Join(dir, "renamed.txt")
	require.NoError(t, lfs.Rename(fpath, newPath))

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "renamed.txt", entries[0].Name())

	require.NoError(t, lfs.Remove(newPath))
	_, err = lfs.Stat(newPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS(t *testing.T) {
	tmp := t.TempDir()
	sentinel := errors.New("boom")

	ffs := NewFaultyFS(nil)
	ffs.AddRule("limited", Fault{FailAfterBytes: 4, Err: sentinel})
	ffs.AddRule("nosync", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule("noopen", Fault{FailAfterBytes: -1, FailOnOpen: true})
	ffs.AddRule("norename", Fault{FailAfterBytes: -1, FailOnRename: true})

	t.Run("FailAfterBytes", func(t *testing.T) {
		f, err := ffs.OpenFile(filepath.Join(tmp, "limited.bin"), os.O_CREATE|os.O_WRONLY, 0644)
		require.NoError(t, err)
		defer f.Close()

		_, err = f.Write([]byte("abc"))
		require.NoError(t, err)
		_, err = f.Write([]byte("de"))
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("FailOnSync", func(t *testing.T) {
		f, err := ffs.OpenFile(filepath.Join(tmp, "nosync.bin"), os.O_CREATE|os.O_WRONLY, 0644)
		require.NoError(t, err)
		defer f.Close()
		assert.ErrorIs(t, f.Sync(), ErrInjected)
	})

	t.Run("FailOnOpen", func(t *testing.T) {
		_, err := ffs.OpenFile(filepath.Join(tmp, "noopen.bin"), os.O_CREATE|os.O_WRONLY, 0644)
		assert.ErrorIs(t, err, ErrInjected)
	})

	t.Run("FailOnRename", func(t *testing.T) {
		src := filepath.Join(tmp, "src.bin")
		require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
		assert.ErrorIs(t, ffs.Rename(src, filepath.Join(tmp, "norename.bin")), ErrInjected)
	})

	t.Run("Passthrough", func(t *testing.T) {
		p := filepath.Join(tmp, "plain.bin")
		f, err := ffs.OpenFile(p, os.O_CREATE|os.O_WRONLY, 0644)
		require.NoError(t, err)
		_, err = f.Write([]byte("plain"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		data, err := ReadFile(ffs, p)
		require.NoError(t, err)
		assert.Equal(t, []byte("plain"), data)
	})
}
