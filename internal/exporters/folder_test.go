package exporters

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderDestination_Write(t *testing.T) {
	t.Run("creates directory and writes markdown", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "Kindle Highlights")
		dest := NewFolderDestination(dir)

		path, err := dest.Write("Dune — Frank Herbert", "content")

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "Dune — Frank Herbert.md"), path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("strips unsafe characters from the name", func(t *testing.T) {
		dir := t.TempDir()
		dest := NewFolderDestination(dir)

		path, err := dest.Write("a/b:c", "x")

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "abc.md"), path)
	})

	t.Run("overwrites previous version", func(t *testing.T) {
		dest := NewFolderDestination(t.TempDir())

		_, err := dest.Write("Book", "old")
		require.NoError(t, err)
		path, err := dest.Write("Book", "new")
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("fails when the folder cannot be created", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		dest := NewFolderDestination(filepath.Join(file, "sub"))
		dest.Delay = 0

		_, err := dest.Write("Book", "x")
		assert.Error(t, err)
	})

	t.Run("permission errors are not retried", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced")
		}
		dir := t.TempDir()
		require.NoError(t, os.Chmod(dir, 0555))
		t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

		dest := NewFolderDestination(dir)
		dest.Delay = 0

		_, err := dest.Write("Book", "x")
		assert.ErrorIs(t, err, os.ErrPermission)
	})
}
