package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_Paths(t *testing.T) {
	tmp := t.TempDir()
	ws, err := NewWorkspace(tmp)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(tmp, "themes"))
	assert.DirExists(t, filepath.Join(tmp, "stores"))

	assert.Equal(t, filepath.Join(tmp, "themes", "aurora"), ws.ThemeDir("aurora"))
	assert.Equal(t, filepath.Join(tmp, "themes", "aurora.zip"), ws.ThemeZipPath("aurora"))
	assert.Equal(t, filepath.Join(tmp, "stores", "corner-shop"), ws.StoreDir("corner-shop"))
	assert.Equal(t, "/uploads/themes/aurora/out", ws.ThemeBasePath("aurora"))
	assert.Equal(t, "/uploads/stores/corner-shop/out", ws.StoreBasePath("corner-shop"))
}

func TestOutputDir(t *testing.T) {
	t.Run("finds non-empty out directory", func(t *testing.T) {
		tmp := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(tmp, "out"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(tmp, "out", "index.html"), []byte("x"), 0o644))

		dir, ok := OutputDir(tmp)
		assert.True(t, ok)
		assert.Equal(t, filepath.Join(tmp, "out"), dir)
	})

	t.Run("empty out directory does not count", func(t *testing.T) {
		tmp := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(tmp, "out"), 0o755))

		_, ok := OutputDir(tmp)
		assert.False(t, ok)
	})

	t.Run("falls back to build and dist", func(t *testing.T) {
		tmp := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(tmp, "dist"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(tmp, "dist", "index.html"), []byte("x"), 0o644))

		dir, ok := OutputDir(tmp)
		assert.True(t, ok)
		assert.Equal(t, filepath.Join(tmp, "dist"), dir)
	})
}

func TestClearPreserving(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package-lock.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.txt"), []byte("x"), 0o644))

	require.NoError(t, ClearPreserving(dir, preservedEntries))

	assert.DirExists(t, filepath.Join(dir, "node_modules"))
	assert.FileExists(t, filepath.Join(dir, "package-lock.json"))
	assert.NoDirExists(t, filepath.Join(dir, "app"))
	assert.NoFileExists(t, filepath.Join(dir, "old.txt"))
}

func TestCopyTree(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "app", "login"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "node_modules", "react"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "package.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "app", "login", "page.tsx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "node_modules", "react", "index.js"), []byte("x"), 0o644))

	dst := filepath.Join(tmp, "dst")
	require.NoError(t, CopyTree(src, dst, []string{"node_modules"}))

	assert.FileExists(t, filepath.Join(dst, "package.json"))
	assert.FileExists(t, filepath.Join(dst, "app", "login", "page.tsx"))
	assert.NoDirExists(t, filepath.Join(dst, "node_modules"))
}
