package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir string, manifest map[string]any) {
	t.Helper()
	raw, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), raw, 0o644))
}

func readManifest(t *testing.T, dir string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	var manifest map[string]any
	require.NoError(t, json.Unmarshal(raw, &manifest))
	return manifest
}

func TestRepairManifest(t *testing.T) {
	t.Run("adds a missing build script", func(t *testing.T) {
		tmp := t.TempDir()
		writeManifest(t, tmp, map[string]any{
			"name":    "aurora",
			"scripts": map[string]any{"dev": "next dev"},
		})

		require.NoError(t, RepairManifest(tmp))

		scripts := readManifest(t, tmp)["scripts"].(map[string]any)
		assert.Equal(t, "next build", scripts["build"])
		assert.Equal(t, "next dev", scripts["dev"])
	})

	t.Run("keeps an existing build script", func(t *testing.T) {
		tmp := t.TempDir()
		writeManifest(t, tmp, map[string]any{
			"scripts": map[string]any{"build": "next build && echo done"},
		})

		require.NoError(t, RepairManifest(tmp))

		scripts := readManifest(t, tmp)["scripts"].(map[string]any)
		assert.Equal(t, "next build && echo done", scripts["build"])
	})

	t.Run("adds missing core dependencies", func(t *testing.T) {
		tmp := t.TempDir()
		writeManifest(t, tmp, map[string]any{
			"dependencies": map[string]any{"react": "^18.2.0"},
		})

		require.NoError(t, RepairManifest(tmp))

		deps := readManifest(t, tmp)["dependencies"].(map[string]any)
		assert.Equal(t, "^18.2.0", deps["react"], "pinned versions stay")
		assert.Equal(t, "latest", deps["next"])
		assert.Equal(t, "latest", deps["react-dom"])
	})

	t.Run("core packages in devDependencies count as present", func(t *testing.T) {
		tmp := t.TempDir()
		writeManifest(t, tmp, map[string]any{
			"dependencies":    map[string]any{"react": "18.x", "react-dom": "18.x"},
			"devDependencies": map[string]any{"next": "14.1.0"},
		})

		require.NoError(t, RepairManifest(tmp))

		deps := readManifest(t, tmp)["dependencies"].(map[string]any)
		_, added := deps["next"]
		assert.False(t, added)
	})

	t.Run("strips toolchain pins", func(t *testing.T) {
		tmp := t.TempDir()
		writeManifest(t, tmp, map[string]any{
			"packageManager": "pnpm@8.6.0",
			"engines":        map[string]any{"node": ">=21"},
			"scripts":        map[string]any{"build": "next build"},
		})

		require.NoError(t, RepairManifest(tmp))

		manifest := readManifest(t, tmp)
		assert.NotContains(t, manifest, "packageManager")
		assert.NotContains(t, manifest, "engines")
	})

	t.Run("handles a manifest with no sections at all", func(t *testing.T) {
		tmp := t.TempDir()
		writeManifest(t, tmp, map[string]any{"name": "bare"})

		require.NoError(t, RepairManifest(tmp))

		manifest := readManifest(t, tmp)
		scripts := manifest["scripts"].(map[string]any)
		deps := manifest["dependencies"].(map[string]any)
		assert.Equal(t, "next build", scripts["build"])
		assert.Len(t, deps, 3)
	})

	t.Run("fails when package.json is absent", func(t *testing.T) {
		err := RepairManifest(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "manifest missing")
	})

	t.Run("fails on unparseable manifest", func(t *testing.T) {
		tmp := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmp, "package.json"), []byte("{not json"), 0o644))
		require.Error(t, RepairManifest(tmp))
	})
}
