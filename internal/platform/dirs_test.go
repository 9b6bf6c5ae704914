package platform_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelter/internal/platform"
)

func TestEnsureDir(t *testing.T) {
	t.Run("Creates Nested Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		require.NoError(t, platform.EnsureDir(dir))

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Existing Directory Is Fine", func(t *testing.T) {
		require.NoError(t, platform.EnsureDir(t.TempDir()))
	})

	t.Run("Fails on File", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0600))
		assert.Error(t, platform.EnsureDir(file))
	})
}

func TestPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "open.json"), []byte(`{"content":[]}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "closed.json"), []byte(`{"content":[]}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".open.lock"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	issues, err := platform.InspectPermissions(dir)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, dir, issues[0].Path)
	assert.Equal(t, platform.DirMode, issues[0].Want)
	assert.Equal(t, filepath.Join(dir, "open.json"), issues[1].Path)
	assert.Equal(t, os.FileMode(0644), issues[1].Mode)

	repaired, err := platform.RepairPermissions(dir)
	require.NoError(t, err)
	assert.Equal(t, issues, repaired)

	info, err := os.Stat(filepath.Join(dir, "open.json"))
	require.NoError(t, err)
	assert.Equal(t, platform.FileMode, info.Mode().Perm())

	issues, err = platform.InspectPermissions(dir)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
