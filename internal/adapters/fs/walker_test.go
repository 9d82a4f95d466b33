package fs_test

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canarist/internal/adapters/fs"
)

func TestWalker_WalkFiles(t *testing.T) {
	mem := afero.NewMemMapFs()
	for _, name := range []string{
		"repo/package.json",
		"repo/src/index.js",
		"repo/.git/config",
		"repo/node_modules/left-pad/package.json",
	} {
		path := filepath.Join("/", filepath.FromSlash(name))
		require.NoError(t, mem.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(mem, path, []byte("x"), 0o644))
	}

	files := slices.Sorted(fs.NewWalker(mem).WalkFiles(filepath.FromSlash("/repo")))
	assert.Equal(t, []string{
		filepath.FromSlash("/repo/package.json"),
		filepath.FromSlash("/repo/src/index.js"),
	}, files)
}

func TestWalker_WalkFiles_StopsEarly(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/a", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/b", []byte("x"), 0o644))

	count := 0
	for range fs.NewWalker(mem).WalkFiles("/") {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestWalker_WalkFiles_MissingRoot(t *testing.T) {
	files := slices.Collect(fs.NewWalker(afero.NewMemMapFs()).WalkFiles("/missing"))
	assert.Empty(t, files)
}
