package doccache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetReadsThroughOnMiss(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	c := New(DefaultResolver{DataDir: dir})
	content, err := c.Get(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestCache_GetHitsCacheOnSecondCall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	c := New(DefaultResolver{DataDir: dir})
	first, err := c.Get(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", first)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	second, err := c.Get(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", second, "cache should not re-read after first hit")
}

func TestCache_IkURIResolvesRelativeToDataDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "a.md"), []byte("pinned"), 0o644))

	c := New(DefaultResolver{DataDir: dir})
	content, err := c.Get("ik://docs/a.md")
	require.NoError(t, err)
	assert.Equal(t, "pinned", content)
}

func TestCache_InvalidateForcesReread(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	c := New(DefaultResolver{DataDir: dir})
	_, err := c.Get(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	c.Invalidate(path)

	content, err := c.Get(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", content)
}

func TestCache_ClearDropsAllEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	c := New(DefaultResolver{DataDir: dir})
	_, err := c.Get(path)
	require.NoError(t, err)
	c.Clear()
	assert.Empty(t, c.entries)
}

func TestCache_GetMissingFileReturnsError(t *testing.T) {
	c := New(DefaultResolver{DataDir: t.TempDir()})
	_, err := c.Get("/nonexistent/path.md")
	assert.Error(t, err)
}
