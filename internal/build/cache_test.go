package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/bundler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCache_WriteThenReadHits(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"), 16, 0)
	require.NoError(t, err)

	src := filepath.Join(dir, "a.js")
	writeTestFile(t, src, "const a = 1;")

	ctx := context.Background()
	result := types.ProcessedResult{Generated: map[string]string{"js": "const a = 1;"}, Hash: "abc123"}
	require.NoError(t, cache.Write(ctx, src, "fp1", result))

	got, ok, err := cache.Read(ctx, src, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.Hash, got.Hash)
	assert.Equal(t, int64(1), cache.GetHits())
}

func TestCache_MissOnFingerprintChange(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"), 16, 0)
	require.NoError(t, err)

	src := filepath.Join(dir, "a.js")
	writeTestFile(t, src, "const a = 1;")

	ctx := context.Background()
	result := types.ProcessedResult{Hash: "abc123"}
	require.NoError(t, cache.Write(ctx, src, "fp1", result))

	_, ok, err := cache.Read(ctx, src, "fp2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), cache.GetMisses())
}

func TestCache_MissWhenFileModified(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"), 16, 0)
	require.NoError(t, err)

	src := filepath.Join(dir, "a.js")
	writeTestFile(t, src, "const a = 1;")

	ctx := context.Background()
	require.NoError(t, cache.Write(ctx, src, "fp1", types.ProcessedResult{Hash: "abc123"}))

	writeTestFile(t, src, "const a = 2;")

	_, ok, err := cache.Read(ctx, src, "fp1")
	require.NoError(t, err)
	assert.False(t, ok, "a content change that alters mtime/size should invalidate the cache entry")
}

func TestCache_ReadMissingFileNeverErrors(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"), 16, 0)
	require.NoError(t, err)

	_, ok, err := cache.Read(context.Background(), filepath.Join(dir, "missing.js"), "fp")
	require.NoError(t, err, "cache I/O errors must never propagate to the caller")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"), 16, 0)
	require.NoError(t, err)

	src := filepath.Join(dir, "a.js")
	writeTestFile(t, src, "const a = 1;")

	ctx := context.Background()
	require.NoError(t, cache.Write(ctx, src, "fp1", types.ProcessedResult{Hash: "abc123"}))
	require.NoError(t, cache.Invalidate(ctx, src))

	_, ok, err := cache.Read(ctx, src, "fp1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_SurvivesAcrossInstancesViaDisk(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	src := filepath.Join(dir, "a.js")
	writeTestFile(t, src, "const a = 1;")

	ctx := context.Background()
	first, err := NewCache(cacheDir, 16, 0)
	require.NoError(t, err)
	require.NoError(t, first.Write(ctx, src, "fp1", types.ProcessedResult{Hash: "abc123"}))

	second, err := NewCache(cacheDir, 16, 0)
	require.NoError(t, err)
	got, ok, err := second.Read(ctx, src, "fp1")
	require.NoError(t, err)
	require.True(t, ok, "a fresh Cache instance should still see the prior instance's on-disk entry")
	assert.Equal(t, "abc123", got.Hash)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"), 2, 0)
	require.NoError(t, err)

	ctx := context.Background()
	paths := make([]string, 3)
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, string(rune('a'+i))+".js")
		writeTestFile(t, p, "x")
		paths[i] = p
		require.NoError(t, cache.Write(ctx, p, "fp", types.ProcessedResult{Hash: "h"}))
	}

	assert.Equal(t, int64(1), cache.GetEvictions())
	assert.LessOrEqual(t, cache.GetSize(), int64(2))
}
