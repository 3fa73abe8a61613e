package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.Config{Level: logging.LevelFatal, Output: os.Stderr})
}

func TestFarm_RunProcessesAsset(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.js")
	writeTestFile(t, src, "const a = 1;")

	metrics := NewMetrics()
	farm := NewFarm(2, metrics, testLogger())
	defer farm.End()

	result, err := farm.Run(context.Background(), src, types.Package{Name: "app"}, types.ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;", result.Generated["js"])
	assert.Equal(t, int64(1), metrics.GetBuildCount())
	assert.Equal(t, int64(1), metrics.GetSuccessCount())
}

func TestFarm_RunAfterEndFails(t *testing.T) {
	farm := NewFarm(1, nil, testLogger())
	require.NoError(t, farm.End())

	_, err := farm.Run(context.Background(), "/app/a.js", types.Package{}, types.ProcessOptions{})
	assert.Error(t, err)
}

func TestFarm_EndIsIdempotent(t *testing.T) {
	farm := NewFarm(1, nil, testLogger())
	require.NoError(t, farm.End())
	require.NoError(t, farm.End())
}

func TestFarm_RunRespectsContextCancellation(t *testing.T) {
	farm := NewFarm(1, nil, testLogger())
	defer farm.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := farm.Run(ctx, "/app/a.js", types.Package{}, types.ProcessOptions{})
	assert.Error(t, err)
}

func TestFarm_ConcurrentJobsAllComplete(t *testing.T) {
	dir := t.TempDir()
	metrics := NewMetrics()
	farm := NewFarm(4, metrics, testLogger())
	defer farm.End()

	const n = 20
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		paths[i] = filepath.Join(dir, string(rune('a'+i%26))+".js")
		writeTestFile(t, paths[i], "const x = 1;")
	}

	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(path string) {
			_, err := farm.Run(context.Background(), path, types.Package{}, types.ProcessOptions{})
			errCh <- err
		}(paths[i])
	}

	for i := 0; i < n; i++ {
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for farm jobs to complete")
		}
	}
}
