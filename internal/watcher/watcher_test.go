package watcher

import (
	"os"
	"testing"
	"time"

	"github.com/conneroisu/bundler/internal/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionFilter(t *testing.T) {
	exts := map[string]string{".js": "script", ".css": "stylesheet"}
	filter := ExtensionFilter(exts)

	assert.True(t, filter.ShouldInclude("/app/index.js"))
	assert.True(t, filter.ShouldInclude("/app/main.css"))
	assert.False(t, filter.ShouldInclude("/app/README.md"))
	assert.False(t, filter.ShouldInclude("/app/noext"))
}

func TestNoTestFilter(t *testing.T) {
	var f interfaces.FileFilterFunc = NoTestFilter
	assert.False(t, f.ShouldInclude("/app/foo_test.go"))
	assert.True(t, f.ShouldInclude("/app/foo.go"))
}

func TestNoVendorFilter(t *testing.T) {
	var f interfaces.FileFilterFunc = NoVendorFilter
	assert.False(t, f.ShouldInclude("vendor/foo/bar.go"))
	assert.False(t, f.ShouldInclude("/app/vendor/foo/bar.go"))
	assert.True(t, f.ShouldInclude("/app/internal/bar.go"))
}

func TestNoGitFilter(t *testing.T) {
	var f interfaces.FileFilterFunc = NoGitFilter
	assert.False(t, f.ShouldInclude(".git/HEAD"))
	assert.False(t, f.ShouldInclude("/app/.git/HEAD"))
	assert.True(t, f.ShouldInclude("/app/main.go"))
}

func TestFileWatcher_AddAndRemoveImplementsWatcherInterface(t *testing.T) {
	fw, err := NewFileWatcher(50 * time.Millisecond)
	require.NoError(t, err)
	defer fw.Stop()

	var w interfaces.Watcher = fw
	// validatePath only accepts paths under the working directory.
	dir, err := os.MkdirTemp(".", "watcher-test-")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	require.NoError(t, w.Add(dir))
	require.NoError(t, w.Remove(dir))
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	fw, err := NewFileWatcher(50 * time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, fw.Stop())
	require.NoError(t, fw.Stop())
}
