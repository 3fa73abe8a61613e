package errors

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_IncludesTypeMessageComponentAndCause(t *testing.T) {
	e := (&BundlerError{
		Type:    ErrorTypeTransformFailed,
		Message: "plugin raised",
		Cause:   stderrors.New("nil pointer"),
	}).WithComponent("/app/a.js")

	out := Render(e)
	assert.Contains(t, out, string(ErrorTypeTransformFailed))
	assert.Contains(t, out, "plugin raised")
	assert.Contains(t, out, "in /app/a.js")
	assert.Contains(t, out, "caused by: nil pointer")
}

func TestRender_IncludesCodeFrameWhenFileAndLineResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(path, []byte("const a = 1;\nconst b = ;\nconst c = 3;\n"), 0o644))

	e := (&BundlerError{Type: ErrorTypeParseFailed, Message: "unexpected token"}).WithLocation(path, 2, 11)

	out := Render(e)
	assert.Contains(t, out, path+":2:11")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "const b = ;")
	assert.Contains(t, out, "^")
}

func TestRender_OmitsCodeFrameWhenFileUnreadable(t *testing.T) {
	e := (&BundlerError{Type: ErrorTypeIOFailed, Message: "boom"}).WithLocation("/does/not/exist.js", 1, 1)
	out := Render(e)
	assert.Contains(t, out, "/does/not/exist.js:1:1")
	assert.NotContains(t, out, " | ")
}

func TestCodeFrame_ReturnsEmptyForZeroLine(t *testing.T) {
	assert.Empty(t, codeFrame("/does/not/matter.js", 0, 0))
}

func TestCodeFrame_ReturnsEmptyWhenLineExceedsFileLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(path, []byte("only one line"), 0o644))
	assert.Empty(t, codeFrame(path, 50, 0))
}

func TestCodeFrame_ClampsContextWindowAtFileBoundaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(path, []byte("line1\nline2\n"), 0o644))

	frame := codeFrame(path, 1, 0)
	assert.Contains(t, frame, "line1")
	assert.Contains(t, frame, "line2")
	assert.NotContains(t, frame, "^")
}
