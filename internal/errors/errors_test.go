package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBundlerError_ErrorFormatsCodeComponentLocationAndCause(t *testing.T) {
	cause := stderrors.New("boom")
	e := (&BundlerError{
		Type:    ErrorTypeParseFailed,
		Code:    ErrCodeParseFailed,
		Message: "unexpected token",
		Cause:   cause,
	}).WithComponent("script").WithLocation("/app/a.js", 3, 5)

	got := e.Error()
	assert.Contains(t, got, "[ERR_PARSE_FAILED]")
	assert.Contains(t, got, "asset:script")
	assert.Contains(t, got, "/app/a.js:3:5")
	assert.Contains(t, got, "unexpected token")
	assert.Contains(t, got, "boom")
}

func TestBundlerError_ErrorOmitsAbsentFields(t *testing.T) {
	e := &BundlerError{Message: "plain"}
	assert.Equal(t, "plain", e.Error())
}

func TestBundlerError_UnwrapReturnsCause(t *testing.T) {
	cause := stderrors.New("root cause")
	e := &BundlerError{Cause: cause}
	assert.Same(t, cause, e.Unwrap())
}

func TestBundlerError_IsComparesTypeAndCode(t *testing.T) {
	a := &BundlerError{Type: ErrorTypeIOFailed, Code: ErrCodeIOFailed}
	b := &BundlerError{Type: ErrorTypeIOFailed, Code: ErrCodeIOFailed}
	c := &BundlerError{Type: ErrorTypeParseFailed, Code: ErrCodeParseFailed}

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
	assert.False(t, a.Is(stderrors.New("not a bundler error")))
}

func TestWithContext_AttachesKeyValue(t *testing.T) {
	e := &BundlerError{}
	e.WithContext("specifier", "./a.js")
	assert.Equal(t, "./a.js", e.Context["specifier"])
}

func TestIsRecoverable_TrueOnlyForRecoverableBundlerErrors(t *testing.T) {
	assert.True(t, IsRecoverable(ResolveFailed("./a.js", "/app/b.js")))
	assert.True(t, IsRecoverable(ParseFailed("/app/a.js", 1, 1, nil)))
	assert.True(t, IsRecoverable(TransformFailed("/app/a.js", nil)))
	assert.True(t, IsRecoverable(WorkerCrashed("/app/a.js", nil)))
	assert.False(t, IsRecoverable(IOFailed("/app/a.js", "read", nil)))
	assert.False(t, IsRecoverable(ConfigLocked("register extension .foo")))
	assert.False(t, IsRecoverable(FarmClosed()))
	assert.False(t, IsRecoverable(stderrors.New("plain error")))
}

func TestIs_MatchesByErrorType(t *testing.T) {
	err := ConfigLocked("register extension .foo")
	assert.True(t, Is(err, ErrorTypeConfigLocked))
	assert.False(t, Is(err, ErrorTypeFarmClosed))
	assert.False(t, Is(stderrors.New("plain"), ErrorTypeConfigLocked))
}

func TestResolveFailed_OmitsComponentWhenImporterIsEmpty(t *testing.T) {
	e := ResolveFailed("./missing.js", "")
	assert.Empty(t, e.Component)
	assert.Contains(t, e.Error(), "could not resolve ./missing.js")
}

func TestResolveFailed_AttachesImporterAndSpecifierContext(t *testing.T) {
	e := ResolveFailed("./missing.js", "/app/index.js")
	assert.Equal(t, "/app/index.js", e.Component)
	assert.Equal(t, "./missing.js", e.Context["specifier"])
}
