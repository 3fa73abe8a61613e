// Package errors provides the bundler's structured error taxonomy: a single
// BundlerError type carrying a classification, a code, file/line/column
// location, and an optional cause, plus constructors (ResolveFailed, ...) matching each
// error kind from the error handling design.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a BundlerError into one of the kinds the pipeline
// distinguishes when deciding whether to continue a watch-mode rebuild.
type ErrorType string

const (
	ErrorTypeResolveFailed   ErrorType = "resolve_failed"
	ErrorTypeParseFailed     ErrorType = "parse_failed"
	ErrorTypeTransformFailed ErrorType = "transform_failed"
	ErrorTypeWorkerCrashed   ErrorType = "worker_crashed"
	ErrorTypeIOFailed        ErrorType = "io_failed"
	ErrorTypeConfigLocked    ErrorType = "config_locked"
	ErrorTypeFarmClosed      ErrorType = "farm_closed"
)

// Error codes, one per ErrorType plus a couple of finer-grained IO codes.
const (
	ErrCodeResolveFailed   = "ERR_RESOLVE_FAILED"
	ErrCodeParseFailed     = "ERR_PARSE_FAILED"
	ErrCodeTransformFailed = "ERR_TRANSFORM_FAILED"
	ErrCodeWorkerCrashed   = "ERR_WORKER_CRASHED"
	ErrCodeIOFailed        = "ERR_IO_FAILED"
	ErrCodeConfigLocked    = "ERR_CONFIG_LOCKED"
	ErrCodeFarmClosed      = "ERR_FARM_CLOSED"
)

// BundlerError is a structured error carrying enough context to be
// pretty-printed with a file path, line/column, and a source snippet.
type BundlerError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Line        int
	Column      int
	Recoverable bool
}

// Error implements the error interface.
func (e *BundlerError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Component != "" {
		parts = append(parts, "asset:"+e.Component)
	}
	if e.FilePath != "" {
		loc := e.FilePath
		if e.Line > 0 {
			loc += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				loc += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, loc)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause, if any.
func (e *BundlerError) Unwrap() error { return e.Cause }

// Is compares two BundlerErrors by type and code.
func (e *BundlerError) Is(target error) bool {
	var t *BundlerError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext attaches a key/value pair of diagnostic context.
func (e *BundlerError) WithContext(key string, value interface{}) *BundlerError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithLocation attaches a source file location.
func (e *BundlerError) WithLocation(filePath string, line, column int) *BundlerError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column
	return e
}

// WithComponent attaches the asset path this error concerns.
func (e *BundlerError) WithComponent(component string) *BundlerError {
	e.Component = component
	return e
}

// IsRecoverable reports whether err is a BundlerError marked recoverable.
func IsRecoverable(err error) bool {
	var be *BundlerError
	if errors.As(err, &be) {
		return be.Recoverable
	}
	return false
}

// Is reports whether err is a BundlerError of the given type.
func Is(err error, t ErrorType) bool {
	var be *BundlerError
	if errors.As(err, &be) {
		return be.Type == t
	}
	return false
}
