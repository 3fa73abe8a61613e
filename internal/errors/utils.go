package errors

// ResolveFailed reports that the resolver could not locate a module for
// the given specifier, optionally annotated with the importing asset.
func ResolveFailed(specifier, importer string) *BundlerError {
	e := &BundlerError{
		Type:        ErrorTypeResolveFailed,
		Code:        ErrCodeResolveFailed,
		Message:     "could not resolve " + specifier,
		Recoverable: true,
	}
	if importer != "" {
		e.WithComponent(importer).WithContext("specifier", specifier)
	}
	return e
}

// ParseFailed reports that a variant's parser rejected its input.
func ParseFailed(path string, line, column int, cause error) *BundlerError {
	return (&BundlerError{
		Type:        ErrorTypeParseFailed,
		Code:        ErrCodeParseFailed,
		Message:     "parse failed",
		Cause:       cause,
		Recoverable: true,
	}).WithLocation(path, line, column)
}

// TransformFailed reports that a user-configured transform plugin raised.
func TransformFailed(path string, cause error) *BundlerError {
	return (&BundlerError{
		Type:        ErrorTypeTransformFailed,
		Code:        ErrCodeTransformFailed,
		Message:     "transform failed",
		Cause:       cause,
		Recoverable: true,
	}).WithComponent(path)
}

// WorkerCrashed reports that a worker died or returned a malformed result.
// Recoverable: the caller retries the job once before surfacing it.
func WorkerCrashed(path string, cause error) *BundlerError {
	return (&BundlerError{
		Type:        ErrorTypeWorkerCrashed,
		Code:        ErrCodeWorkerCrashed,
		Message:     "worker crashed while processing asset",
		Cause:       cause,
		Recoverable: true,
	}).WithComponent(path)
}

// IOFailed reports a filesystem error during read/write/mkdir.
func IOFailed(path, op string, cause error) *BundlerError {
	return (&BundlerError{
		Type:        ErrorTypeIOFailed,
		Code:        ErrCodeIOFailed,
		Message:     "io failed during " + op,
		Cause:       cause,
		Recoverable: false,
	}).WithComponent(path)
}

// ConfigLocked reports an attempt to register an extension or packager
// after bundling has begun.
func ConfigLocked(what string) *BundlerError {
	return &BundlerError{
		Type:        ErrorTypeConfigLocked,
		Code:        ErrCodeConfigLocked,
		Message:     "configuration is locked, cannot register " + what,
		Recoverable: false,
	}
}

// FarmClosed reports farm use after teardown.
func FarmClosed() *BundlerError {
	return &BundlerError{
		Type:        ErrorTypeFarmClosed,
		Code:        ErrCodeFarmClosed,
		Message:     "worker farm is closed",
		Recoverable: false,
	}
}
