// Package interfaces defines the contracts shared across the bundler's
// packages, kept separate from internal/types so implementations
// (internal/resolver, internal/build, internal/watcher, internal/notifier)
// can depend on the contract without importing each other.
package interfaces

import (
	"context"
	"time"

	"github.com/conneroisu/bundler/internal/types"
)

// FileFilter decides whether a watched path should be considered at all.
type FileFilter interface {
	ShouldInclude(path string) bool
}

// FileFilterFunc adapts a function to FileFilter.
type FileFilterFunc func(path string) bool

// ShouldInclude implements FileFilter.
func (f FileFilterFunc) ShouldInclude(path string) bool { return f(path) }

// EventType represents the type of filesystem change observed by the
// watcher.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent represents one filesystem change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// ChangeHandlerFunc reacts to a batch of change events.
type ChangeHandlerFunc func(events []ChangeEvent) error

// Resolver maps (specifier, importer) to an absolute path plus owning
// package metadata. The default implementation lives in internal/resolver;
// this interface is what the dependency graph depends on, per spec.md §6.
type Resolver interface {
	Resolve(specifier, importer string) (path string, pkg types.Package, err error)
}

// Packager concatenates and writes one bundle's contents, returning the
// hash of the written output. Registered per output type via
// PackagerRegistry in internal/bundle.
type Packager interface {
	Package(ctx context.Context, bundle Bundle, previousHashes map[string]string) (hash string, err error)
}

// Bundle is the subset of internal/bundle.Bundle a Packager needs,
// expressed as an interface here to avoid a dependency cycle between
// internal/interfaces and internal/bundle.
type Bundle interface {
	BundleType() string
	BundleName() string
	Entries() []BundleEntry
	ChildBundles() []Bundle
}

// BundleEntry is one asset's contribution to a bundle's packaged output.
type BundleEntry struct {
	AssetID AssetRef
	Path    string
	Content string
}

// AssetRef is the numeric asset identity, redeclared here (identical
// underlying type to types.AssetID) so this package does not need to
// import internal/asset.
type AssetRef = types.AssetID

// Delegate is the optional user-supplied hook for implicit dependencies:
// external metadata (e.g. a config file) that should invalidate an asset
// without being a dependency the asset's parser discovered itself.
type Delegate interface {
	GetImplicitDependencies(assetPath string) ([]types.DependencyRecord, error)
}

// NullDelegate is the default Delegate: no implicit dependencies.
type NullDelegate struct{}

// GetImplicitDependencies implements Delegate.
func (NullDelegate) GetImplicitDependencies(string) ([]types.DependencyRecord, error) {
	return nil, nil
}

// CacheStats reports cache performance counters.
type CacheStats interface {
	GetSize() int64
	GetHits() int64
	GetMisses() int64
	GetHitRate() float64
	GetEvictions() int64
	Clear()
}

// BuildMetrics reports worker-farm throughput counters. RecordJob and
// RecordCacheLookup are the two write paths: internal/build.Farm calls
// RecordJob after every worker run, and internal/graph calls
// RecordCacheLookup after every cache.Read so GetCacheHitRate reflects
// the whole pipeline rather than just the cache's own internal counters.
type BuildMetrics interface {
	RecordJob(d time.Duration, success bool)
	RecordCacheLookup(hit bool)

	GetBuildCount() int64
	GetSuccessCount() int64
	GetFailureCount() int64
	GetAverageDuration() time.Duration
	GetCacheHitRate() float64
	Reset()
}

// Notifier broadcasts an asset update set to connected clients after a
// successful rebuild (internal/notifier.Manager implements this).
type Notifier interface {
	BroadcastUpdate(ctx context.Context, assets []types.AssetEvent) error
}

// Farm runs an asset's process() pipeline in an isolated worker,
// reconstructing the asset from (path, pkg, options) alone (spec.md
// §4.3). internal/build.Farm is the default implementation; the
// dependency graph depends only on this contract.
type Farm interface {
	Run(ctx context.Context, path string, pkg types.Package, options types.ProcessOptions) (types.ProcessedResult, error)
	End() error
}

// Cache is the two-tier build cache (C5): Read validates a candidate
// entry against the file's current mtime/size and the run's option
// fingerprint before returning it; Write stores a fresh result. Cache
// I/O errors never propagate to the caller (spec.md §4.4) — a Cache
// implementation reports a miss rather than an error for any failure
// short of a canceled context.
type Cache interface {
	Read(ctx context.Context, path, fingerprint string) (types.ProcessedResult, bool, error)
	Write(ctx context.Context, path, fingerprint string, result types.ProcessedResult) error
	Invalidate(ctx context.Context, path string) error
}

// Watcher is the subset of internal/watcher.FileWatcher the dependency
// graph needs: register/unregister individual asset paths as they enter
// and leave the graph.
type Watcher interface {
	Add(path string) error
	Remove(path string) error
}
