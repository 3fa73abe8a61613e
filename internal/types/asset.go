// Package types provides the value types shared across the bundler's
// packages, kept separate to avoid import cycles between internal/asset,
// internal/graph, internal/bundle and internal/build.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// AssetID is a stable per-process numeric identity for an Asset, assigned
// on first resolution and never reused.
type AssetID uint64

// DependencyRecord describes one edge out of an asset, keyed by the
// specifier the asset used to reference it (e.g. "./foo.js").
type DependencyRecord struct {
	// Name is the specifier as written in the source (also the map key
	// in Asset.Dependencies; duplicated here so DependencyRecord is
	// self-contained when passed across the worker boundary).
	Name string
	// Dynamic marks a split point: the dependency becomes the root of a
	// new child bundle rather than being inlined into the current one.
	Dynamic bool
	// IncludedInParent marks that the dependency's content is already
	// inlined into the parent's generated output and must not be written
	// as a separate bundle entry. The graph records the owning asset
	// (Graph.IncludedOwner) but never loads or bundles the dependency,
	// and invalidating it does not invalidate the parent.
	IncludedInParent bool
	// URLIsAssetBoundary distinguishes font/image url() references
	// (true, set by addURLDependency together with Dynamic) from markup
	// <script src>/<link href> references (false). The bundle-tree
	// builder splits on Dynamic alone and does not read this field.
	URLIsAssetBoundary bool
	// Loc is the best-effort source location of the reference, used to
	// render a code frame in resolve failures. Line/Column are 1-based;
	// zero means unknown.
	Loc SourceLocation
}

// SourceLocation is a best-effort position within a source file.
type SourceLocation struct {
	Line   int
	Column int
}

// IsZero reports whether the location carries no information.
func (l SourceLocation) IsZero() bool { return l.Line == 0 && l.Column == 0 }

// ProcessedResult is the pure output of running an asset through
// load -> parse -> collect -> transform -> generate. It is the value
// returned by a worker-farm job and the value stored in the cache.
type ProcessedResult struct {
	// Generated maps output type ("js", "css", "html", ...) to the
	// emitted artifact for that type.
	Generated map[string]string
	// Hash is the hex digest of the concatenated generated outputs.
	Hash string
	// Dependencies is the ordered list of edges discovered while
	// collecting this asset's dependencies.
	Dependencies []DependencyRecord
}

// ProcessOptions carries the subset of bundler configuration that
// affects how an asset transforms, and that a worker needs to
// reconstruct a parser registry from scratch (spec.md §4.3). Declared
// here, rather than in internal/asset, so internal/interfaces can name
// it in the Farm/Cache contracts without importing internal/asset.
type ProcessOptions struct {
	Minify     bool
	Production bool
	PublicURL  string
	Extensions map[string]string
}

// Fingerprint hashes the subset of options that affect transform output,
// used by the cache to invalidate entries when a run changes minify,
// production, publicURL, or the set of registered extensions
// (spec.md §4.4).
func (o ProcessOptions) Fingerprint() string {
	keys := make([]string, 0, len(o.Extensions))
	for k := range o.Extensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "minify=%v;production=%v;publicURL=%s", o.Minify, o.Production, o.PublicURL)
	for _, k := range keys {
		fmt.Fprintf(&b, ";ext[%s]=%s", k, o.Extensions[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// Package is the opaque handle the resolver attaches to every asset,
// carrying manifest/directory context passed through to transforms.
type Package struct {
	Name    string
	Version string
	RootDir string
}

// EventType classifies an AssetEvent.
type EventType string

const (
	EventTypeAdded   EventType = "added"
	EventTypeUpdated EventType = "updated"
	EventTypeRemoved EventType = "removed"
)

// AssetEvent is built by the watcher's rebuild Coordinator for every
// asset it reprocessed (EventTypeUpdated) or swept as an orphan
// (EventTypeRemoved). It drives the update notifier's live-reload
// broadcast.
type AssetEvent struct {
	Type      EventType
	AssetID   AssetID
	Path      string
	Generated map[string]string
	Deps      map[string]AssetID
	Timestamp time.Time
}
