// Package graph implements the dependency graph and load pipeline (C6):
// resolving specifiers to assets, dispatching uncached assets to the
// worker farm, and recursively loading their dependencies while
// breaking cycles and deduplicating concurrent loads of the same path.
//
// Architecturally this plays the role the teacher's registry package
// played (a thread-safe map of known items plus watcher registration),
// but the map here holds *asset.Asset keyed by absolute path and the
// graph owns the load pipeline itself; AST-level dependency analysis,
// which the teacher's registry did in-process, instead happens inside
// each asset's Variant (internal/asset), per spec.md §4.5.
package graph

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/conneroisu/bundler/internal/asset"
	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/interfaces"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/types"
)

// Graph owns the set of loaded assets and the single load pipeline that
// produces them. All mutation of loadedAssets/includedEdges happens
// under mu; the recursive fan-out across dependencies uses goroutines
// only for the I/O-bound resolve+farm-dispatch step, per spec.md §5
// ("single coordinator thread owns loadedAssets... suspension points at
// fs reads/resolver/cache/farm.run").
type Graph struct {
	mu            sync.Mutex
	loadedAssets  map[string]*asset.Asset
	includedEdges map[string]types.AssetID // Open Question #1: kept separate from loadedAssets aliasing

	registry *asset.Registry
	resolver interfaces.Resolver
	farm     interfaces.Farm
	cache    interfaces.Cache
	watcher  interfaces.Watcher
	delegate interfaces.Delegate
	metrics  interfaces.BuildMetrics // may be nil: no cache-hit-rate tracking
	options  asset.Options
	log      logging.Logger
}

// Config bundles Graph's collaborators.
type Config struct {
	Registry *asset.Registry
	Resolver interfaces.Resolver
	Farm     interfaces.Farm
	Cache    interfaces.Cache // may be nil: caching disabled
	Watcher  interfaces.Watcher // may be nil: one-shot build, no watching
	Delegate interfaces.Delegate // may be nil: defaults to interfaces.NullDelegate{}
	Metrics  interfaces.BuildMetrics // may be nil: no cache-hit-rate tracking
	Options  asset.Options
	Log      logging.Logger
}

// New constructs a Graph from its collaborators.
func New(cfg Config) *Graph {
	delegate := cfg.Delegate
	if delegate == nil {
		delegate = interfaces.NullDelegate{}
	}
	return &Graph{
		loadedAssets:  make(map[string]*asset.Asset),
		includedEdges: make(map[string]types.AssetID),
		registry:      cfg.Registry,
		resolver:      cfg.Resolver,
		farm:          cfg.Farm,
		cache:         cfg.Cache,
		watcher:       cfg.Watcher,
		delegate:      delegate,
		metrics:       cfg.Metrics,
		options:       cfg.Options,
		log:           cfg.Log.WithComponent("graph"),
	}
}

// LoadEntry resolves an entry-point file path directly (no specifier
// resolution against an importer) and runs the load pipeline on it.
func (g *Graph) LoadEntry(ctx context.Context, path string) (*asset.Asset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.IOFailed(path, "resolve-entry", err)
	}

	a := g.register(abs, types.Package{})
	if err := g.LoadAsset(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// resolveAsset resolves specifier against importer and returns the
// (possibly already-loaded) Asset, per spec.md §4.5.
func (g *Graph) resolveAsset(specifier, importer string) (*asset.Asset, error) {
	path, pkg, err := g.resolver.Resolve(specifier, importer)
	if err != nil {
		return nil, errors.ResolveFailed(specifier, importer)
	}
	return g.register(path, pkg), nil
}

// resolveDep wraps resolveAsset's failure with the dependency's source
// location so the resulting error renders a code frame.
func (g *Graph) resolveDep(rec types.DependencyRecord, importer string) (*asset.Asset, error) {
	a, err := g.resolveAsset(rec.Name, importer)
	if err != nil {
		be := errors.ResolveFailed(rec.Name, importer)
		if !rec.Loc.IsZero() {
			be = be.WithLocation(importer, rec.Loc.Line, rec.Loc.Column)
		}
		return nil, be
	}
	return a, nil
}

func (g *Graph) register(path string, pkg types.Package) *asset.Asset {
	g.mu.Lock()
	if a, ok := g.loadedAssets[path]; ok {
		g.mu.Unlock()
		return a
	}
	a := g.registry.GetAsset(path, pkg, g.options)
	g.loadedAssets[path] = a
	g.mu.Unlock()

	if g.watcher != nil {
		_ = g.watcher.Add(path)
	}
	return a
}

// LoadAsset runs a's process pipeline (via cache or the worker farm)
// and recursively loads every non-included dependency it discovers.
// Marking Processed before recursing breaks cycles: a second concurrent
// or nested call for the same asset returns immediately (spec.md §4.5,
// property 6 "idempotent dependency loading").
func (g *Graph) LoadAsset(ctx context.Context, a *asset.Asset) error {
	g.mu.Lock()
	if a.Processed {
		g.mu.Unlock()
		return nil
	}
	a.Processed = true
	g.mu.Unlock()

	result, fromCache, err := g.produce(ctx, a)
	if err != nil {
		return err
	}

	a.Generated = result.Generated
	a.Hash = result.Hash

	deps := result.Dependencies
	if implicit, err := g.delegate.GetImplicitDependencies(a.Path); err == nil {
		deps = append(deps, implicit...)
	}

	g.mu.Lock()
	for _, dep := range deps {
		if _, exists := a.Dependencies[dep.Name]; !exists {
			a.DependencyOrder = append(a.DependencyOrder, dep.Name)
		}
		a.Dependencies[dep.Name] = dep
	}
	g.mu.Unlock()

	if err := g.loadDependencies(ctx, a, deps); err != nil {
		return err
	}

	if !fromCache && g.cache != nil {
		_ = g.cache.Write(ctx, a.Path, a.Options.Fingerprint(), result)
	}
	return nil
}

func (g *Graph) loadDependencies(ctx context.Context, a *asset.Asset, deps []types.DependencyRecord) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(deps))

	for _, dep := range deps {
		dep := dep
		wg.Add(1)
		go func() {
			defer wg.Done()

			depAsset, err := g.resolveDep(dep, a.Path)
			if err != nil {
				errs <- err
				return
			}

			if dep.IncludedInParent {
				g.mu.Lock()
				g.includedEdges[dep.Name] = a.ID
				g.mu.Unlock()
				return
			}

			g.mu.Lock()
			a.DepAssets[dep.Name] = depAsset
			g.mu.Unlock()

			if err := g.LoadAsset(ctx, depAsset); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// produce obtains a's ProcessedResult from the cache, falling back to
// the worker farm on a miss (spec.md §4.4). Cache I/O errors never
// propagate; a Read error is treated as a miss.
func (g *Graph) produce(ctx context.Context, a *asset.Asset) (types.ProcessedResult, bool, error) {
	fingerprint := a.Options.Fingerprint()

	if g.cache != nil {
		result, ok, err := g.cache.Read(ctx, a.Path, fingerprint)
		if g.metrics != nil {
			g.metrics.RecordCacheLookup(ok)
		}
		if err == nil && ok {
			return result, true, nil
		}
	}

	result, err := g.farm.Run(ctx, a.Path, a.PkgInfo, a.Options)
	if err != nil {
		return types.ProcessedResult{}, false, err
	}
	return result, false, nil
}

// Invalidate clears the named asset's processed state and cache entry
// and returns it for re-loading, used by the watcher's rebuild loop
// (spec.md §4.8). It reports false if path is not part of the graph.
func (g *Graph) Invalidate(ctx context.Context, path string) (*asset.Asset, bool) {
	g.mu.Lock()
	a, ok := g.loadedAssets[path]
	g.mu.Unlock()
	if !ok {
		return nil, false
	}

	a.Invalidate()
	if g.cache != nil {
		_ = g.cache.Invalidate(ctx, path)
	}
	return a, true
}

// UnloadOrphanedAssets removes and returns every loaded asset with no
// parent bundle, called once the bundle tree has stabilized (spec.md
// §4.5's unloadOrphanedAssets()).
func (g *Graph) UnloadOrphanedAssets() []*asset.Asset {
	g.mu.Lock()
	defer g.mu.Unlock()

	var orphans []*asset.Asset
	for path, a := range g.loadedAssets {
		if a.ParentBundle == nil {
			orphans = append(orphans, a)
			delete(g.loadedAssets, path)
			if g.watcher != nil {
				_ = g.watcher.Remove(path)
			}
		}
	}
	return orphans
}

// AssetByPath returns the loaded asset at path, if any.
func (g *Graph) AssetByPath(path string) (*asset.Asset, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.loadedAssets[path]
	return a, ok
}

// Assets returns every currently loaded asset, in no particular order.
func (g *Graph) Assets() []*asset.Asset {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*asset.Asset, 0, len(g.loadedAssets))
	for _, a := range g.loadedAssets {
		out = append(out, a)
	}
	return out
}

// IncludedOwner returns the asset ID that owns the include-in-parent
// edge registered under specifier, if any.
func (g *Graph) IncludedOwner(specifier string) (types.AssetID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.includedEdges[specifier]
	return id, ok
}
