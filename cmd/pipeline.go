package cmd

import (
	"fmt"

	"github.com/conneroisu/bundler/internal/asset"
	"github.com/conneroisu/bundler/internal/build"
	"github.com/conneroisu/bundler/internal/bundle"
	"github.com/conneroisu/bundler/internal/config"
	"github.com/conneroisu/bundler/internal/graph"
	"github.com/conneroisu/bundler/internal/interfaces"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/resolver"
)

// runtime bundles the collaborators one build/watch/graph invocation
// wires together, so every subcommand shares exactly one assembly path
// rather than three divergent copies of it.
type runtime struct {
	graph     *graph.Graph
	farm      *build.Farm
	cache     *build.Cache
	metrics   *build.Metrics
	packagers *bundle.PackagerRegistry
	registry  *asset.Registry
}

// newRuntime assembles the resolver, asset registry, worker farm, build
// cache, and dependency graph from cfg. w is the interfaces.Watcher the
// graph registers newly loaded assets with; pass nil for a one-shot
// build that never watches.
func newRuntime(cfg *config.Config, log logging.Logger, w interfaces.Watcher) (*runtime, error) {
	registry := asset.NewRegistry()
	registry.Lock()

	metrics := build.NewMetrics()
	farm := build.NewFarm(cfg.Workers, metrics, log)

	var cache *build.Cache
	var gcache interfaces.Cache
	if cfg.Cache {
		c, err := build.NewCache(cfg.CacheDir, 4096, 0)
		if err != nil {
			farm.End()
			return nil, fmt.Errorf("open build cache at %s: %w", cfg.CacheDir, err)
		}
		cache = c
		gcache = c
	}

	res := resolver.NewNodeResolver(nil, !cfg.Production)

	options := asset.Options{
		Minify:     cfg.Minify,
		Production: cfg.Production,
		PublicURL:  cfg.PublicURL,
		Extensions: registry.Snapshot(),
	}

	g := graph.New(graph.Config{
		Registry: registry,
		Resolver: res,
		Farm:     farm,
		Cache:    gcache,
		Watcher:  w,
		Metrics:  metrics,
		Options:  options,
		Log:      log,
	})

	return &runtime{
		graph:     g,
		farm:      farm,
		cache:     cache,
		metrics:   metrics,
		packagers: bundle.NewPackagerRegistry(cfg.OutDir),
		registry:  registry,
	}, nil
}

// Close shuts down the worker farm. Safe to call once per runtime.
func (r *runtime) Close() error {
	return r.farm.End()
}
