package watcher

import (
	"context"
	"time"

	"github.com/conneroisu/bundler/internal/bundle"
	"github.com/conneroisu/bundler/internal/graph"
	"github.com/conneroisu/bundler/internal/interfaces"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/types"
)

// Coordinator wires a FileWatcher's debounced change batches into the
// targeted rebuild loop spec.md §4.8 describes: for each changed path
// already present in the graph, invalidate its cache entry and
// asset.Process result, re-run the load pipeline from that asset alone,
// then repackage the whole bundle tree and broadcast the changed and
// newly orphaned assets before the graph is considered stable again. A
// path the graph never loaded is ignored outright.
type Coordinator struct {
	fw        *FileWatcher
	graph     *graph.Graph
	entry     string
	packagers *bundle.PackagerRegistry
	notifier  interfaces.Notifier
	log       logging.Logger
}

// NewCoordinator builds a Coordinator and registers it as fw's change
// handler. entry is the absolute path of the graph's entry asset, used
// to rebuild the bundle tree after every change batch. notifier may be
// nil (no live-reload broadcast, e.g. a one-shot watch-and-log mode).
func NewCoordinator(fw *FileWatcher, g *graph.Graph, entry string, packagers *bundle.PackagerRegistry, notifier interfaces.Notifier, log logging.Logger) *Coordinator {
	c := &Coordinator{
		fw:        fw,
		graph:     g,
		entry:     entry,
		packagers: packagers,
		notifier:  notifier,
		log:       log.WithComponent("rebuild"),
	}
	fw.AddHandler(c.handle)
	return c
}

func (c *Coordinator) handle(events []ChangeEvent) error {
	ctx := context.Background()

	var changed []types.AssetEvent
	for _, ev := range events {
		a, ok := c.graph.Invalidate(ctx, ev.Path)
		if !ok {
			// Not part of the graph: ignore, per spec.md §4.8.
			continue
		}

		if err := c.graph.LoadAsset(ctx, a); err != nil {
			c.log.Error(ctx, err, "rebuild failed", "path", ev.Path)
			continue
		}

		changed = append(changed, types.AssetEvent{
			Type:      types.EventTypeUpdated,
			AssetID:   a.ID,
			Path:      a.Path,
			Generated: a.Generated,
			Timestamp: time.Now(),
		})
	}

	if len(changed) == 0 {
		return nil
	}

	if err := c.repackage(ctx); err != nil {
		c.log.Error(ctx, err, "repackage after rebuild failed")
		return err
	}

	for _, o := range c.graph.UnloadOrphanedAssets() {
		changed = append(changed, types.AssetEvent{
			Type:      types.EventTypeRemoved,
			AssetID:   o.ID,
			Path:      o.Path,
			Timestamp: time.Now(),
		})
	}

	if c.notifier == nil {
		return nil
	}
	return c.notifier.BroadcastUpdate(ctx, changed)
}

func (c *Coordinator) repackage(ctx context.Context) error {
	entryAsset, ok := c.graph.AssetByPath(c.entry)
	if !ok {
		return nil
	}

	for _, a := range c.graph.Assets() {
		a.InvalidateBundle()
	}
	tree := bundle.BuildTree(entryAsset)
	_, err := bundle.PackageTree(ctx, tree, c.packagers)
	return err
}
