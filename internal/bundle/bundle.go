// Package bundle implements the bundle tree (C7) and packaging:
// grouping loaded assets into per-type output bundles, hoisting assets
// shared across dynamic-import boundaries to their lowest common
// ancestor, and concatenating each bundle's member outputs into a
// written file.
package bundle

import (
	"path/filepath"
	"strings"

	"github.com/conneroisu/bundler/internal/asset"
	"github.com/conneroisu/bundler/internal/interfaces"
)

// Bundle is one node of the output tree: a same-type group of assets
// reachable from one entry point without crossing a dynamic-import
// boundary. Dynamic imports spawn a child Bundle; different asset types
// reachable from the same tree position (e.g. a script importing a
// stylesheet) become sibling bundles sharing that position.
//
// The bundle tree is built by a single coordinator goroutine in one
// pass after the dependency graph has stabilized (spec.md §4.6), so
// Bundle carries no locking of its own.
type Bundle struct {
	bundleType string
	name       string
	entryAsset *asset.Asset

	assetOrder []*asset.Asset
	assetSet   map[*asset.Asset]struct{}

	parentBundle   *Bundle
	childBundles   []*Bundle
	siblingBundles map[string]*Bundle
}

func newBundle(bundleType, baseName string, entry *asset.Asset, parent *Bundle) *Bundle {
	b := &Bundle{
		bundleType:   bundleType,
		name:         baseName + "." + bundleType,
		entryAsset:   entry,
		assetSet:     make(map[*asset.Asset]struct{}),
		parentBundle: parent,
	}
	b.siblingBundles = map[string]*Bundle{bundleType: b}
	return b
}

// BundleType implements interfaces.Bundle.
func (b *Bundle) BundleType() string { return b.bundleType }

// BundleName implements interfaces.Bundle.
func (b *Bundle) BundleName() string { return b.name }

// Entries implements interfaces.Bundle, returning each member asset's
// contribution to this bundle's output type in insertion order.
func (b *Bundle) Entries() []interfaces.BundleEntry {
	out := make([]interfaces.BundleEntry, 0, len(b.assetOrder))
	for _, a := range b.assetOrder {
		out = append(out, interfaces.BundleEntry{
			AssetID: a.ID,
			Path:    a.Path,
			Content: a.Generated[b.bundleType],
		})
	}
	return out
}

// ChildBundles implements interfaces.Bundle.
func (b *Bundle) ChildBundles() []interfaces.Bundle {
	out := make([]interfaces.Bundle, 0, len(b.childBundles))
	for _, c := range b.childBundles {
		out = append(out, c)
	}
	return out
}

// Parent returns the bundle-tree parent (nil for the root), used by
// the packager to write children before propagating hashes upward.
func (b *Bundle) Parent() *Bundle { return b.parentBundle }

func (b *Bundle) addAsset(a *asset.Asset) {
	if _, ok := b.assetSet[a]; ok {
		return
	}
	b.assetSet[a] = struct{}{}
	b.assetOrder = append(b.assetOrder, a)
}

func (b *Bundle) removeAsset(a *asset.Asset) {
	if _, ok := b.assetSet[a]; !ok {
		return
	}
	delete(b.assetSet, a)
	for i, cur := range b.assetOrder {
		if cur == a {
			b.assetOrder = append(b.assetOrder[:i], b.assetOrder[i+1:]...)
			break
		}
	}
}

// getSiblingBundle returns the bundle of bundleType positioned alongside
// b (same tree node), creating it on first request. Sibling bundles
// share one underlying map so a lookup from any of them sees every
// sibling created so far.
func (b *Bundle) getSiblingBundle(bundleType string) *Bundle {
	if sib, ok := b.siblingBundles[bundleType]; ok {
		return sib
	}
	base := strings.TrimSuffix(filepath.Base(b.entryAsset.Path), filepath.Ext(b.entryAsset.Path))
	sib := &Bundle{
		bundleType:     bundleType,
		name:           base + "." + bundleType,
		entryAsset:     b.entryAsset,
		assetSet:       make(map[*asset.Asset]struct{}),
		parentBundle:   b.parentBundle,
		siblingBundles: b.siblingBundles,
	}
	b.siblingBundles[bundleType] = sib
	return sib
}
