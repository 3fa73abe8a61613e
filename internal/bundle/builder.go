package bundle

import (
	"path/filepath"
	"strings"

	"github.com/conneroisu/bundler/internal/asset"
	"github.com/conneroisu/bundler/internal/types"
)

// BuildTree constructs the bundle tree rooted at entry, walking the
// dependency graph that LoadAsset populated on each asset's DepAssets.
// Every asset must have had InvalidateBundle called beforehand (the
// coordinator does this for the whole graph before rebuilding the tree)
// so stale bundle membership from a previous build doesn't leak in.
func BuildTree(entry *asset.Asset) *Bundle {
	return createBundleTree(entry, types.DependencyRecord{}, nil)
}

// createBundleTree implements spec.md §4.6's eight-step procedure:
//  1. record the incoming dependency edge in the asset's ParentDeps
//  2. if the asset already belongs to a different tree position, hoist
//     it to the lowest common ancestor of the two positions
//  3. create the root bundle on the first call
//  4. a dynamic dependency spawns a child bundle
//  5. the asset joins the sibling bundle matching its own type
//  6. if the asset also generated output for the position's own type,
//     it joins that bundle too
//  7. record the asset's bundle membership
//  8. recurse into its dependencies, in discovery order
func createBundleTree(a *asset.Asset, dep types.DependencyRecord, parent *Bundle) *Bundle {
	a.ParentDeps = append(a.ParentDeps, dep)

	position := parent
	switch {
	case position == nil:
		position = newBundle(a.AssetType, baseNameOf(a.Path), a, nil)
	case dep.Dynamic && a.ParentBundle == nil:
		child := newBundle(a.AssetType, baseNameOf(a.Path), a, position)
		position.childBundles = append(position.childBundles, child)
		position = child
	}

	if existing, ok := a.ParentBundle.(*Bundle); ok && existing != nil {
		if existing != position {
			if lca := findCommonAncestor(existing, position); lca != nil {
				if lca.bundleType == existing.bundleType {
					moveAssetToBundle(a, lca.getSiblingBundle(a.AssetType))
				}
				// A type mismatch at the LCA means no bundle there can
				// hold this asset's output; it stays where it is.
			}
		}
		return existing
	}

	target := position.getSiblingBundle(a.AssetType)
	target.addAsset(a)
	a.Bundles[target] = struct{}{}

	if content, ok := a.Generated[position.bundleType]; ok && content != "" && position != target {
		position.addAsset(a)
		a.Bundles[position] = struct{}{}
	}
	a.ParentBundle = target

	for _, specifier := range a.DependencyOrder {
		depRec := a.Dependencies[specifier]
		if depRec.IncludedInParent {
			continue
		}
		if depAsset, ok := a.DepAssets[specifier]; ok {
			createBundleTree(depAsset, depRec, position)
		}
	}

	return target
}

// findCommonAncestor walks both bundles' parentBundle chains to find
// their deepest shared ancestor in the dynamic-import tree.
func findCommonAncestor(a, b *Bundle) *Bundle {
	ancestors := make(map[*Bundle]struct{})
	for cur := a; cur != nil; cur = cur.parentBundle {
		ancestors[cur] = struct{}{}
	}
	for cur := b; cur != nil; cur = cur.parentBundle {
		if _, ok := ancestors[cur]; ok {
			return cur
		}
	}
	return nil
}

// moveAssetToBundle relocates a shared asset from its current bundle to
// newBundle, used when hoisting finds the asset reachable from two
// different dynamic-import branches.
func moveAssetToBundle(a *asset.Asset, newBundle *Bundle) {
	if old, ok := a.ParentBundle.(*Bundle); ok && old != nil && old != newBundle {
		old.removeAsset(a)
		delete(a.Bundles, old)
	}
	newBundle.addAsset(a)
	a.Bundles[newBundle] = struct{}{}
	a.ParentBundle = newBundle
}

func baseNameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
