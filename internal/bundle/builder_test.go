package bundle

import (
	"fmt"
	"testing"

	"github.com/conneroisu/bundler/internal/asset"
	"github.com/conneroisu/bundler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAsset(path, assetType string) *asset.Asset {
	a := asset.NewScriptAsset(path, types.Package{Name: "app"}, asset.Options{})
	a.AssetType = assetType
	a.Generated = map[string]string{assetType: path + "-content"}
	return a
}

func link(parent *asset.Asset, specifier string, dep types.DependencyRecord, child *asset.Asset) {
	dep.Name = specifier
	parent.Dependencies[specifier] = dep
	parent.DependencyOrder = append(parent.DependencyOrder, specifier)
	parent.DepAssets[specifier] = child
}

func TestBuildTree_SimpleChainStaysInOneBundle(t *testing.T) {
	entry := newTestAsset("/app/index.js", "js")
	dep := newTestAsset("/app/dep.js", "js")
	link(entry, "./dep.js", types.DependencyRecord{}, dep)

	root := BuildTree(entry)

	assert.Equal(t, "js", root.BundleType())
	assert.Contains(t, root.assetOrder, entry)
	assert.Contains(t, root.assetOrder, dep)
}

func TestBuildTree_DynamicDependencySpawnsChildBundle(t *testing.T) {
	entry := newTestAsset("/app/index.js", "js")
	lazy := newTestAsset("/app/lazy.js", "js")
	link(entry, "./lazy.js", types.DependencyRecord{Dynamic: true}, lazy)

	root := BuildTree(entry)

	require.Len(t, root.childBundles, 1)
	child := root.childBundles[0]
	assert.Contains(t, child.assetOrder, lazy)
	assert.NotContains(t, root.assetOrder, lazy)
}

func TestBuildTree_SharedAssetHoistsToLowestCommonAncestor(t *testing.T) {
	entry := newTestAsset("/app/index.js", "js")
	branchA := newTestAsset("/app/a.js", "js")
	branchB := newTestAsset("/app/b.js", "js")
	shared := newTestAsset("/app/shared.js", "js")

	link(entry, "./a.js", types.DependencyRecord{Dynamic: true}, branchA)
	link(entry, "./b.js", types.DependencyRecord{Dynamic: true}, branchB)
	link(branchA, "./shared.js", types.DependencyRecord{}, shared)
	link(branchB, "./shared.js", types.DependencyRecord{}, shared)

	root := BuildTree(entry)

	require.Len(t, root.childBundles, 2)
	assert.Contains(t, root.assetOrder, shared, "an asset reachable from two dynamic-import branches should hoist to their common ancestor")
	for _, child := range root.childBundles {
		assert.NotContains(t, child.assetOrder, shared, "the hoisted asset must not remain in either original branch bundle")
	}

	count := 0
	for b := range shared.Bundles {
		_ = b
		count++
	}
	assert.Equal(t, 1, count, "a hoisted asset belongs to exactly one bundle of its own type")
}

func TestBuildTree_MixedTypeDependencyJoinsTypeSibling(t *testing.T) {
	entry := newTestAsset("/app/index.js", "js")
	style := newTestAsset("/app/main.css", "css")
	link(entry, "./main.css", types.DependencyRecord{}, style)

	root := BuildTree(entry)

	sib := root.getSiblingBundle("css")
	assert.Contains(t, sib.assetOrder, style)
	assert.NotContains(t, root.assetOrder, style)
}

// walkBundles visits every bundle reachable from root (children and
// type siblings), each exactly once.
func walkBundles(root *Bundle, visit func(*Bundle)) {
	seen := make(map[*Bundle]struct{})
	var walk func(b *Bundle)
	walk = func(b *Bundle) {
		if _, ok := seen[b]; ok {
			return
		}
		seen[b] = struct{}{}
		visit(b)
		for _, sib := range b.siblingBundles {
			walk(sib)
		}
		for _, c := range b.childBundles {
			walk(c)
		}
	}
	walk(root)
}

func countMembership(root *Bundle, a *asset.Asset) int {
	count := 0
	walkBundles(root, func(b *Bundle) {
		if _, ok := b.assetSet[a]; ok {
			count++
		}
	})
	return count
}

// TestBuildTree_SharedAssetNeverDuplicatesAcrossBranches is a
// table-driven stand-in for a property test: for every branch-count
// between 2 and 6, an asset shared by every branch must end up a
// member of exactly one bundle once the tree settles, regardless of
// how many dynamic-import branches reach it.
func TestBuildTree_SharedAssetNeverDuplicatesAcrossBranches(t *testing.T) {
	for branches := 2; branches <= 6; branches++ {
		branches := branches
		t.Run(fmt.Sprintf("branches=%d", branches), func(t *testing.T) {
			entry := newTestAsset("/app/index.js", "js")
			shared := newTestAsset("/app/shared.js", "js")

			for i := 0; i < branches; i++ {
				branch := newTestAsset(fmt.Sprintf("/app/branch%d.js", i), "js")
				link(entry, fmt.Sprintf("./branch%d.js", i), types.DependencyRecord{Dynamic: true}, branch)
				link(branch, "./shared.js", types.DependencyRecord{}, shared)
			}

			root := BuildTree(entry)
			assert.Equal(t, 1, countMembership(root, shared))
		})
	}
}
