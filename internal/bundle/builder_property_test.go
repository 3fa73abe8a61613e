package bundle

import (
	"fmt"
	"testing"

	"github.com/conneroisu/bundler/internal/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestBuildTree_HoistingProperty checks the bundle tree's central
// invariant (spec.md §4.6): however many dynamic-import branches an
// asset is reachable from, after BuildTree it belongs to exactly one
// bundle of its own type — hoisting to the lowest common ancestor never
// leaves a duplicate membership behind, and never drops the asset
// entirely.
func TestBuildTree_HoistingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("a shared asset ends up in exactly one bundle regardless of branch count", prop.ForAll(
		func(branchCount int) bool {
			entry := newTestAsset("/app/index.js", "js")
			shared := newTestAsset("/app/shared.js", "js")

			for i := 0; i < branchCount; i++ {
				branch := newTestAsset(fmt.Sprintf("/app/branch%d.js", i), "js")
				link(entry, fmt.Sprintf("./branch%d.js", i), types.DependencyRecord{Dynamic: true}, branch)
				link(branch, "./shared.js", types.DependencyRecord{}, shared)
			}

			root := BuildTree(entry)
			return countMembership(root, shared) == 1
		},
		gen.IntRange(1, 12),
	))

	properties.Property("building the tree twice in a row from a clean slate is idempotent", prop.ForAll(
		func(branchCount int) bool {
			entry := newTestAsset("/app/index.js", "js")
			shared := newTestAsset("/app/shared.js", "js")

			for i := 0; i < branchCount; i++ {
				branch := newTestAsset(fmt.Sprintf("/app/branch%d.js", i), "js")
				link(entry, fmt.Sprintf("./branch%d.js", i), types.DependencyRecord{Dynamic: true}, branch)
				link(branch, "./shared.js", types.DependencyRecord{}, shared)
			}

			first := BuildTree(entry)
			firstCount := countMembership(first, shared)

			entry.InvalidateBundle()
			shared.InvalidateBundle()
			for _, specifier := range entry.DependencyOrder {
				if b, ok := entry.DepAssets[specifier]; ok {
					b.InvalidateBundle()
				}
			}

			second := BuildTree(entry)
			secondCount := countMembership(second, shared)

			return firstCount == 1 && secondCount == 1
		},
		gen.IntRange(1, 12),
	))

	properties.TestingRun(t)
}
