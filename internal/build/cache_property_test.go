package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/bundler/internal/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestCache_RoundTripProperty checks the invariant spec.md §4.4 requires
// of the build cache: writing a result for a given (path, fingerprint)
// and immediately reading it back under the same fingerprint always
// returns that exact result, for arbitrary hash/content strings and
// arbitrary source file contents (which changes the file's size but
// never its mtime between Write and Read in the same property run).
func TestCache_RoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"), 256, 0)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	src := filepath.Join(dir, "a.js")

	properties.Property("write then read under the same fingerprint returns the written result", prop.ForAll(
		func(hash, fingerprint, content string) bool {
			if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
				return false
			}

			ctx := context.Background()
			result := types.ProcessedResult{Generated: map[string]string{"js": content}, Hash: hash}
			if err := cache.Write(ctx, src, fingerprint, result); err != nil {
				return false
			}

			got, ok, err := cache.Read(ctx, src, fingerprint)
			if err != nil || !ok {
				return false
			}
			return got.Hash == hash && got.Generated["js"] == content
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestCache_DifferentFingerprintIsAlwaysAMiss checks the other half of
// the same invariant: a read under any fingerprint that doesn't match
// what was written is always a miss, never a (wrong) hit.
func TestCache_DifferentFingerprintIsAlwaysAMiss(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	dir := t.TempDir()
	cache, err := NewCache(filepath.Join(dir, "cache"), 256, 0)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	src := filepath.Join(dir, "a.js")
	if err := os.WriteFile(src, []byte("const a = 1;"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	properties.Property("a mismatched fingerprint is always a miss", prop.ForAll(
		func(writeFp, readFp string) bool {
			if writeFp == readFp {
				return true
			}
			ctx := context.Background()
			if err := cache.Write(ctx, src, writeFp, types.ProcessedResult{Hash: "h"}); err != nil {
				return false
			}
			_, ok, err := cache.Read(ctx, src, readFp)
			return err == nil && !ok
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
