package bundle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/interfaces"
	"golang.org/x/net/html"
)

// PackagerRegistry maps a bundle type to the interfaces.Packager that
// writes it, falling back to a raw byte-for-byte packager for any type
// without a dedicated one (every binary/font/image extension a
// BinaryAsset might emit) — spec.md §4.7's "type-specific Packager".
type PackagerRegistry struct {
	mu        sync.RWMutex
	packagers map[string]interfaces.Packager
	fallback  interfaces.Packager
}

// NewPackagerRegistry builds a registry with the default js/css/html
// concatenating packagers and a raw fallback, writing under outDir.
func NewPackagerRegistry(outDir string) *PackagerRegistry {
	return &PackagerRegistry{
		packagers: map[string]interfaces.Packager{
			"js":   &concatPackager{outDir: outDir, joiner: "\n;\n"},
			"css":  &concatPackager{outDir: outDir, joiner: "\n"},
			"html": &htmlPackager{outDir: outDir},
		},
		fallback: &rawPackager{outDir: outDir},
	}
}

// Register installs a Packager for bundleType, overriding the default
// if one already exists.
func (r *PackagerRegistry) Register(bundleType string, p interfaces.Packager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packagers[bundleType] = p
}

// Get returns the Packager for bundleType, or the raw fallback.
func (r *PackagerRegistry) Get(bundleType string) interfaces.Packager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.packagers[bundleType]; ok {
		return p
	}
	return r.fallback
}

// concatPackager joins every member's generated output with a
// type-appropriate separator and writes the result, grounded on the
// teacher's simpleJSBundle concatenation approach in bundler.go.
type concatPackager struct {
	outDir string
	joiner string
}

func (p *concatPackager) Package(ctx context.Context, b interfaces.Bundle, previousHashes map[string]string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	var buf strings.Builder
	for i, e := range b.Entries() {
		if i > 0 {
			buf.WriteString(p.joiner)
		}
		buf.WriteString(e.Content)
	}

	return writeBundleFile(p.outDir, b.BundleName(), []byte(buf.String()))
}

// htmlPackager concatenates every member's generated markup like
// concatPackager, then parses and re-serializes it through x/net/html
// so a malformed fragment is caught (and auto-closed/normalized) at
// packaging time rather than surfacing only in a browser. The
// parse-and-walk itself is grounded on the teacher's accessibility
// engine, retargeted from auditing to packaging.
type htmlPackager struct {
	outDir string
}

func (p *htmlPackager) Package(ctx context.Context, b interfaces.Bundle, previousHashes map[string]string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	var buf strings.Builder
	for i, e := range b.Entries() {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(e.Content)
	}

	doc, err := html.Parse(strings.NewReader(buf.String()))
	if err != nil {
		return "", errors.IOFailed(b.BundleName(), "parse html", err)
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return "", errors.IOFailed(b.BundleName(), "render html", err)
	}

	return writeBundleFile(p.outDir, b.BundleName(), out.Bytes())
}

// rawPackager writes the single member's generated bytes verbatim,
// used for binary asset types (fonts, images) that are never
// concatenated with siblings.
type rawPackager struct {
	outDir string
}

func (p *rawPackager) Package(ctx context.Context, b interfaces.Bundle, previousHashes map[string]string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	entries := b.Entries()
	var content string
	if len(entries) > 0 {
		content = entries[0].Content
	}
	return writeBundleFile(p.outDir, b.BundleName(), []byte(content))
}

func writeBundleFile(outDir, name string, data []byte) (string, error) {
	outPath := filepath.Join(outDir, name)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", errors.IOFailed(outPath, "mkdir", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", errors.IOFailed(outPath, "write", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16], nil
}

// PackageTree packages every bundle in the tree rooted at root,
// post-order so a parent's previousHashes argument reflects every
// child's freshly written hash, per spec.md §4.7. It returns every
// bundle's name mapped to its output hash.
func PackageTree(ctx context.Context, root *Bundle, registry *PackagerRegistry) (map[string]string, error) {
	hashes := make(map[string]string)

	var walk func(b *Bundle) error
	walk = func(b *Bundle) error {
		if _, done := hashes[b.name]; done {
			return nil
		}

		childHashes := make(map[string]string, len(b.childBundles))
		for _, c := range b.childBundles {
			// c.siblingBundles holds c itself plus its other-type siblings.
			for _, cs := range c.siblingBundles {
				if err := walk(cs); err != nil {
					return err
				}
				childHashes[cs.name] = hashes[cs.name]
			}
		}

		hash, err := registry.Get(b.bundleType).Package(ctx, b, childHashes)
		if err != nil {
			return err
		}
		hashes[b.name] = hash
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	for _, sib := range root.siblingBundles {
		if err := walk(sib); err != nil {
			return nil, err
		}
	}
	return hashes, nil
}
