package asset

import (
	"path/filepath"
	"sync"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/types"
)

// Registry maps a file extension to the name of the Variant that
// constructs assets of that type (C2). Extensions can be registered
// until the registry is locked, which the coordinator does the moment
// bundling starts (spec.md §4.2: "frozen once bundling starts").
//
// Variant names, not constructor funcors, are stored so the table can
// travel through Options.Extensions and be reconstituted standalone
// inside a worker (spec.md §4.3).
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]string
	locked     bool
}

// NewRegistry returns a Registry pre-populated with the bundler's four
// built-in variants.
func NewRegistry() *Registry {
	return &Registry{extensions: defaultExtensions()}
}

// RegistryFromOptions reconstructs a Registry from the extensions table
// carried on Options, the mechanism a worker uses to rebuild a registry
// without talking to the coordinator (spec.md §4.3).
func RegistryFromOptions(options Options) *Registry {
	src := options.Extensions
	if src == nil {
		src = defaultExtensions()
	}
	cp := make(map[string]string, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return &Registry{extensions: cp}
}

func defaultExtensions() map[string]string {
	return map[string]string{
		".js":    "script",
		".mjs":   "script",
		".jsx":   "script",
		".ts":    "script",
		".tsx":   "script",
		".css":   "stylesheet",
		".less":  "stylesheet",
		".html":  "markup",
		".htm":   "markup",
	}
}

// RegisterExtension associates ext with a variant name ("script",
// "stylesheet", "markup", or "binary"). It fails with ConfigLocked once
// the registry has been locked.
func (r *Registry) RegisterExtension(ext, variant string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return errors.ConfigLocked("register extension " + ext)
	}
	r.extensions[ext] = variant
	return nil
}

// Lock freezes the registry against further RegisterExtension calls.
func (r *Registry) Lock() {
	r.mu.Lock()
	r.locked = true
	r.mu.Unlock()
}

// Snapshot returns a copy of the extension table suitable for embedding
// in Options so a worker can reconstruct this registry.
func (r *Registry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]string, len(r.extensions))
	for k, v := range r.extensions {
		cp[k] = v
	}
	return cp
}

// GetAsset constructs an Asset for path using the variant registered for
// its extension, falling back to the binary variant for anything
// unrecognized (spec.md §4.2).
func (r *Registry) GetAsset(path string, pkg types.Package, options Options) *Asset {
	ext := filepath.Ext(path)
	r.mu.RLock()
	name, ok := r.extensions[ext]
	r.mu.RUnlock()
	if !ok {
		name = "binary"
	}
	return newAssetByName(name, path, pkg, options)
}

func newAssetByName(name, path string, pkg types.Package, options Options) *Asset {
	switch name {
	case "script":
		return NewScriptAsset(path, pkg, options)
	case "stylesheet":
		return NewStylesheetAsset(path, pkg, options)
	case "markup":
		return NewMarkupAsset(path, pkg, options)
	default:
		return NewBinaryAsset(path, pkg, options)
	}
}
