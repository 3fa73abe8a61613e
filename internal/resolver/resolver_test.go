package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNodeResolver_RelativeSpecifierWithExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.js"), "")
	writeFile(t, filepath.Join(root, "foo.js"), "")

	r := NewNodeResolver(nil, false)
	path, _, err := r.Resolve("./foo.js", filepath.Join(root, "index.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "foo.js"), path)
}

func TestNodeResolver_RelativeSpecifierInfersExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.js"), "")
	writeFile(t, filepath.Join(root, "foo.ts"), "")

	r := NewNodeResolver(nil, false)
	path, _, err := r.Resolve("./foo", filepath.Join(root, "index.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "foo.ts"), path)
}

func TestNodeResolver_DirectoryResolvesToIndexFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.js"), "")
	writeFile(t, filepath.Join(root, "lib", "index.js"), "")

	r := NewNodeResolver(nil, false)
	path, _, err := r.Resolve("./lib", filepath.Join(root, "index.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "lib", "index.js"), path)
}

func TestNodeResolver_BareSpecifierWalksNodeModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "index.js"), "")
	pkgDir := filepath.Join(root, "node_modules", "leftpad")
	writeFile(t, filepath.Join(pkgDir, "package.json"), `{"name":"leftpad","version":"1.0.0","main":"main.js"}`)
	writeFile(t, filepath.Join(pkgDir, "main.js"), "")

	r := NewNodeResolver(nil, false)
	path, pkg, err := r.Resolve("leftpad", filepath.Join(root, "src", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(pkgDir, "main.js"), path)
	assert.Equal(t, "leftpad", pkg.Name)
	assert.Equal(t, "1.0.0", pkg.Version)
}

func TestNodeResolver_PreferModuleField(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "index.js"), "")
	pkgDir := filepath.Join(root, "node_modules", "dual")
	writeFile(t, filepath.Join(pkgDir, "package.json"), `{"name":"dual","main":"cjs.js","module":"esm.js"}`)
	writeFile(t, filepath.Join(pkgDir, "cjs.js"), "")
	writeFile(t, filepath.Join(pkgDir, "esm.js"), "")

	r := NewNodeResolver(nil, true)
	path, _, err := r.Resolve("dual", filepath.Join(root, "src", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(pkgDir, "esm.js"), path)
}

func TestNodeResolver_ScopedPackageSpecifier(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "index.js"), "")
	pkgDir := filepath.Join(root, "node_modules", "@scope", "pkg")
	writeFile(t, filepath.Join(pkgDir, "package.json"), `{"name":"@scope/pkg","main":"main.js"}`)
	writeFile(t, filepath.Join(pkgDir, "main.js"), "")

	r := NewNodeResolver(nil, false)
	path, pkg, err := r.Resolve("@scope/pkg", filepath.Join(root, "src", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(pkgDir, "main.js"), path)
	assert.Equal(t, "@scope/pkg", pkg.Name)
}

func TestNodeResolver_UnresolvableSpecifierFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.js"), "")

	r := NewNodeResolver(nil, false)
	_, _, err := r.Resolve("./missing", filepath.Join(root, "index.js"))
	assert.Error(t, err)
}

func TestNodeResolver_EmptySpecifierFails(t *testing.T) {
	r := NewNodeResolver(nil, false)
	_, _, err := r.Resolve("", "/app/index.js")
	assert.Error(t, err)
}
