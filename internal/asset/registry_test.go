package asset

import (
	"testing"

	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetAssetDispatchesByExtension(t *testing.T) {
	r := NewRegistry()

	js := r.GetAsset("/app/a.js", types.Package{}, Options{})
	assert.Equal(t, "js", js.AssetType)

	css := r.GetAsset("/app/a.css", types.Package{}, Options{})
	assert.Equal(t, "css", css.AssetType)

	html := r.GetAsset("/app/a.html", types.Package{}, Options{})
	assert.Equal(t, "html", html.AssetType)

	bin := r.GetAsset("/app/a.png", types.Package{}, Options{})
	assert.Equal(t, "png", bin.AssetType)
}

func TestRegistry_RegisterExtension(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterExtension(".svelte", "script"))

	a := r.GetAsset("/app/a.svelte", types.Package{}, Options{})
	assert.Equal(t, "js", a.AssetType)
}

func TestRegistry_LockRejectsFurtherRegistration(t *testing.T) {
	r := NewRegistry()
	r.Lock()

	err := r.RegisterExtension(".svelte", "script")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeConfigLocked))
}

func TestRegistryFromOptions_RoundTripsSnapshot(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterExtension(".svelte", "script"))
	snap := r.Snapshot()

	rebuilt := RegistryFromOptions(Options{Extensions: snap})
	a := rebuilt.GetAsset("/app/a.svelte", types.Package{}, Options{})
	assert.Equal(t, "js", a.AssetType)
}

func TestRegistryFromOptions_DefaultsWhenNoExtensionsGiven(t *testing.T) {
	rebuilt := RegistryFromOptions(Options{})
	a := rebuilt.GetAsset("/app/a.css", types.Package{}, Options{})
	assert.Equal(t, "css", a.AssetType)
}
