package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceLocation_IsZero(t *testing.T) {
	assert.True(t, SourceLocation{}.IsZero())
	assert.False(t, SourceLocation{Line: 1}.IsZero())
	assert.False(t, SourceLocation{Column: 1}.IsZero())
}

func TestProcessOptions_FingerprintIsDeterministic(t *testing.T) {
	o := ProcessOptions{Minify: true, Production: true, PublicURL: "/static", Extensions: map[string]string{".js": "script", ".css": "stylesheet"}}
	assert.Equal(t, o.Fingerprint(), o.Fingerprint())
}

func TestProcessOptions_FingerprintIsOrderIndependentOverExtensions(t *testing.T) {
	a := ProcessOptions{Extensions: map[string]string{".js": "script", ".css": "stylesheet"}}
	b := ProcessOptions{Extensions: map[string]string{".css": "stylesheet", ".js": "script"}}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestProcessOptions_FingerprintChangesWithMinify(t *testing.T) {
	a := ProcessOptions{Minify: false}
	b := ProcessOptions{Minify: true}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestProcessOptions_FingerprintChangesWithProduction(t *testing.T) {
	a := ProcessOptions{Production: false}
	b := ProcessOptions{Production: true}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestProcessOptions_FingerprintChangesWithPublicURL(t *testing.T) {
	a := ProcessOptions{PublicURL: "/a"}
	b := ProcessOptions{PublicURL: "/b"}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestProcessOptions_FingerprintChangesWithExtensionSet(t *testing.T) {
	a := ProcessOptions{Extensions: map[string]string{".js": "script"}}
	b := ProcessOptions{Extensions: map[string]string{".js": "script", ".ts": "script"}}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
