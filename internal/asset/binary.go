package asset

import (
	"encoding/json"
	"path/filepath"

	"github.com/conneroisu/bundler/internal/types"
)

// binaryVariant is the fallback for any extension with no registered
// variant. Per spec.md §4.2, it emits the raw contents under its own
// extension key plus a "js" stub so the file can be require()'d for its
// output filename (a CommonJS module whose export is that filename).
type binaryVariant struct{}

// NewBinaryAsset constructs an Asset backed by binaryVariant. assetType
// is the bare extension (no leading dot), "bin" if the path has none.
func NewBinaryAsset(path string, pkg types.Package, options Options) *Asset {
	ext := extOf(path)
	return newAsset(path, pkg, options, ext, binaryVariant{})
}

func extOf(path string) string {
	ext := filepath.Ext(path)
	if len(ext) <= 1 {
		return "bin"
	}
	return ext[1:]
}

func (binaryVariant) Parse([]byte) (interface{}, error) { return nil, nil }

func (binaryVariant) MightHaveDependencies() bool { return false }

func (binaryVariant) CollectDependencies(*Asset) error { return nil }

func (binaryVariant) Transform(*Asset) error { return nil }

func (binaryVariant) Generate(a *Asset) (map[string]string, error) {
	outputFilename := md5Hex(a.Path) + "." + a.AssetType

	stub, err := json.Marshal(outputFilename)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		a.AssetType: string(a.Contents),
		"js":        "module.exports = " + string(stub),
	}, nil
}
