package asset

import (
	"strings"

	"github.com/conneroisu/bundler/internal/types"
)

// markupVariant handles .html/.htm files. It discovers <script src="...">
// and <link href="..."> references as ordinary (non-URL-boundary)
// dependencies — they name real assets the bundle tree later gives
// output names to, unlike a url() reference inside a stylesheet (Open
// Question #2). Rewriting those references to final bundle filenames is
// the packager's job, not the asset's: generate() passes markup through
// unchanged, consistent with per-language code emission being an
// external concern this repo only needs to exercise, not perfect.
type markupVariant struct{}

// NewMarkupAsset constructs an Asset backed by markupVariant.
func NewMarkupAsset(path string, pkg types.Package, options Options) *Asset {
	return newAsset(path, pkg, options, "html", markupVariant{})
}

func (markupVariant) Parse(contents []byte) (interface{}, error) {
	return string(contents), nil
}

func (markupVariant) MightHaveDependencies() bool { return true }

func (markupVariant) CollectDependencies(a *Asset) error {
	src, _ := a.AST.(string)
	for _, attr := range []string{"src=", "href="} {
		rest := src
		for {
			idx := strings.Index(rest, attr)
			if idx == -1 {
				break
			}
			rest = rest[idx+len(attr):]
			if len(rest) == 0 {
				break
			}
			quote := rest[0]
			if quote != '"' && quote != '\'' {
				continue
			}
			rest = rest[1:]
			end := strings.IndexByte(rest, quote)
			if end < 0 {
				break
			}
			ref := rest[:end]
			rest = rest[end+1:]
			if ref == "" || strings.Contains(ref, "://") {
				continue
			}
			a.addDependency(ref, types.DependencyRecord{})
		}
	}
	return nil
}

func (markupVariant) Transform(*Asset) error { return nil }

func (markupVariant) Generate(a *Asset) (map[string]string, error) {
	src, _ := a.AST.(string)
	return map[string]string{"html": src}, nil
}
