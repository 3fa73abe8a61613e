package asset

import (
	"strings"

	"github.com/conneroisu/bundler/internal/types"
)

// scriptVariant handles .js/.mjs/.jsx/.ts/.tsx files. Dependency
// discovery is the teacher's substring scan (analyzeJSDependencies in
// bundler.go) extended to also flag import(...) as a dynamic edge.
type scriptVariant struct{}

// NewScriptAsset constructs an Asset backed by scriptVariant.
func NewScriptAsset(path string, pkg types.Package, options Options) *Asset {
	return newAsset(path, pkg, options, "js", scriptVariant{})
}

func (scriptVariant) Parse(contents []byte) (interface{}, error) {
	return string(contents), nil
}

func (scriptVariant) MightHaveDependencies() bool { return true }

func (scriptVariant) CollectDependencies(a *Asset) error {
	src, _ := a.AST.(string)
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "import ") && strings.Contains(line, "from ") {
			start := strings.Index(line, "from ") + len("from ")
			if start < len(line) {
				dep := strings.Trim(line[start:], " '\";")
				if dep != "" {
					a.addDependency(dep, types.DependencyRecord{})
				}
			}
			continue
		}

		if idx := strings.Index(line, "import("); idx != -1 {
			if dep, ok := extractCallArg(line, idx+len("import(")); ok {
				a.addDependency(dep, types.DependencyRecord{Dynamic: true})
			}
			continue
		}

		if idx := strings.Index(line, "require("); idx != -1 {
			if dep, ok := extractCallArg(line, idx+len("require(")); ok {
				a.addDependency(dep, types.DependencyRecord{})
			}
		}
	}
	return nil
}

func (scriptVariant) Transform(*Asset) error { return nil }

func (scriptVariant) Generate(a *Asset) (map[string]string, error) {
	src, _ := a.AST.(string)
	if a.Options.Minify {
		src = minifyJS(src)
	}
	return map[string]string{"js": src}, nil
}

// extractCallArg pulls the quoted string argument out of a one-argument
// call expression whose opening paren has already been consumed, e.g.
// given `"./a")` returns "./a", true.
func extractCallArg(line string, from int) (string, bool) {
	rest := line[from:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return "", false
	}
	arg := strings.Trim(rest[:end], " '\"")
	if arg == "" {
		return "", false
	}
	return arg, true
}
