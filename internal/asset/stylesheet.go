package asset

import (
	"fmt"
	"strings"

	"github.com/conneroisu/bundler/internal/types"
)

// stylesheetVariant handles .css/.less files: @import statements become
// ordinary dependencies (the teacher's analyzeCSSImports scan), and
// url(...) references become URL dependencies rewritten at generate
// time via Asset.AddURLDependency.
type stylesheetVariant struct{}

// NewStylesheetAsset constructs an Asset backed by stylesheetVariant.
func NewStylesheetAsset(path string, pkg types.Package, options Options) *Asset {
	return newAsset(path, pkg, options, "css", stylesheetVariant{})
}

func (stylesheetVariant) Parse(contents []byte) (interface{}, error) {
	return string(contents), nil
}

func (stylesheetVariant) MightHaveDependencies() bool { return true }

func (stylesheetVariant) CollectDependencies(a *Asset) error {
	src, _ := a.AST.(string)
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@import ") {
			continue
		}
		start := strings.IndexAny(line, "\"'")
		if start == -1 {
			continue
		}
		quote := line[start : start+1]
		start++
		end := strings.Index(line[start:], quote)
		if end <= 0 {
			continue
		}
		dep := line[start : start+end]
		if dep != "" {
			a.addDependency(dep, types.DependencyRecord{})
		}
	}
	return nil
}

func (stylesheetVariant) Transform(*Asset) error { return nil }

func (stylesheetVariant) Generate(a *Asset) (map[string]string, error) {
	src, _ := a.AST.(string)

	var out strings.Builder
	rest := src
	for {
		idx := strings.Index(rest, "url(")
		if idx == -1 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:idx])
		afterParen := idx + len("url(")
		end := strings.Index(rest[afterParen:], ")")
		if end < 0 {
			out.WriteString(rest[idx:])
			break
		}
		ref := strings.Trim(rest[afterParen:afterParen+end], " \t\"'")
		if ref == "" {
			out.WriteString(rest[idx : afterParen+end+1])
		} else {
			output := a.AddURLDependency(ref, a.Path)
			fmt.Fprintf(&out, `url("%s")`, output)
		}
		rest = rest[afterParen+end+1:]
	}
	src = out.String()

	if a.Options.Minify {
		src = minifyCSS(src)
	}
	return map[string]string{"css": src}, nil
}
