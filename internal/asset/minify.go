package asset

import "strings"

// minifyJS applies the same line-oriented minification the teacher's
// bundler used: drop blank lines, line comments, and any line containing
// a block comment, then join what remains. Not a real JS minifier, but
// enough to exercise the minify option end to end.
func minifyJS(content string) string {
	lines := strings.Split(content, "\n")
	var out strings.Builder

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if strings.Contains(trimmed, "/*") && strings.Contains(trimmed, "*/") {
			continue
		}
		out.WriteString(trimmed)
		out.WriteString(" ")
	}
	return strings.TrimSpace(out.String())
}

// minifyCSS strips comments and collapses whitespace.
func minifyCSS(content string) string {
	for {
		start := strings.Index(content, "/*")
		if start < 0 {
			break
		}
		end := strings.Index(content[start+2:], "*/")
		if end < 0 {
			content = content[:start]
			break
		}
		content = content[:start] + content[start+2+end+2:]
	}
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\t", " ")
	for strings.Contains(content, "  ") {
		content = strings.ReplaceAll(content, "  ", " ")
	}
	return strings.TrimSpace(content)
}
