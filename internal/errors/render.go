package errors

import (
	"fmt"
	"os"
	"strings"
)

// Render pretty-prints a BundlerError with its file path, line/column, and
// a snippet of the offending source centered on the error location, the
// way build failures are surfaced to the CLI and the watch-mode log.
func Render(err *BundlerError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s", err.Type, err.Message)
	if err.Component != "" {
		fmt.Fprintf(&b, "\n  in %s", err.Component)
	}
	if err.FilePath != "" {
		fmt.Fprintf(&b, "\n  --> %s", err.FilePath)
		if err.Line > 0 {
			fmt.Fprintf(&b, ":%d", err.Line)
			if err.Column > 0 {
				fmt.Fprintf(&b, ":%d", err.Column)
			}
		}
		if frame := codeFrame(err.FilePath, err.Line, err.Column); frame != "" {
			b.WriteString("\n")
			b.WriteString(frame)
		}
	}
	if err.Cause != nil {
		fmt.Fprintf(&b, "\n  caused by: %v", err.Cause)
	}
	return b.String()
}

// codeFrame reads the file at path and returns up to two lines of context
// around the given 1-based line, with a caret under the column if known.
// Returns "" if the file cannot be read or line is unknown.
func codeFrame(path string, line, column int) string {
	if line <= 0 {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if line-1 >= len(lines) {
		return ""
	}

	var b strings.Builder
	start := line - 2
	if start < 0 {
		start = 0
	}
	end := line + 1
	if end > len(lines) {
		end = len(lines)
	}
	for i := start; i < end; i++ {
		marker := "  "
		if i == line-1 {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%4d | %s\n", marker, i+1, lines[i])
		if i == line-1 && column > 0 {
			fmt.Fprintf(&b, "       | %s^\n", strings.Repeat(" ", column-1))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
