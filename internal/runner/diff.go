package runner

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff returns a unified diff of two scripts with three lines of
// context, or "" when they are equal.
func UnifiedDiff(a, b, fromName, toName string) string {
	if a == b {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(a),
		B:        splitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}

// splitLines splits s after each newline. A trailing newline ends the last
// line instead of starting an empty one; an unterminated last line gets one
// so every diff line ends in "\n".
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	last := len(lines) - 1
	if lines[last] == "" {
		return lines[:last]
	}
	lines[last] += "\n"
	return lines
}
