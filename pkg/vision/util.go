package vision

import (
	"strings"
	"unicode/utf8"
)

// rawTextLimit bounds the debugging copy of recognized text kept on records.
const rawTextLimit = 500

// snippet returns a shortened copy of text for records and logging, cutting
// on a rune boundary so accented text stays valid UTF-8.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "…"
}

// splitLines breaks recognized text into trimmed non-blank lines.
func splitLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}
