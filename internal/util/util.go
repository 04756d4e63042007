// internal/util/util.go

// Package util holds rune-aware text helpers shared by the surfaces and tools.
package util

import (
	"strings"
	"unicode/utf8"
)

// Head returns at most n runes of text.
func Head(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}

// TruncateRunes truncates a string to a maximum number of runes,
// appending an ellipsis if truncated.
func TruncateRunes(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return Head(text, maxRunes) + "…"
}

// WrapToWidth breaks each line of text at word boundaries so no line is wider than width
// runes. Words longer than width are split. Blank lines are kept.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var cur []rune
		flush := func() {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = cur[:0]
			}
		}
		for _, w := range words {
			r := []rune(w)
			switch {
			case len(cur) > 0 && len(cur)+1+len(r) <= width:
				cur = append(append(cur, ' '), r...)
			case len(r) <= width:
				flush()
				cur = append(cur, r...)
			default:
				flush()
				for len(r) > width {
					out = append(out, string(r[:width]))
					r = r[width:]
				}
				cur = append(cur, r...)
			}
		}
		flush()
	}
	return strings.Join(out, "\n")
}
