package social

import (
	"strings"
	"unicode/utf8"
)

// MaxPostLength is the platform limit for a post, in characters.
const MaxPostLength = 280

const ellipsis = "…"

func RuneLen(s string) int { return utf8.RuneCountInString(s) }

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Truncate shortens s to at most max runes, ending in an ellipsis when it had
// to cut. Text that already fits is returned unchanged.
func Truncate(s string, max int) string {
	if RuneLen(s) <= max {
		return s
	}
	if max <= 1 {
		return TruncateRunes(ellipsis, max)
	}
	cut := strings.TrimRight(TruncateRunes(s, max-1), " \t\n")
	return cut + ellipsis
}
