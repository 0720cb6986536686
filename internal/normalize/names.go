package normalize

import (
	"regexp"
	"strings"
)

var (
	multiSpace   = regexp.MustCompile(`\s+`)
	unsafeInName = regexp.MustCompile(`[^\w\s-]`)
)

// Text trims the input and collapses internal whitespace runs to one space.
func Text(s string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Header lowercases a column header and drops everything but letters and
// digits, so "Patient E-mail" and "patient email" compare equal.
func Header(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SafeFilename strips characters that are not word characters, spaces or
// dashes, then replaces spaces with underscores.
func SafeFilename(name string) string {
	s := unsafeInName.ReplaceAllString(strings.TrimSpace(name), "")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "unknown"
	}
	return s
}
