package normalize

import "strings"

// Email lowercases and trims an address. It does not validate it.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail is a shape check only: one '@' with a non-empty local part and
// a dotted domain, no spaces.
func ValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
