package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// StringOr returns s cleaned, or def if it is blank.
func StringOr(s, def string) string {
	if s = CleanString(s); s != "" {
		return s
	}
	return def
}
