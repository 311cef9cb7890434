package core

import "strings"

// CleanString strips surrounding whitespace from user input,
// lowercasing the result when asked to (emails, codes).
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}
