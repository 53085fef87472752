package util

import "strings"

// SanitizeDBText drops NUL bytes and invalid UTF-8, which Postgres and
// SQLite text columns reject.
func SanitizeDBText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// CollapseWhitespace trims s and replaces every run of whitespace with a
// single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
