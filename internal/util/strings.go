// Package util provides small shared helpers used across the consoleauth
// library: log-safe string truncation and base-URL normalization.
package util

import "strings"

// SafeTruncate truncates s to at most maxLen bytes without panicking.
// It is used when logging response snippets or token prefixes, where only
// the head of a potentially large or sensitive string should appear.
// A negative maxLen yields the empty string.
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// NormalizeBaseURL strips trailing slashes from a base or instance URL so
// paths can be appended with a single joining slash. Provider instance URLs
// arrive from configuration both with and without a trailing slash.
func NormalizeBaseURL(url string) string {
	return strings.TrimRight(url, "/")
}
