// Package guard implements the SSRF blocklist for target URLs.
//
// The check is a case-insensitive pattern match on the literal URL text. It
// deliberately does not resolve hostnames, so a DNS name pointing at a
// private address is not caught; adding resolution would change the latency
// and failure characteristics of the fetch pipeline.
package guard

import (
	"regexp"
	"strings"
)

// Pattern pairs a compiled blocklist expression with the range it covers,
// for operator-facing output.
type Pattern struct {
	Expr        *regexp.Regexp
	Description string
}

var blocklist = []Pattern{
	{regexp.MustCompile(`(?i)^https?://localhost`), "loopback hostname"},
	{regexp.MustCompile(`(?i)^https?://127\.0\.0\.1`), "loopback address"},
	{regexp.MustCompile(`(?i)^https?://0\.0\.0\.0`), "unspecified address"},
	{regexp.MustCompile(`(?i)^https?://192\.168\.`), "private range 192.168.0.0/16"},
	{regexp.MustCompile(`(?i)^https?://10\.`), "private range 10.0.0.0/8"},
	{regexp.MustCompile(`(?i)^https?://172\.(1[6-9]|2[0-9]|3[0-1])\.`), "private range 172.16.0.0/12"},
	{regexp.MustCompile(`(?i)^https?://169\.254\.`), "link-local / cloud metadata range"},
	{regexp.MustCompile(`(?i)^file://`), "file scheme"},
}

// IsDangerous reports whether the raw URL text matches a blocked pattern or
// uses a scheme other than http(s). It returns on the first match and never
// performs I/O.
func IsDangerous(raw string) bool {
	for _, p := range blocklist {
		if p.Expr.MatchString(raw) {
			return true
		}
	}

	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return true
	}

	return false
}

// Patterns returns the active blocklist for display.
func Patterns() []Pattern {
	out := make([]Pattern, len(blocklist))
	copy(out, blocklist)
	return out
}
