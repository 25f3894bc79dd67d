package timeutil

import (
	"strings"
	"time"
)

// ParseOrDefault parses a Go duration string. Empty, invalid and negative
// values yield def; "0" yields zero, which callers treat as "no limit".
func ParseOrDefault(value string, def time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

// OrDefault returns d when it is positive and def otherwise.
func OrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
