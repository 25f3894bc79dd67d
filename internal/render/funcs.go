package render

import (
	"os"
	"strings"
	"text/template"
)

func funcMap(tracker *envTracker) template.FuncMap {
	return template.FuncMap{
		"env": func(key string) string {
			value, ok := os.LookupEnv(key)
			if !ok {
				tracker.markMissing(key)
				return ""
			}
			return value
		},
		"envOr": func(key, def string) string {
			if value, ok := os.LookupEnv(key); ok {
				return value
			}
			return def
		},
		"default": func(def, value string) string {
			if value == "" {
				return def
			}
			return value
		},
		"split": func(sep, value string) []string {
			parts := strings.Split(value, sep)
			out := parts[:0]
			for _, part := range parts {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		},
		"join":  func(sep string, items []string) string { return strings.Join(items, sep) },
		"quote": func(value string) string { return "'" + strings.ReplaceAll(value, "'", "''") + "'" },
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}
