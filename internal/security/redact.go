package security

import "strings"

// Redacted replaces masked values.
const Redacted = "***"

var sensitiveFlags = []string{
	"--token",
	"--password",
	"--username",
	"--client-key",
	"--client-certificate",
	"--as",
	"--as-group",
	"--as-uid",
	"--from-literal",
	"--docker-password",
	"--kubeconfig",
}

var sensitiveSubstrings = []string{
	"token",
	"password",
	"passwd",
	"secret",
	"credential",
	"private-key",
	"api-key",
	"apikey",
}

// RedactArgs returns a copy of a kubectl argument vector with values of
// credential-bearing flags replaced. Both "--flag value" and "--flag=value"
// spellings are handled.
func RedactArgs(args []string) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	maskNext := false
	for i, arg := range args {
		if maskNext {
			out[i] = Redacted
			maskNext = false
			continue
		}
		name, _, hasValue := strings.Cut(arg, "=")
		if !strings.HasPrefix(name, "--") || !isSensitiveFlag(name) {
			out[i] = arg
			continue
		}
		if hasValue {
			out[i] = name + "=" + Redacted
			continue
		}
		out[i] = arg
		maskNext = true
	}
	return out
}

func isSensitiveFlag(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, flag := range sensitiveFlags {
		if lower == flag {
			return true
		}
	}
	for _, part := range sensitiveSubstrings {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
