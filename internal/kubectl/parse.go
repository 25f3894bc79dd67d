package kubectl

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// DecodeOutput converts raw process output to text. Invalid UTF-8 sequences
// are replaced with U+FFFD instead of failing.
func DecodeOutput(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(decoded)
}

// ParseNamespaces extracts namespace names from "kubectl get namespaces"
// table output. The first line is the column header; each following line
// contributes its first whitespace-delimited token. Blank lines are skipped.
func ParseNamespaces(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 {
		return []string{}
	}
	return firstTokens(lines[1:])
}

// ParseContexts extracts context names from "kubectl config get-contexts -o name"
// output: one name per line, no header. Blank lines are skipped.
func ParseContexts(text string) []string {
	return firstTokens(strings.Split(text, "\n"))
}

func firstTokens(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, fields[0])
	}
	return out
}
