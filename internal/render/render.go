package render

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
)

// envTracker records environment variables referenced by a template.
type envTracker struct {
	missing map[string]struct{}
}

func (t *envTracker) markMissing(key string) {
	if t.missing == nil {
		t.missing = map[string]struct{}{}
	}
	t.missing[key] = struct{}{}
}

func (t *envTracker) list() []string {
	out := make([]string, 0, len(t.missing))
	for key := range t.missing {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// File loads and renders a policy template file.
func File(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Bytes(path, raw)
}

// Bytes renders a policy template from raw bytes. A reference to an unset
// variable through "env" fails the render and names every missing variable.
func Bytes(name string, raw []byte) ([]byte, error) {
	tracker := &envTracker{}
	if strings.TrimSpace(name) == "" {
		name = "policy"
	}
	tmpl, err := template.New(name).Funcs(funcMap(tracker)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	execErr := tmpl.Execute(&buf, map[string]any{})
	if len(tracker.missing) > 0 {
		return nil, fmt.Errorf("missing env vars: %s", strings.Join(tracker.list(), ", "))
	}
	if execErr != nil {
		return nil, fmt.Errorf("render template: %w", execErr)
	}
	return buf.Bytes(), nil
}
