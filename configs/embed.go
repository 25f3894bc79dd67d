// Package configs ships the command policy presets selectable with
// --embedded-policy, so a gateway can be locked down without a policy file
// on disk.
package configs

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

//go:embed *.yaml
var presets embed.FS

// Names lists the preset file names in lexical order.
func Names() []string {
	entries, err := fs.ReadDir(presets, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && path.Ext(entry.Name()) == ".yaml" {
			names = append(names, entry.Name())
		}
	}
	return names
}

// Load returns the raw template of a preset. The caller renders and parses
// it exactly like a policy file.
func Load(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("policy preset name is empty")
	}
	data, err := presets.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unknown policy preset %q, want one of %v: %w", name, Names(), err)
	}
	return data, nil
}
