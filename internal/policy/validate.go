package policy

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/codex-k8s/kubectl-gateway/internal/approver/limits"
)

// Validate applies defaults and verifies the policy.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("policy is nil")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "policy"
	}
	if strings.TrimSpace(cfg.Timeout) != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("timeout is invalid: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("timeout must not be negative")
		}
	}

	for i, entry := range cfg.Commands.Allow {
		if !validCommandEntry(entry) {
			return fmt.Errorf("commands.allow[%d] must be a subcommand, optionally followed by one argument", i)
		}
	}
	for i, entry := range cfg.Commands.Deny {
		if !validCommandEntry(entry) {
			return fmt.Errorf("commands.deny[%d] must be a subcommand, optionally followed by one argument", i)
		}
	}
	for i, flag := range cfg.Commands.DenyFlags {
		flag = strings.TrimSpace(flag)
		if !strings.HasPrefix(flag, "-") {
			return fmt.Errorf("commands.deny_flags[%d] must start with '-'", i)
		}
		if !strings.HasPrefix(flag, "--") && len(flag) != 2 {
			return fmt.Errorf("commands.deny_flags[%d]: shorthand flags are a single letter", i)
		}
	}

	for field, fp := range cfg.Fields {
		switch field {
		case limits.FieldCommand, limits.FieldNamespace, limits.FieldContext:
		default:
			return fmt.Errorf("fields.%s: unknown field (want command, namespace or context)", field)
		}
		if fp.Regex != "" {
			if _, err := regexp.Compile(fp.Regex); err != nil {
				return fmt.Errorf("fields.%s.regex is invalid: %w", field, err)
			}
		}
		if fp.MinLength != nil && fp.MaxLength != nil && *fp.MinLength > *fp.MaxLength {
			return fmt.Errorf("fields.%s.min_length exceeds max_length", field)
		}
	}

	for i, hook := range cfg.Hooks {
		if strings.TrimSpace(hook.Command) == "" {
			return fmt.Errorf("hooks[%d].command is required", i)
		}
		if strings.TrimSpace(hook.Timeout) != "" {
			d, err := time.ParseDuration(hook.Timeout)
			if err != nil {
				return fmt.Errorf("hooks[%d].timeout is invalid: %w", i, err)
			}
			if d <= 0 {
				return fmt.Errorf("hooks[%d].timeout must be positive", i)
			}
		}
	}

	return nil
}

func validCommandEntry(entry string) bool {
	words := strings.Fields(entry)
	if len(words) == 0 || len(words) > 2 {
		return false
	}
	for _, word := range words {
		if strings.HasPrefix(word, "-") {
			return false
		}
	}
	return true
}
