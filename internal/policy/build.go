package policy

import (
	"time"

	"github.com/codex-k8s/kubectl-gateway/internal/approver/limits"
	"github.com/codex-k8s/kubectl-gateway/internal/approver/shell"
	"github.com/codex-k8s/kubectl-gateway/internal/runtime/approver"
	"github.com/codex-k8s/kubectl-gateway/internal/timeutil"
)

// DefaultHookTimeout bounds hooks that do not set their own timeout.
const DefaultHookTimeout = 10 * time.Second

// Build turns a validated policy into an approver chain. A nil policy yields
// an empty chain, which allows every invocation.
func Build(cfg *Config) (approver.Chain, error) {
	if cfg == nil {
		return approver.Chain{}, nil
	}

	var items []approver.Approver
	if hasRules(cfg) {
		store, err := limits.NewApprover(limits.Approver{
			Name:          cfg.Name,
			Allow:         cfg.Commands.Allow,
			Deny:          cfg.Commands.Deny,
			DenyFlags:     cfg.Commands.DenyFlags,
			FieldPolicies: toFieldPolicies(cfg.Fields),
		})
		if err != nil {
			return approver.Chain{}, err
		}
		items = append(items, store)
	}

	for _, hook := range cfg.Hooks {
		item := shell.Approver{
			Label:          hook.Name,
			Command:        hook.Command,
			Args:           hook.Args,
			Env:            hook.Env,
			AllowExitCodes: hook.AllowExitCodes,
		}
		items = append(items, approver.Timeout{Inner: item, Timeout: timeutil.ParseOrDefault(hook.Timeout, DefaultHookTimeout)})
	}

	return approver.Chain{Approvers: items}, nil
}

// ExecTimeout returns the policy timeout, or def when the policy does not set one.
func ExecTimeout(cfg *Config, def time.Duration) time.Duration {
	if cfg == nil {
		return def
	}
	return timeutil.ParseOrDefault(cfg.Timeout, def)
}

func hasRules(cfg *Config) bool {
	return len(cfg.Commands.Allow) > 0 || len(cfg.Commands.Deny) > 0 ||
		len(cfg.Commands.DenyFlags) > 0 || len(cfg.Fields) > 0
}

func toFieldPolicies(policies map[string]FieldPolicy) map[string]limits.FieldPolicy {
	if policies == nil {
		return nil
	}
	out := make(map[string]limits.FieldPolicy, len(policies))
	for key, value := range policies {
		out[key] = limits.FieldPolicy{
			Regex:     value.Regex,
			MinLength: value.MinLength,
			MaxLength: value.MaxLength,
		}
	}
	return out
}

// RequestBudget is the longest a single request may spend in approvals and
// kubectl: the hook timeouts run one after another, then the command itself.
// Zero means unbounded.
func RequestBudget(cfg *Config, execTimeout time.Duration) time.Duration {
	if execTimeout <= 0 {
		return 0
	}
	budget := execTimeout
	if cfg != nil {
		for _, hook := range cfg.Hooks {
			budget += timeutil.ParseOrDefault(hook.Timeout, DefaultHookTimeout)
		}
	}
	return budget
}
