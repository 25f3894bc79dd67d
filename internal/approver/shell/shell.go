package shell

import (
	"context"
	"slices"
	"strings"

	"github.com/codex-k8s/kubectl-gateway/internal/executil"
	"github.com/codex-k8s/kubectl-gateway/internal/runtime/approver"
)

// Environment variables describing the request to the hook process.
const (
	EnvOperation = "KUBECTL_GATEWAY_OPERATION"
	EnvVerb      = "KUBECTL_GATEWAY_VERB"
	EnvCommand   = "KUBECTL_GATEWAY_COMMAND"
	EnvNamespace = "KUBECTL_GATEWAY_NAMESPACE"
	EnvContext   = "KUBECTL_GATEWAY_CONTEXT"
	EnvRequestID = "KUBECTL_GATEWAY_REQUEST_ID"
)

// Approver runs an external command and decides based on its exit code.
// The command is executed directly, never through a shell; the request is
// passed through environment variables only.
type Approver struct {
	// Label is a human-friendly name.
	Label string
	// Command is the executable to run.
	Command string
	// Args are optional command arguments.
	Args []string
	// Env adds environment variables for the command.
	Env map[string]string
	// AllowExitCodes declares additional success exit codes.
	AllowExitCodes []int
}

// Name returns approver name for audit and logging.
func (a Approver) Name() string {
	if a.Label != "" {
		return a.Label
	}
	return "shell"
}

// Approve executes the hook and returns an approval decision.
func (a Approver) Approve(ctx context.Context, req approver.Request) (approver.Decision, error) {
	env := make(map[string]string, len(a.Env)+6)
	for key, value := range a.Env {
		env[key] = value
	}
	env[EnvOperation] = req.Operation
	env[EnvVerb] = req.Verb
	env[EnvCommand] = req.Fragment
	env[EnvNamespace] = req.Namespace
	env[EnvContext] = req.Context
	env[EnvRequestID] = req.RequestID

	res, err := executil.Run(ctx, executil.Spec{Path: a.Command, Args: a.Args, Env: env})
	if err != nil {
		return approver.Decision{Allowed: false, Reason: err.Error(), Source: a.Name()}, nil
	}

	allowed := res.ExitCode == 0 || slices.Contains(a.AllowExitCodes, res.ExitCode)

	reason := strings.TrimSpace(string(res.Stdout))
	if reason == "" {
		reason = strings.TrimSpace(string(res.Stderr))
	}
	if reason == "" {
		if allowed {
			reason = "approved"
		} else {
			reason = "denied"
		}
	}

	return approver.Decision{Allowed: allowed, Reason: reason, Source: a.Name()}, nil
}
