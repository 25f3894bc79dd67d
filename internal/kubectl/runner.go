package kubectl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codex-k8s/kubectl-gateway/internal/audit"
	"github.com/codex-k8s/kubectl-gateway/internal/constants"
	"github.com/codex-k8s/kubectl-gateway/internal/executil"
	"github.com/codex-k8s/kubectl-gateway/internal/protocol"
	"github.com/codex-k8s/kubectl-gateway/internal/requestid"
	"github.com/codex-k8s/kubectl-gateway/internal/runtime/approver"
	"github.com/codex-k8s/kubectl-gateway/internal/security"
)

// DefaultBinary is used when Runner.Binary is empty.
const DefaultBinary = "kubectl"

// Runner executes kubectl on behalf of gateway requests. It holds only
// configuration, so one value is safe to share between concurrent requests;
// every call spawns its own child process.
type Runner struct {
	// Binary is the kubectl executable name or path.
	Binary string
	// Timeout bounds each child process; zero disables the limit.
	Timeout time.Duration
	// Env adds environment variables to every child process.
	Env map[string]string
	// Approvals decides whether an invocation may run. The zero value allows all.
	Approvals approver.Chain
	// Audit records one event per invocation attempt.
	Audit audit.Logger
	// Logger is used for structured logging.
	Logger *slog.Logger
}

// Run executes a caller-supplied fragment against a namespace and context
// and returns its output unparsed.
func (r Runner) Run(ctx context.Context, req protocol.CommandRequest) (protocol.CommandResult, error) {
	areq := approver.Request{
		Operation: constants.OperationRun,
		Fragment:  req.Command,
		Namespace: req.Namespace,
		Context:   req.Context,
		RequestID: requestid.From(ctx),
	}

	cmd, err := BuildCommand(req.Command, req.Namespace, req.Context)
	if err != nil {
		r.reject(ctx, areq, constants.OutcomeInvalid, err.Error())
		return protocol.CommandResult{}, err
	}
	areq.Tokens = cmd.Tokens
	areq.Verb = Verb(cmd.Tokens)

	if err := r.approve(ctx, areq); err != nil {
		return protocol.CommandResult{}, err
	}

	res, err := r.execute(ctx, areq, cmd.Args)
	if err != nil {
		return protocol.CommandResult{}, err
	}
	return protocol.CommandResult{
		Stdout:   DecodeOutput(res.Stdout),
		Stderr:   DecodeOutput(res.Stderr),
		ExitCode: res.ExitCode,
	}, nil
}

// Namespaces lists the namespaces visible in a cluster context, in kubectl's order.
func (r Runner) Namespaces(ctx context.Context, clusterContext string) ([]string, error) {
	areq := approver.Request{
		Operation: constants.OperationNamespaces,
		Verb:      "get",
		Context:   clusterContext,
		RequestID: requestid.From(ctx),
	}
	if err := r.approve(ctx, areq); err != nil {
		return nil, err
	}
	text, err := r.list(ctx, areq, NamespacesArgs(clusterContext))
	if err != nil {
		return nil, err
	}
	return ParseNamespaces(text), nil
}

// Contexts lists the context names of the local kubeconfig, in kubectl's order.
func (r Runner) Contexts(ctx context.Context) ([]string, error) {
	areq := approver.Request{
		Operation: constants.OperationContexts,
		Verb:      "config",
		RequestID: requestid.From(ctx),
	}
	if err := r.approve(ctx, areq); err != nil {
		return nil, err
	}
	text, err := r.list(ctx, areq, ContextsArgs())
	if err != nil {
		return nil, err
	}
	return ParseContexts(text), nil
}

func (r Runner) list(ctx context.Context, areq approver.Request, args []string) (string, error) {
	res, err := r.execute(ctx, areq, args)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &CommandFailedError{
			Args:     security.RedactArgs(args),
			ExitCode: res.ExitCode,
			Stderr:   DecodeOutput(res.Stderr),
		}
	}
	return DecodeOutput(res.Stdout), nil
}

func (r Runner) approve(ctx context.Context, areq approver.Request) error {
	if r.Approvals.Len() == 0 {
		return nil
	}
	decision, err := r.Approvals.Approve(ctx, areq)
	if err != nil {
		r.reject(ctx, areq, constants.OutcomeError, err.Error())
		return fmt.Errorf("approval %s: %w", decision.Source, err)
	}
	if !decision.Allowed {
		r.reject(ctx, areq, constants.OutcomeDenied, decision.Reason)
		return fmt.Errorf("%w: %s", approver.ErrDenied, decision.Reason)
	}
	return nil
}

func (r Runner) execute(ctx context.Context, areq approver.Request, args []string) (executil.Result, error) {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	redacted := security.RedactArgs(args)
	if r.Logger != nil {
		r.Logger.DebugContext(ctx, "kubectl exec", "operation", areq.Operation, "request_id", areq.RequestID, "args", redacted)
	}

	inFlight.Inc()
	res, err := executil.Run(ctx, executil.Spec{
		Path:    binary,
		Args:    args,
		Env:     r.Env,
		Timeout: r.Timeout,
	})
	inFlight.Dec()

	outcome := classify(res, err)
	executionsTotal.WithLabelValues(areq.Operation, outcome).Inc()
	executionDuration.WithLabelValues(areq.Operation).Observe(res.Duration.Seconds())

	event := audit.Event{
		Operation: areq.Operation,
		RequestID: areq.RequestID,
		Verb:      areq.Verb,
		Context:   areq.Context,
		Namespace: areq.Namespace,
		Args:      redacted,
		Outcome:   outcome,
		ExitCode:  res.ExitCode,
		Duration:  res.Duration,
	}
	if err != nil {
		event.Reason = err.Error()
	}
	r.record(ctx, event)

	if err != nil {
		if r.Logger != nil {
			r.Logger.WarnContext(ctx, "kubectl exec failed", "operation", areq.Operation, "request_id", areq.RequestID, "outcome", outcome, "error", err)
		}
		return res, fmt.Errorf("kubectl %s: %w", areq.Operation, err)
	}
	return res, nil
}

func (r Runner) reject(ctx context.Context, areq approver.Request, outcome, reason string) {
	executionsTotal.WithLabelValues(areq.Operation, outcome).Inc()
	r.record(ctx, audit.Event{
		Operation: areq.Operation,
		RequestID: areq.RequestID,
		Verb:      areq.Verb,
		Context:   areq.Context,
		Namespace: areq.Namespace,
		Args:      security.RedactArgs(areq.Tokens),
		Outcome:   outcome,
		ExitCode:  -1,
		Reason:    reason,
	})
}

func (r Runner) record(ctx context.Context, event audit.Event) {
	if r.Audit != nil {
		r.Audit.Record(ctx, event)
	}
}

func classify(res executil.Result, err error) string {
	switch {
	case err == nil && res.ExitCode == 0:
		return constants.OutcomeOK
	case err == nil && res.ExitCode < 0:
		return constants.OutcomeSignaled
	case err == nil:
		return constants.OutcomeNonZero
	case errors.Is(err, executil.ErrSpawn):
		return constants.OutcomeSpawnFailed
	case errors.Is(err, executil.ErrTimeout):
		return constants.OutcomeTimeout
	case errors.Is(err, executil.ErrCanceled):
		return constants.OutcomeCanceled
	default:
		return constants.OutcomeError
	}
}
