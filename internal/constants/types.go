package constants

// Gateway operations.
const (
	OperationRun        = "run"
	OperationNamespaces = "namespaces"
	OperationContexts   = "contexts"
)

// Approver type aliases.
const (
	ApproverShell  = "shell"
	ApproverLimits = "limits"
)

// Execution outcomes recorded in metrics and audit events.
const (
	OutcomeOK          = "ok"
	OutcomeNonZero     = "exit_nonzero"
	OutcomeSignaled    = "signaled"
	OutcomeSpawnFailed = "spawn_failed"
	OutcomeTimeout     = "timeout"
	OutcomeCanceled    = "canceled"
	OutcomeDenied      = "denied"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)
