package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event represents an audit entry for one kubectl execution attempt.
type Event struct {
	// Operation is the gateway capability (run, namespaces, contexts).
	Operation string
	// RequestID links the event to the HTTP request.
	RequestID string
	// Verb is the kubectl subcommand, if any.
	Verb string
	// Context is the target cluster context.
	Context string
	// Namespace is the target namespace.
	Namespace string
	// Args is the redacted argument vector.
	Args []string
	// Outcome classifies the result.
	Outcome string
	// ExitCode is the process exit status, -1 if unknown.
	ExitCode int
	// Duration is the process wall time.
	Duration time.Duration
	// Reason provides additional context for denials and failures.
	Reason string
}

// Logger records audit events.
type Logger interface {
	// Record stores an audit event.
	Record(ctx context.Context, event Event)
}

// StdLogger writes audit events to slog.
type StdLogger struct {
	logger *slog.Logger
}

// New returns a StdLogger.
func New(logger *slog.Logger) *StdLogger {
	return &StdLogger{logger: logger}
}

// Record logs an audit event.
func (l *StdLogger) Record(ctx context.Context, event Event) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.InfoContext(ctx, "audit",
		"operation", event.Operation,
		"request_id", event.RequestID,
		"verb", event.Verb,
		"context", event.Context,
		"namespace", event.Namespace,
		"args", event.Args,
		"outcome", event.Outcome,
		"exit_code", event.ExitCode,
		"duration_ms", event.Duration.Milliseconds(),
		"reason", event.Reason,
	)
}
