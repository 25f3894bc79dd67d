package approver

import (
	"context"
	"errors"
)

// ErrDenied reports a command rejected by an approver.
var ErrDenied = errors.New("command not allowed")

// Request describes a kubectl invocation awaiting approval.
type Request struct {
	// Operation names the gateway capability (run, namespaces, contexts).
	Operation string
	// Fragment is the caller-supplied argument fragment as received.
	Fragment string
	// Tokens is the tokenized fragment.
	Tokens []string
	// Verb is the leading kubectl subcommand, empty when the fragment starts with a flag.
	Verb string
	// Namespace is the target namespace.
	Namespace string
	// Context is the target cluster context.
	Context string
	// RequestID links the approval to the HTTP request.
	RequestID string
}

// Decision represents the approver decision.
type Decision struct {
	// Allowed indicates approval result.
	Allowed bool
	// Reason explains the decision.
	Reason string
	// Source identifies the approver.
	Source string
}

// Approver checks whether an invocation is allowed.
type Approver interface {
	// Name returns the approver identifier.
	Name() string
	// Approve returns a decision for the given request.
	Approve(ctx context.Context, req Request) (Decision, error)
}

// Chain runs approvers sequentially until one denies.
type Chain struct {
	// Approvers is the ordered list to execute.
	Approvers []Approver
}

// Approve executes all approvers in order. An empty chain allows everything.
func (c Chain) Approve(ctx context.Context, req Request) (Decision, error) {
	for _, item := range c.Approvers {
		decision, err := item.Approve(ctx, req)
		if err != nil {
			return Decision{Allowed: false, Reason: err.Error(), Source: item.Name()}, err
		}
		if !decision.Allowed {
			if decision.Source == "" {
				decision.Source = item.Name()
			}
			return decision, nil
		}
	}
	return Decision{Allowed: true, Reason: "approved"}, nil
}

// Len reports the number of configured approvers.
func (c Chain) Len() int {
	return len(c.Approvers)
}
