package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/kubectl-gateway/internal/http/handler"
	"github.com/codex-k8s/kubectl-gateway/internal/http/respond"
	"github.com/codex-k8s/kubectl-gateway/internal/protocol"
	"github.com/codex-k8s/kubectl-gateway/internal/requestid"
)

// Tool names exposed over MCP.
const (
	ToolRunCommand     = "run_command"
	ToolListNamespaces = "list_namespaces"
	ToolListContexts   = "list_contexts"
)

// RunCommandInput is the input of the run_command tool.
type RunCommandInput struct {
	Context   string `json:"context,omitempty" jsonschema:"kubeconfig context to target"`
	Namespace string `json:"namespace,omitempty" jsonschema:"namespace to target"`
	Command   string `json:"command" jsonschema:"kubectl arguments without the kubectl prefix, for example: get pods -o wide"`
}

// ListNamespacesInput is the input of the list_namespaces tool.
type ListNamespacesInput struct {
	Context string `json:"context,omitempty" jsonschema:"kubeconfig context to list namespaces from"`
}

// ListContextsInput is the input of the list_contexts tool.
type ListContextsInput struct{}

// ListOutput wraps a list of identifiers.
type ListOutput struct {
	Items []string `json:"items"`
}

// Builder constructs an MCP server backed by the kubectl gateway.
type Builder struct {
	// Name is reported in the MCP implementation info.
	Name string
	// Version is reported in the MCP implementation info.
	Version string
	// Gateway executes kubectl.
	Gateway handler.Gateway
	// Logger is used for structured logging.
	Logger *slog.Logger
}

// Build creates an MCP server with the gateway tools registered.
func (b Builder) Build() *mcp.Server {
	name := b.Name
	if name == "" {
		name = "kubectl-gateway"
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: b.Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolRunCommand,
		Title:       "Run kubectl",
		Description: "Run a kubectl command against a namespace and context and return its raw output. A non-zero exit_code is a normal result.",
		Annotations: &mcp.ToolAnnotations{OpenWorldHint: ptr(true)},
	}, b.runCommand)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListNamespaces,
		Title:       "List namespaces",
		Description: "List the namespaces visible in a kubeconfig context.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, b.listNamespaces)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListContexts,
		Title:       "List contexts",
		Description: "List the contexts defined in the gateway's kubeconfig.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, b.listContexts)

	return server
}

func (b Builder) runCommand(ctx context.Context, _ *mcp.CallToolRequest, in RunCommandInput) (*mcp.CallToolResult, protocol.CommandResult, error) {
	ctx = withRequestID(ctx)
	b.logCall(ctx, ToolRunCommand)

	result, err := b.Gateway.Run(ctx, protocol.CommandRequest{
		Context:   in.Context,
		Namespace: in.Namespace,
		Command:   in.Command,
	})
	if err != nil {
		return b.toolError(ctx, ToolRunCommand, err), protocol.CommandResult{}, nil
	}
	return nil, result, nil
}

func (b Builder) listNamespaces(ctx context.Context, _ *mcp.CallToolRequest, in ListNamespacesInput) (*mcp.CallToolResult, ListOutput, error) {
	ctx = withRequestID(ctx)
	b.logCall(ctx, ToolListNamespaces)

	items, err := b.Gateway.Namespaces(ctx, in.Context)
	if err != nil {
		return b.toolError(ctx, ToolListNamespaces, err), ListOutput{Items: []string{}}, nil
	}
	return nil, listOutput(items), nil
}

func (b Builder) listContexts(ctx context.Context, _ *mcp.CallToolRequest, _ ListContextsInput) (*mcp.CallToolResult, ListOutput, error) {
	ctx = withRequestID(ctx)
	b.logCall(ctx, ToolListContexts)

	items, err := b.Gateway.Contexts(ctx)
	if err != nil {
		return b.toolError(ctx, ToolListContexts, err), ListOutput{Items: []string{}}, nil
	}
	return nil, listOutput(items), nil
}

// toolError renders a gateway error as a tool result so the model sees the
// error code instead of a protocol failure.
func (b Builder) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	c := respond.Classify(err)
	if b.Logger != nil {
		b.Logger.WarnContext(ctx, "tool failed", "tool", tool, "code", c.Code, "request_id", requestid.From(ctx), "error", err)
	}
	text := fmt.Sprintf("%s: %s", c.Code, err.Error())
	if stderr, ok := c.Details["stderr"].(string); ok && stderr != "" {
		text += "\n" + stderr
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (b Builder) logCall(ctx context.Context, tool string) {
	if b.Logger != nil {
		b.Logger.InfoContext(ctx, "tool call", "tool", tool, "request_id", requestid.From(ctx))
	}
}

func withRequestID(ctx context.Context) context.Context {
	if requestid.From(ctx) != "" {
		return ctx
	}
	return requestid.With(ctx, requestid.New())
}

func listOutput(items []string) ListOutput {
	if items == nil {
		items = []string{}
	}
	return ListOutput{Items: items}
}

func ptr[T any](v T) *T {
	return &v
}
