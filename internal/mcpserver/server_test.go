package mcpserver

import (
	"context"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/kubectl-gateway/internal/executil"
	"github.com/codex-k8s/kubectl-gateway/internal/kubectl"
	"github.com/codex-k8s/kubectl-gateway/internal/protocol"
	"github.com/codex-k8s/kubectl-gateway/internal/runtime/approver"
)

type fakeGateway struct {
	lastRun     protocol.CommandRequest
	lastContext string
	runErr      error
	nsErr       error
}

func (f *fakeGateway) Run(_ context.Context, req protocol.CommandRequest) (protocol.CommandResult, error) {
	f.lastRun = req
	if f.runErr != nil {
		return protocol.CommandResult{}, f.runErr
	}
	return protocol.CommandResult{Stdout: "pod-a\n", ExitCode: 0}, nil
}

func (f *fakeGateway) Namespaces(_ context.Context, clusterContext string) ([]string, error) {
	f.lastContext = clusterContext
	if f.nsErr != nil {
		return nil, f.nsErr
	}
	return []string{"default", "kube-system"}, nil
}

func (f *fakeGateway) Contexts(context.Context) ([]string, error) {
	return nil, nil
}

func connect(t *testing.T, gw *fakeGateway) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := Builder{Version: "test", Gateway: gw}.Build()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestBuild_RegistersTools(t *testing.T) {
	session := connect(t, &fakeGateway{})

	list, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{ToolRunCommand, ToolListNamespaces, ToolListContexts}, names)
}

func TestRunCommand(t *testing.T) {
	gw := &fakeGateway{}
	session := connect(t, gw)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolRunCommand,
		Arguments: map[string]any{"context": "kind-dev", "namespace": "default", "command": "get pods"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "pod-a")
	assert.Equal(t, protocol.CommandRequest{Context: "kind-dev", Namespace: "default", Command: "get pods"}, gw.lastRun)
}

func TestRunCommand_ErrorsAreToolResults(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: delete is denied", approver.ErrDenied), protocol.ErrCodeNotAllowed},
		{fmt.Errorf("kubectl run: %w", executil.ErrSpawn), protocol.ErrCodeSpawnFailed},
		{fmt.Errorf("%w: unterminated quote", kubectl.ErrInvalidCommand), protocol.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			session := connect(t, &fakeGateway{runErr: tt.err})

			res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
				Name:      ToolRunCommand,
				Arguments: map[string]any{"command": "delete pod x"},
			})
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, textOf(t, res), tt.code)
		})
	}
}

func TestListNamespaces(t *testing.T) {
	gw := &fakeGateway{}
	session := connect(t, gw)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolListNamespaces,
		Arguments: map[string]any{"context": "kind-dev"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "kube-system")
	assert.Equal(t, "kind-dev", gw.lastContext)
}

func TestListNamespaces_CommandFailed(t *testing.T) {
	session := connect(t, &fakeGateway{nsErr: &kubectl.CommandFailedError{ExitCode: 1, Stderr: "context missing"}})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolListNamespaces,
		Arguments: map[string]any{"context": "nope"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), protocol.ErrCodeCommandFailed)
	assert.Contains(t, textOf(t, res), "context missing")
}

func TestListContexts_EmptyList(t *testing.T) {
	session := connect(t, &fakeGateway{})

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ToolListContexts,
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"items":[]}`, textOf(t, res))
}
