package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/kubectl-gateway/internal/config"
	"github.com/codex-k8s/kubectl-gateway/internal/protocol"
	"github.com/codex-k8s/kubectl-gateway/internal/requestid"
)

type stubGateway struct{}

func (stubGateway) Run(context.Context, protocol.CommandRequest) (protocol.CommandResult, error) {
	return protocol.CommandResult{Stdout: "ok"}, nil
}

func (stubGateway) Namespaces(context.Context, string) ([]string, error) {
	return []string{"default"}, nil
}

func (stubGateway) Contexts(context.Context) ([]string, error) {
	return []string{"ctx-a"}, nil
}

func newTestApp(t *testing.T, extra map[string]http.Handler) *App {
	t.Helper()
	a, err := New(context.Background(), Options{Addr: "127.0.0.1:0", Gateway: stubGateway{}, Extra: extra})
	require.NoError(t, err)
	return a
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
}

func TestRoutes(t *testing.T) {
	h := newTestApp(t, nil).Handler()

	tests := []struct {
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{http.MethodGet, "/", "", http.StatusOK, ""},
		{http.MethodGet, "/contexts", "", http.StatusOK, `["ctx-a"]`},
		{http.MethodGet, "/namespaces?context=ctx-a", "", http.StatusOK, `["default"]`},
		{http.MethodPost, "/run-cmd", `{"command":"get pods"}`, http.StatusOK, `{"stdout":"ok","stderr":"","exit_code":0}`},
		{http.MethodGet, "/run-cmd", "", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/unknown", "", http.StatusNotFound, ""},
		{http.MethodPost, "/contexts", "", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			require.Equal(t, tt.status, w.Code)
			if tt.want != "" {
				assert.JSONEq(t, tt.want, w.Body.String())
			}
			if tt.path == "/" {
				assert.Empty(t, w.Body.String())
			}
			if tt.status >= http.StatusBadRequest {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
			assert.NotEmpty(t, w.Header().Get(requestid.Header))
		})
	}
}

func TestCORS_ReflectsOriginWithCredentials(t *testing.T) {
	h := newTestApp(t, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/contexts", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://dashboard.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_Preflight(t *testing.T) {
	h := newTestApp(t, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/run-cmd", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCORS_PreflightRejectsDeleteMethod(t *testing.T) {
	h := newTestApp(t, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/run-cmd", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestExtraRoutes(t *testing.T) {
	extra := map[string]http.Handler{
		"/metrics": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		}),
		"": http.NotFoundHandler(),
	}
	h := newTestApp(t, extra).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "metrics", w.Body.String())
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	a := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, a.Health().Ready, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, a.Health().Ready())
}

type slowGateway struct {
	stubGateway
	started chan struct{}
	delay   time.Duration
}

func (g slowGateway) Run(ctx context.Context, _ protocol.CommandRequest) (protocol.CommandResult, error) {
	close(g.started)
	select {
	case <-time.After(g.delay):
		return protocol.CommandResult{Stdout: "done"}, nil
	case <-ctx.Done():
		return protocol.CommandResult{}, ctx.Err()
	}
}

func TestServe_InFlightRequestFinishesDuringShutdown(t *testing.T) {
	gw := slowGateway{started: make(chan struct{}), delay: 300 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, Options{Gateway: gw, ShutdownTimeout: 5 * time.Second})
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	type reply struct {
		status int
		body   string
		err    error
	}
	replies := make(chan reply, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/run-cmd", "application/json", strings.NewReader(`{"command":"get pods"}`))
		if err != nil {
			replies <- reply{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		replies <- reply{status: resp.StatusCode, body: string(body), err: err}
	}()

	select {
	case <-gw.started:
	case <-time.After(5 * time.Second):
		t.Fatal("request did not reach the gateway")
	}
	cancel()

	select {
	case r := <-replies:
		require.NoError(t, r.err)
		assert.Equal(t, http.StatusOK, r.status)
		assert.JSONEq(t, `{"stdout":"done","stderr":"","exit_code":0}`, r.body)
	case <-time.After(5 * time.Second):
		t.Fatal("no response")
	}
	require.NoError(t, <-done)
}

func TestServe_WriteTimeoutCoversSlowCommand(t *testing.T) {
	gw := slowGateway{started: make(chan struct{}), delay: 400 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Config{WriteTimeout: 200 * time.Millisecond}
	a, err := New(ctx, Options{Gateway: gw, WriteTimeout: cfg.ResponseWriteTimeout(gw.delay)})
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = a.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/run-cmd", "application/json", strings.NewReader(`{"command":"get pods"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
