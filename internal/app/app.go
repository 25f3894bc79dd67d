package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/codex-k8s/kubectl-gateway/internal/http/handler"
	"github.com/codex-k8s/kubectl-gateway/internal/http/health"
	"github.com/codex-k8s/kubectl-gateway/internal/requestid"
	"github.com/codex-k8s/kubectl-gateway/internal/timeutil"
)

// Options configures the HTTP server.
type Options struct {
	// Addr is the host:port to listen on.
	Addr string
	// Gateway serves the kubectl routes.
	Gateway handler.Gateway
	// Extra mounts additional handlers by path, such as MCP and metrics.
	Extra map[string]http.Handler
	// ReadTimeout limits request read time.
	ReadTimeout time.Duration
	// WriteTimeout limits response write time; zero disables the limit.
	WriteTimeout time.Duration
	// IdleTimeout limits keep-alive idle time.
	IdleTimeout time.Duration
	// ShutdownTimeout controls graceful shutdown duration.
	ShutdownTimeout time.Duration
	// Logger is used for structured logging.
	Logger *slog.Logger
}

// App controls the HTTP server lifecycle.
type App struct {
	baseCtx         context.Context
	server          *http.Server
	health          *health.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New initializes the HTTP server with gateway, health and extra routes.
func New(baseCtx context.Context, opts Options) (*App, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("gateway is nil")
	}
	if baseCtx == nil {
		return nil, fmt.Errorf("base context is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	healthHandler := health.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", healthHandler.Root)
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	handler.New(opts.Gateway, logger).Register(mux)
	for path, route := range opts.Extra {
		if strings.TrimSpace(path) == "" || route == nil {
			continue
		}
		mux.Handle(path, route)
	}

	srv := &http.Server{
		Addr:         opts.Addr,
		Handler:      wrap(handler.JSONFallback(mux), logger),
		ReadTimeout:  timeutil.OrDefault(opts.ReadTimeout, 15*time.Second),
		WriteTimeout: max(opts.WriteTimeout, 0),
		IdleTimeout:  timeutil.OrDefault(opts.IdleTimeout, 60*time.Second),
	}

	return &App{
		baseCtx:         baseCtx,
		server:          srv,
		health:          healthHandler,
		logger:          logger,
		shutdownTimeout: timeutil.OrDefault(opts.ShutdownTimeout, 10*time.Second),
	}, nil
}

// Handler returns the fully wrapped root handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Health exposes the readiness switch.
func (a *App) Health() *health.Handler {
	return a.health
}

// Run listens on the configured address and serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully. Requests in flight keep their own contexts and may finish
// within the shutdown timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	a.health.SetReady()
	a.logger.Info("http server started", "addr", ln.Addr().String())
	go func() {
		errCh <- a.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
		return a.shutdown()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.logger.Error("http server error", "error", err)
		return err
	}
}

func (a *App) shutdown() error {
	a.health.SetNotReady()
	// baseCtx is usually already canceled here, so the grace period must not
	// inherit from it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.baseCtx), a.shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// wrap applies recovery, request ids and CORS. Any origin is accepted and
// reflected back so that browser dashboards can send credentials.
func wrap(next http.Handler, logger *slog.Logger) http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc:  func(string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestid.Header},
		AllowCredentials: true,
	})
	return c.Handler(requestid.Middleware(handler.Recover(logger, next)))
}
