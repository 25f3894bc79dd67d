package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/codex-k8s/kubectl-gateway/configs"
	"github.com/codex-k8s/kubectl-gateway/internal/app"
	"github.com/codex-k8s/kubectl-gateway/internal/audit"
	"github.com/codex-k8s/kubectl-gateway/internal/config"
	"github.com/codex-k8s/kubectl-gateway/internal/kubectl"
	"github.com/codex-k8s/kubectl-gateway/internal/log"
	"github.com/codex-k8s/kubectl-gateway/internal/mcpserver"
	"github.com/codex-k8s/kubectl-gateway/internal/policy"
	"github.com/codex-k8s/kubectl-gateway/internal/render"
	"github.com/codex-k8s/kubectl-gateway/internal/startup"
)

const serviceName = "kubectl-gateway"

func newRootCommand() *cobra.Command {
	var embeddedPolicy string

	serve := func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context(), embeddedPolicy)
	}

	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "HTTP gateway that runs kubectl on behalf of browser dashboards",
		Long: `kubectl-gateway exposes the local kubectl binary over HTTP so that
dashboards which cannot spawn processes can list contexts and namespaces and
run kubectl commands. It is configured through environment variables; see
KUBECTL_GATEWAY_* and PORT.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	rootCmd.PersistentFlags().StringVar(&embeddedPolicy, "embedded-policy", "", "use an embedded command policy from configs/ (filename)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway (default)",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the gateway version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "policies",
		Short: "List embedded command policies",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range configs.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	})

	return rootCmd
}

func runServe(parent context.Context, embeddedPolicy string) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := log.New(cfg.LogLevel, cfg.LogFormat)

	policyCfg, err := loadPolicy(cfg.PolicyPath, embeddedPolicy)
	if err != nil {
		return err
	}
	chain, err := policy.Build(policyCfg)
	if err != nil {
		return fmt.Errorf("build policy: %w", err)
	}

	runner := kubectl.Runner{
		Binary:    cfg.Kubectl,
		Timeout:   policy.ExecTimeout(policyCfg, cfg.ExecTimeout),
		Approvals: chain,
		Audit:     audit.New(logger),
		Logger:    logger,
	}
	if policyCfg != nil {
		runner.Env = policyCfg.Env
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	startup.Run(ctx, startup.Preflight{Binary: runner.Binary, Env: runner.Env}, logger)

	application, err := app.New(ctx, app.Options{
		Addr:            cfg.Addr(),
		Gateway:         runner,
		Extra:           extraRoutes(cfg, runner, logger),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.ResponseWriteTimeout(policy.RequestBudget(policyCfg, runner.Timeout)),
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	logger.Info("gateway configured",
		"kubectl", runner.Binary,
		"exec_timeout", runner.Timeout.String(),
		"approvers", chain.Len(),
		"mcp_path", cfg.MCPEndpoint(),
		"metrics_path", cfg.MetricsEndpoint(),
	)
	return application.Run(ctx)
}

func loadPolicy(path, embedded string) (*policy.Config, error) {
	var (
		rendered []byte
		err      error
	)
	switch {
	case embedded != "":
		raw, loadErr := configs.Load(embedded)
		if loadErr != nil {
			return nil, loadErr
		}
		rendered, err = render.Bytes(embedded, raw)
	case path != "":
		rendered, err = render.File(path)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("render policy: %w", err)
	}

	cfg, err := policy.Load(rendered)
	if err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	return cfg, nil
}

func extraRoutes(cfg config.Config, runner kubectl.Runner, logger *slog.Logger) map[string]http.Handler {
	routes := make(map[string]http.Handler, 2)
	if path := cfg.MCPEndpoint(); path != "" {
		server := mcpserver.Builder{
			Name:    serviceName,
			Version: version,
			Gateway: runner,
			Logger:  logger,
		}.Build()
		routes[path] = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{Stateless: true})
	}
	if path := cfg.MetricsEndpoint(); path != "" {
		routes[path] = promhttp.Handler()
	}
	return routes
}
