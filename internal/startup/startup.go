package startup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codex-k8s/kubectl-gateway/internal/executil"
	"github.com/codex-k8s/kubectl-gateway/internal/kubectl"
)

// DefaultTimeout bounds the preflight probe.
const DefaultTimeout = 10 * time.Second

// Preflight describes the boot-time kubectl probe.
type Preflight struct {
	// Binary is the kubectl executable name or path.
	Binary string
	// Env adds environment variables to the probe process.
	Env map[string]string
	// Timeout bounds the probe; zero means DefaultTimeout.
	Timeout time.Duration
}

// Check runs `kubectl version --client` and returns the first line of its output.
func (p Preflight) Check(ctx context.Context) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	binary := p.Binary
	if binary == "" {
		binary = kubectl.DefaultBinary
	}

	res, err := executil.Run(ctx, executil.Spec{
		Path:    binary,
		Args:    kubectl.VersionArgs(),
		Env:     p.Env,
		Timeout: timeout,
	})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s exited with code %d: %s", binary, res.ExitCode, strings.TrimSpace(kubectl.DecodeOutput(res.Stderr)))
	}
	line, _, _ := strings.Cut(strings.TrimSpace(kubectl.DecodeOutput(res.Stdout)), "\n")
	return strings.TrimSpace(line), nil
}

// Run executes the preflight and logs its outcome. A failing probe does not
// stop the gateway: every request reports spawn failures on its own.
func Run(ctx context.Context, p Preflight, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	version, err := p.Check(ctx)
	if err != nil {
		logger.Warn("kubectl preflight failed", "binary", p.Binary, "error", err)
		return
	}
	logger.Info("kubectl preflight ok", "binary", p.Binary, "version", version)
}
