package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultPort is used when PORT is unset or not a valid 16-bit port number.
const DefaultPort uint16 = 6868

// WriteMargin is the time left for encoding and sending a response after the
// slowest request has finished its approvals and kubectl run.
const WriteMargin = 5 * time.Second

// Config stores environment-driven settings for the gateway.
type Config struct {
	// Port selects the listening port. It is kept as text so that an
	// unparsable value falls back to DefaultPort instead of failing startup.
	Port string `env:"PORT"`
	// Host is the listening host.
	Host string `env:"KUBECTL_GATEWAY_HOST" envDefault:"127.0.0.1"`
	// Kubectl is the kubectl executable name or path.
	Kubectl string `env:"KUBECTL_GATEWAY_KUBECTL" envDefault:"kubectl"`
	// ExecTimeout bounds every kubectl process; zero disables the limit.
	ExecTimeout time.Duration `env:"KUBECTL_GATEWAY_EXEC_TIMEOUT" envDefault:"60s"`
	// LogLevel sets the logger level.
	LogLevel string `env:"KUBECTL_GATEWAY_LOG_LEVEL" envDefault:"info"`
	// LogFormat selects json or text log output.
	LogFormat string `env:"KUBECTL_GATEWAY_LOG_FORMAT" envDefault:"json"`
	// PolicyPath points to an optional command policy file.
	PolicyPath string `env:"KUBECTL_GATEWAY_POLICY"`
	// MCPPath mounts the MCP endpoint; "off" disables it.
	MCPPath string `env:"KUBECTL_GATEWAY_MCP_PATH" envDefault:"/mcp"`
	// MetricsPath mounts the Prometheus endpoint; "off" disables it.
	MetricsPath string `env:"KUBECTL_GATEWAY_METRICS_PATH" envDefault:"/metrics"`
	// ReadTimeout limits request read time.
	ReadTimeout time.Duration `env:"KUBECTL_GATEWAY_READ_TIMEOUT" envDefault:"15s"`
	// WriteTimeout limits response write time.
	WriteTimeout time.Duration `env:"KUBECTL_GATEWAY_WRITE_TIMEOUT" envDefault:"90s"`
	// ShutdownTimeout controls graceful shutdown duration.
	ShutdownTimeout time.Duration `env:"KUBECTL_GATEWAY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file from the working directory and parses
// environment variables into Config. Variables already set in the process
// environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed through struct tags.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Kubectl) == "" {
		return fmt.Errorf("KUBECTL_GATEWAY_KUBECTL must not be empty")
	}
	if c.ExecTimeout < 0 {
		return fmt.Errorf("KUBECTL_GATEWAY_EXEC_TIMEOUT must not be negative")
	}
	for name, path := range map[string]string{"KUBECTL_GATEWAY_MCP_PATH": c.MCPEndpoint(), "KUBECTL_GATEWAY_METRICS_PATH": c.MetricsEndpoint()} {
		if path != "" && !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must start with '/'", name)
		}
	}
	return nil
}

// MCPEndpoint returns the MCP mount path, or an empty string when disabled.
func (c Config) MCPEndpoint() string {
	return endpoint(c.MCPPath)
}

// MetricsEndpoint returns the metrics mount path, or an empty string when disabled.
func (c Config) MetricsEndpoint() string {
	return endpoint(c.MetricsPath)
}

func endpoint(path string) string {
	path = strings.TrimSpace(path)
	if strings.EqualFold(path, "off") {
		return ""
	}
	return path
}

// ListenPort returns the configured port, or DefaultPort when PORT is unset
// or does not parse as an unsigned 16-bit integer. Surrounding whitespace
// makes the value invalid; a single leading '+' is accepted.
func (c Config) ListenPort() uint16 {
	port, err := strconv.ParseUint(strings.TrimPrefix(c.Port, "+"), 10, 16)
	if err != nil {
		return DefaultPort
	}
	return uint16(port)
}

// ResponseWriteTimeout returns the HTTP write timeout for a request budget,
// the longest time approvals plus kubectl may take. The configured value is
// raised to budget+WriteMargin so a slow command still gets a response
// instead of a closed connection; an unbounded budget disables the timeout.
func (c Config) ResponseWriteTimeout(budget time.Duration) time.Duration {
	if budget <= 0 {
		return 0
	}
	if floor := budget + WriteMargin; c.WriteTimeout < floor {
		return floor
	}
	return c.WriteTimeout
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.ListenPort())))
}
