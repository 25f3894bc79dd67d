package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenPort(t *testing.T) {
	tests := []struct {
		port string
		want uint16
	}{
		{"", 6868},
		{"8080", 8080},
		{" 9000 ", 6868},
		{" 80", 6868},
		{"80\n", 6868},
		{"+80", 80},
		{"++80", 6868},
		{"0", 0},
		{"65535", 65535},
		{"65536", 6868},
		{"-1", 6868},
		{"http", 6868},
		{"80.5", 6868},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			assert.Equal(t, tt.want, Config{Port: tt.port}.ListenPort())
		})
	}
}

func TestResponseWriteTimeout(t *testing.T) {
	cfg := Config{WriteTimeout: 90 * time.Second}

	tests := []struct {
		name   string
		budget time.Duration
		want   time.Duration
	}{
		{"budget well inside", 30 * time.Second, 90 * time.Second},
		{"budget near the limit", 88 * time.Second, 93 * time.Second},
		{"budget above the limit", 10 * time.Minute, 10*time.Minute + WriteMargin},
		{"unbounded budget", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ResponseWriteTimeout(tt.budget))
		})
	}
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:6868", Config{Host: "127.0.0.1"}.Addr())
	assert.Equal(t, ":7000", Config{Port: "7000"}.Addr())
	assert.Equal(t, "[::1]:6868", Config{Host: "::1", Port: "nope"}.Addr())
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint16(6868), cfg.ListenPort())
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "kubectl", cfg.Kubectl)
	assert.Equal(t, 60*time.Second, cfg.ExecTimeout)
	assert.Equal(t, "/mcp", cfg.MCPPath)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "not-a-port")
	t.Setenv("KUBECTL_GATEWAY_KUBECTL", "/usr/local/bin/kubectl")
	t.Setenv("KUBECTL_GATEWAY_EXEC_TIMEOUT", "5s")
	t.Setenv("KUBECTL_GATEWAY_MCP_PATH", "off")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint16(6868), cfg.ListenPort())
	assert.Equal(t, "/usr/local/bin/kubectl", cfg.Kubectl)
	assert.Equal(t, 5*time.Second, cfg.ExecTimeout)
	assert.Equal(t, "", cfg.MCPEndpoint())
	assert.Equal(t, "/metrics", cfg.MetricsEndpoint())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KUBECTL_GATEWAY_LOG_LEVEL=debug\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("KUBECTL_GATEWAY_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("KUBECTL_GATEWAY_LOG_LEVEL"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := Config{Kubectl: "kubectl", MCPPath: "/mcp"}
	require.NoError(t, valid.Validate())

	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Kubectl: "kubectl", ExecTimeout: -time.Second}.Validate())
	assert.Error(t, Config{Kubectl: "kubectl", MetricsPath: "metrics"}.Validate())
	require.NoError(t, Config{Kubectl: "kubectl", MetricsPath: "OFF"}.Validate())
}
