package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodetop/nodetop/internal/config"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dev", "dev"},
		{"", ""},
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatVersion(tt.in))
		})
	}
}

func TestSetVersionInfo(t *testing.T) {
	defer SetVersionInfo("dev", "none", "unknown")

	SetVersionInfo("1.0.0", "abc123", "2026-01-01")
	assert.Equal(t, "1.0.0", version)
	assert.Equal(t, "abc123", commit)
	assert.Equal(t, "2026-01-01", date)
}

func resetFlags() {
	configFlag = ""
	metricsURLFlag = ""
	rpcURLFlag = ""
	intervalFlag = ""
	logFileFlag = ""
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	defer resetFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	base := config.DefaultConfig()
	require.NoError(t, base.Save(path))

	configFlag = path
	metricsURLFlag = "http://10.0.0.9:8889/metrics"
	rpcURLFlag = "wss://node.example.com"
	intervalFlag = "2s"

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.9:8889/metrics", cfg.MetricsURL)
	assert.Equal(t, "wss://node.example.com", cfg.RPCURL)
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
}

func TestLoadConfigBadInterval(t *testing.T) {
	defer resetFlags()

	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(orig) }()
	t.Setenv("HOME", dir)

	intervalFlag = "not-a-duration"
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	defer resetFlags()

	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(orig) }()
	t.Setenv("HOME", dir)

	rpcURLFlag = "ftp://nope"
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["init"])
	assert.True(t, names["status"])
	assert.True(t, names["version"])
	assert.True(t, names["completion"])
}
