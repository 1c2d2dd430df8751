package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .nodetop.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// MetricsURL is the Prometheus exposition endpoint of the local node.
	MetricsURL string `yaml:"metrics_url" mapstructure:"metrics_url"`

	// RPCURL is the chain RPC endpoint. A ws:// or wss:// scheme selects the
	// push subscription client; http:// or https:// selects per-tick polling.
	RPCURL string `yaml:"rpc_url" mapstructure:"rpc_url"`

	// Network names the chain network (mainnet, testnet) and selects the
	// default third-party comparison endpoint.
	Network string `yaml:"network" mapstructure:"network"`

	// CompareURL overrides the third-party endpoint used for head-drift
	// comparison. Empty means derive from Network.
	CompareURL string `yaml:"compare_url" mapstructure:"compare_url"`

	// RefreshInterval is the metrics/RPC polling cadence.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// SystemInterval is the host-probe cadence. Also the window used for
	// network byte-rate deltas.
	SystemInterval time.Duration `yaml:"system_interval" mapstructure:"system_interval"`

	// RequestTimeout bounds each HTTP request issued by the pollers.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	// Storage configures the on-disk database inspection probe.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Services are the systemd units whose liveness is displayed. The first
	// entry's activation timestamp drives the uptime-since-restart readout.
	Services []string `yaml:"services" mapstructure:"services"`

	// LogFile, when set, receives structured JSON logs from the background
	// pollers. Empty disables logging (the TUI owns the terminal).
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
}

// StorageConfig describes how to invoke the storage inspection tool.
type StorageConfig struct {
	// Command is the executable that reports database disk usage and
	// retained history (e.g. monad-mpt).
	Command string `yaml:"command" mapstructure:"command"`

	// Path is the block-device or directory passed via --storage.
	Path string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns a Config with sensible defaults for a local node.
func DefaultConfig() *Config {
	return &Config{
		Version:         CurrentConfigVersion,
		MetricsURL:      "http://localhost:8889/metrics",
		RPCURL:          "ws://localhost:8080",
		Network:         "mainnet",
		RefreshInterval: time.Second,
		SystemInterval:  5 * time.Second,
		RequestTimeout:  10 * time.Second,
		Storage: StorageConfig{
			Command: "monad-mpt",
			Path:    "/dev/triedb",
		},
		Services: []string{"monad-bft", "monad-execution", "monad-rpc"},
	}
}

// ComparisonURL returns the third-party endpoint for head-drift comparison.
func (c *Config) ComparisonURL() string {
	if c.CompareURL != "" {
		return c.CompareURL
	}
	return fmt.Sprintf("https://rpc-%s.monadinfra.com", c.Network)
}

// SubscribeMode reports whether the RPC endpoint selects the push
// subscription client rather than per-tick polling.
func (c *Config) SubscribeMode() bool {
	return strings.HasPrefix(c.RPCURL, "ws://") || strings.HasPrefix(c.RPCURL, "wss://")
}

// Save writes the config to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
