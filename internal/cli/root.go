// Package cli wires the cobra command tree: the root command runs the
// dashboard, subcommands cover init, status, version, and completion.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodetop/nodetop/internal/config"
	"github.com/nodetop/nodetop/internal/dash"
	"github.com/nodetop/nodetop/internal/errors"
	"github.com/nodetop/nodetop/internal/logger"
)

// Root command flags
var (
	configFlag     string
	metricsURLFlag string
	rpcURLFlag     string
	intervalFlag   string
	logFileFlag    string
)

// rootCmd starts the dashboard when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "nodetop",
	Short: "Live terminal dashboard for a Monad node",
	Long: `nodetop renders a live dashboard for a blockchain validator/full
node: chain metrics, recent blocks over JSON-RPC, and host health,
refreshed at interactive rates.

Keyboard shortcuts:
  q / Esc / Ctrl+C  Quit
  r                 Force refresh
  ?                 Show help

Examples:
  nodetop
  nodetop --rpc-url ws://localhost:8080
  nodetop --metrics-url http://10.0.0.5:8889/metrics --interval 2s`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log := logger.Noop()
		if cfg.LogFile != "" {
			log, err = logger.NewFileLogger(cfg.LogFile)
			if err != nil {
				return err
			}
		}
		logger.SetDefault(log)

		return dash.Run(cfg, log)
	},
}

// loadConfig resolves config from file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}

	if metricsURLFlag != "" {
		cfg.MetricsURL = metricsURLFlag
	}
	if rpcURLFlag != "" {
		cfg.RPCURL = rpcURLFlag
	}
	if logFileFlag != "" {
		cfg.LogFile = logFileFlag
	}
	if intervalFlag != "" {
		parsed, err := time.ParseDuration(intervalFlag)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Invalid interval: %s", intervalFlag),
				"Use a valid duration like 1s, 2s, or 500ms")
		}
		cfg.RefreshInterval = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&metricsURLFlag, "metrics-url", "", "Prometheus metrics endpoint")
	rootCmd.Flags().StringVar(&rpcURLFlag, "rpc-url", "", "JSON-RPC endpoint (http(s):// polls, ws(s):// subscribes)")
	rootCmd.Flags().StringVar(&intervalFlag, "interval", "", "refresh interval (e.g., 1s, 2s)")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "write debug logs to this file")
}

// Execute runs the command tree and prints structured errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
