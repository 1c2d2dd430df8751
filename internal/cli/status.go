package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodetop/nodetop/internal/config"
	"github.com/nodetop/nodetop/internal/logger"
	"github.com/nodetop/nodetop/internal/metrics"
	"github.com/nodetop/nodetop/internal/rpc"
	"github.com/nodetop/nodetop/internal/system"
)

// statusCmd does one plain-text fetch of every source, for scripting
// and for debugging endpoints without the TUI.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "One-shot node status without the TUI",
	Long: `Fetch metrics, RPC, and system state once and print a plain-text
summary. Useful in scripts and when diagnosing endpoint problems.

Examples:
  nodetop status
  nodetop status --config /etc/nodetop/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runStatus(cfg)
	},
}

func runStatus(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// No TUI here, so stderr logging is safe.
	log := logger.NewEnvLogger("[status]")

	fmt.Printf("metrics   %s\n", cfg.MetricsURL)
	snap, err := metrics.NewClient(cfg.MetricsURL, cfg.RequestTimeout).Fetch(ctx)
	if err != nil {
		fmt.Printf("  error: %v\n", err)
	} else {
		fmt.Printf("  block: %d  peers: %d  sync: %.2f%%  uptime: %s\n",
			snap.BlockNum, snap.PeerCount, snap.SyncPercentage(), snap.UptimeHuman())
		fmt.Printf("  latency p99: %dms  pending txs: %d  validators: %d\n",
			snap.LatencyP99Ms, snap.PendingTxs, snap.UpstreamValidators)
	}

	fmt.Printf("rpc       %s\n", cfg.RPCURL)
	rpcClient := rpc.NewClient(cfg.RPCURL, cfg.RequestTimeout, log)
	if rpcClient.SubscribeMode() {
		fmt.Println("  (subscription endpoint; status polls skip it, run the dashboard instead)")
	} else if rpcSnap, err := rpcClient.Fetch(ctx); err != nil {
		fmt.Printf("  error: %v\n", err)
	} else {
		fmt.Printf("  head: %d  gas: %.1f gwei  client: %s  window: %d blocks\n",
			rpcSnap.BlockNumber, rpcSnap.GasPriceGwei, rpcSnap.ClientVersion, len(rpcSnap.RecentBlocks))
	}

	fmt.Println("system")
	sys := system.NewCollector(cfg, log).Fetch(ctx)
	fmt.Printf("  host: %s  disk: %.1f%% (%.0f/%.0f GB)  mem: %.1f%%  cpu: %.1f%%\n",
		sys.NodeID, sys.DiskUsedPct, sys.DiskUsedGB, sys.DiskCapacityGB,
		sys.MemoryUsedPct, sys.CPUUsagePct)
	for _, svc := range sys.Services {
		mark := "✗"
		if svc.Active {
			mark = "✓"
		}
		fmt.Printf("  %s %s\n", mark, svc.Name)
	}
	if sys.ExternalBlock > 0 {
		fmt.Printf("  external head: %d\n", sys.ExternalBlock)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
