// Package metrics fetches and parses the node's Prometheus exposition
// endpoint into a point-in-time snapshot of chain-level counters.
package metrics

import (
	"fmt"
	"time"
)

// Snapshot holds one poll of the node's Prometheus metrics endpoint.
// Counters the endpoint does not report stay at their zero value.
type Snapshot struct {
	BlockNum           uint64
	TxCommits          uint64
	TxCommitsTimestamp uint64 // unix millis reported next to the tx counter
	PeerCount          uint64
	StatesyncProgress  uint64
	StatesyncTarget    uint64
	UptimeUs           uint64
	LatencyP99Ms       uint64
	PendingTxs         uint64
	UpstreamValidators uint64
}

// SyncPercentage estimates statesync completion. A zero target means the
// node never entered statesync, which reads as fully synced.
func (s *Snapshot) SyncPercentage() float64 {
	if s.StatesyncTarget == 0 {
		return 100.0
	}
	return float64(s.StatesyncProgress) / float64(s.StatesyncTarget) * 100.0
}

// IsSynced reports whether the node is effectively caught up.
func (s *Snapshot) IsSynced() bool {
	return s.SyncPercentage() >= 99.99
}

// UptimeHuman renders the node's self-reported uptime as a short
// duration string like "3d 4h" or "12m".
func (s *Snapshot) UptimeHuman() string {
	d := time.Duration(s.UptimeUs) * time.Microsecond
	switch {
	case d >= 24*time.Hour:
		days := d / (24 * time.Hour)
		hours := (d % (24 * time.Hour)) / time.Hour
		return fmt.Sprintf("%dd %dh", days, hours)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", d/time.Hour, (d%time.Hour)/time.Minute)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}
