// Package system gathers host-level state around the node: trie storage
// usage, systemd service health, machine resources, and an external
// chain head for comparison.
package system

import (
	"fmt"
	"time"
)

// ServiceStatus is one systemd unit's probe result.
type ServiceStatus struct {
	Name   string
	Active bool
}

// Snapshot is one system probe round. Every probe is best-effort, so
// fields a probe could not fill stay zeroed.
type Snapshot struct {
	// Trie storage, from the storage tool's report.
	DiskCapacityGB  float64
	DiskUsedGB      float64
	DiskUsedPct     float64
	HistoryCount    uint64
	HistoryEarliest uint64
	HistoryLatest   uint64
	LatestFinalized uint64
	LatestVerified  uint64

	// systemd units, in configured order.
	Services []ServiceStatus
	// Unix seconds the first service became active, 0 if unknown.
	ServiceStartedAt uint64

	// Head reported by the external comparison endpoint.
	ExternalBlock uint64

	// Machine resources.
	MemoryUsedPct float64
	MemoryUsedGB  float64
	MemoryTotalGB float64
	CPUUsagePct   float64
	NetRxBytes    uint64
	NetTxBytes    uint64

	NodeID string
}

// BlockDifference is how far the external head is ahead of the local
// one. Zero when the external probe failed, so a dead comparison
// endpoint never reads as lag.
func (s *Snapshot) BlockDifference(localBlock uint64) int64 {
	if s.ExternalBlock == 0 {
		return 0
	}
	return int64(s.ExternalBlock) - int64(localBlock)
}

// FinalizedLag is how many blocks finalization trails the trie's
// latest block.
func (s *Snapshot) FinalizedLag() uint64 {
	if s.LatestFinalized > s.HistoryLatest {
		return 0
	}
	return s.HistoryLatest - s.LatestFinalized
}

// VerifiedLag is how many blocks verification trails the trie's
// latest block.
func (s *Snapshot) VerifiedLag() uint64 {
	if s.LatestVerified > s.HistoryLatest {
		return 0
	}
	return s.HistoryLatest - s.LatestVerified
}

// AllServicesRunning reports whether every probed unit is active.
func (s *Snapshot) AllServicesRunning() bool {
	if len(s.Services) == 0 {
		return false
	}
	for _, svc := range s.Services {
		if !svc.Active {
			return false
		}
	}
	return true
}

// UptimeSinceRestart formats how long the first service has been up.
// Returns "..." until the start time is known.
func (s *Snapshot) UptimeSinceRestart(now time.Time) string {
	if s.ServiceStartedAt == 0 {
		return "..."
	}
	secs := now.Unix()
	if secs < int64(s.ServiceStartedAt) {
		return "..."
	}

	elapsed := uint64(secs) - s.ServiceStartedAt
	days := elapsed / 86400
	hours := (elapsed % 86400) / 3600
	mins := (elapsed % 3600) / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
