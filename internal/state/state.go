// Package state aggregates the three source snapshots into one view
// and derives the dashboard's higher-order signals: TPS, trends, lag,
// network rates, and the heartbeat pulse.
package state

import (
	"fmt"
	"time"

	"github.com/nodetop/nodetop/internal/metrics"
	"github.com/nodetop/nodetop/internal/rpc"
	"github.com/nodetop/nodetop/internal/system"
)

const (
	// tpsHistorySize covers ~5 minutes at one sample per second and
	// fills wide terminals.
	tpsHistorySize = 300
	// txSampleSize bounds the window TPS is computed over.
	txSampleSize = 10
	// tpsDisplayCap keeps one absurd sample from flattening the
	// sparkline for five minutes.
	tpsDisplayCap = 10000

	// Noise thresholds below which a trend reads as flat.
	tpsTrendThreshold     = 50.0
	latencyTrendThreshold = 20
	peersTrendThreshold   = 5

	// pulseWindow is how long the heartbeat dot takes to fade after a
	// new block.
	pulseWindow = time.Second
)

type txSample struct {
	txCommits   uint64
	timestampMs uint64
}

// AppState is the single mutable aggregate. It is owned by the
// dashboard's update loop; producers never touch it, they only hand
// snapshots over a channel.
type AppState struct {
	Metrics *metrics.Snapshot
	RPC     *rpc.Snapshot
	System  *system.Snapshot

	txSamples  []txSample
	tps        float64
	prevTPS    float64
	peakTPS    float64
	tpsHistory []uint64

	// Previous-cycle values captured before overwrite, for trends.
	prevLatency uint64
	prevPeers   uint64

	prevNetRx uint64
	prevNetTx uint64
	rxRate    float64
	txRate    float64

	systemIntervalSecs float64

	lastUpdate      time.Time
	lastBlockTime   time.Time
	lastBlockNumber uint64

	lastError string

	now func() time.Time
}

// New builds a zeroed aggregate. systemInterval is the cadence system
// snapshots arrive at, used to turn byte counters into rates.
func New(systemInterval time.Duration) *AppState {
	s := &AppState{
		Metrics:            &metrics.Snapshot{},
		RPC:                &rpc.Snapshot{},
		System:             &system.Snapshot{},
		txSamples:          make([]txSample, 0, txSampleSize),
		tpsHistory:         make([]uint64, 0, tpsHistorySize),
		systemIntervalSecs: systemInterval.Seconds(),
		now:                time.Now,
	}
	s.lastUpdate = s.now()
	return s
}

// UpdateMetrics ingests a metrics poll. A successful poll is the only
// event that clears the error banner; RPC and system recoveries do not.
func (s *AppState) UpdateMetrics(snap *metrics.Snapshot) {
	if snap.BlockNum > s.lastBlockNumber {
		s.lastBlockTime = s.now()
		s.lastBlockNumber = snap.BlockNum
	}

	if snap.TxCommitsTimestamp > 0 {
		newest := s.newestSample()
		if newest == nil || snap.TxCommitsTimestamp > newest.timestampMs {
			s.txSamples = append(s.txSamples, txSample{
				txCommits:   snap.TxCommits,
				timestampMs: snap.TxCommitsTimestamp,
			})
			if len(s.txSamples) > txSampleSize {
				s.txSamples = s.txSamples[1:]
			}
		}
	}

	s.recalcTPS()

	// Capture trend baselines before the overwrite.
	s.prevLatency = s.Metrics.LatencyP99Ms
	s.prevPeers = s.Metrics.PeerCount

	s.Metrics = snap
	s.lastUpdate = s.now()
	s.lastError = ""
}

// UpdateRPC ingests an RPC snapshot. Whichever source reports a higher
// block first wins the heartbeat.
func (s *AppState) UpdateRPC(snap *rpc.Snapshot) {
	if len(snap.RecentBlocks) > 0 && snap.RecentBlocks[0].Number > s.lastBlockNumber {
		s.lastBlockTime = s.now()
		s.lastBlockNumber = snap.RecentBlocks[0].Number
	}
	s.RPC = snap
}

// UpdateSystem ingests a system probe round and updates network rates.
// Rates only move when the counters grew; a counter reset (reboot,
// interface churn) keeps the previous rate instead of going negative.
func (s *AppState) UpdateSystem(snap *system.Snapshot) {
	if s.systemIntervalSecs > 0 {
		if snap.NetRxBytes > s.prevNetRx {
			s.rxRate = float64(snap.NetRxBytes-s.prevNetRx) / s.systemIntervalSecs
		}
		if snap.NetTxBytes > s.prevNetTx {
			s.txRate = float64(snap.NetTxBytes-s.prevNetTx) / s.systemIntervalSecs
		}
	}
	s.prevNetRx = snap.NetRxBytes
	s.prevNetTx = snap.NetTxBytes
	s.System = snap
}

// SetError records a per-source failure. The newest error wins.
func (s *AppState) SetError(msg string) {
	s.lastError = msg
}

// recalcTPS derives throughput from the oldest and newest retained
// samples. Intermediate samples only serve to keep the window fresh.
func (s *AppState) recalcTPS() {
	if len(s.txSamples) < 2 {
		return
	}
	oldest := s.txSamples[0]
	newest := s.txSamples[len(s.txSamples)-1]

	if newest.timestampMs <= oldest.timestampMs {
		return
	}
	deltaMs := newest.timestampMs - oldest.timestampMs

	// A counter reset reads as zero throughput, not a skipped cycle.
	var deltaTx uint64
	if newest.txCommits > oldest.txCommits {
		deltaTx = newest.txCommits - oldest.txCommits
	}

	s.prevTPS = s.tps
	s.tps = float64(deltaTx) / float64(deltaMs) * 1000
	if s.tps > s.peakTPS {
		s.peakTPS = s.tps
	}

	capped := s.tps
	if capped > tpsDisplayCap {
		capped = tpsDisplayCap
	}
	s.tpsHistory = append(s.tpsHistory, uint64(capped))
	if len(s.tpsHistory) > tpsHistorySize {
		s.tpsHistory = s.tpsHistory[1:]
	}
}

func (s *AppState) newestSample() *txSample {
	if len(s.txSamples) == 0 {
		return nil
	}
	return &s.txSamples[len(s.txSamples)-1]
}

// TPS is the current transactions-per-second estimate.
func (s *AppState) TPS() float64 { return s.tps }

// PeakTPS is the high-water mark since startup.
func (s *AppState) PeakTPS() float64 { return s.peakTPS }

// LastError is the most recent per-source failure, empty when the last
// metrics poll succeeded.
func (s *AppState) LastError() string { return s.lastError }

// BlockHeight prefers the RPC head; the metrics counter lags it.
func (s *AppState) BlockHeight() uint64 {
	if s.RPC.BlockNumber > 0 {
		return s.RPC.BlockNumber
	}
	return s.Metrics.BlockNum
}

// RecentBlocks is the newest-first block window.
func (s *AppState) RecentBlocks() []rpc.Block {
	return s.RPC.RecentBlocks
}

// SyncStatus is a one-word sync summary.
func (s *AppState) SyncStatus() string {
	if s.Metrics.IsSynced() {
		return "synced"
	}
	return "syncing"
}

// PeerHealth buckets the peer count for display.
func (s *AppState) PeerHealth() string {
	switch n := s.Metrics.PeerCount; {
	case n == 0:
		return "no peers"
	case n <= 10:
		return "low"
	case n <= 50:
		return "ok"
	default:
		return "healthy"
	}
}

// TimeSinceLastBlock reports how long ago either source last observed a
// new block. ok is false until the first block arrives.
func (s *AppState) TimeSinceLastBlock() (time.Duration, bool) {
	if s.lastBlockTime.IsZero() {
		return 0, false
	}
	return s.now().Sub(s.lastBlockTime), true
}

// PulseIntensity drives the heartbeat dot: 1.0 at a new block, fading
// linearly to 0.0 over one second. Another block mid-fade resets it.
func (s *AppState) PulseIntensity() float64 {
	if s.lastBlockTime.IsZero() {
		return 0
	}
	elapsed := s.now().Sub(s.lastBlockTime)
	if elapsed >= pulseWindow {
		return 0
	}
	if elapsed < 0 {
		return 1
	}
	return 1 - float64(elapsed)/float64(pulseWindow)
}

// TPSTrend is -1, 0, or 1 against the previous reading, flat within
// the noise threshold.
func (s *AppState) TPSTrend() int {
	return trendFloat(s.tps, s.prevTPS, tpsTrendThreshold)
}

// LatencyTrend compares the current p99 against the previous cycle.
func (s *AppState) LatencyTrend() int {
	return trendUint(s.Metrics.LatencyP99Ms, s.prevLatency, latencyTrendThreshold)
}

// PeersTrend compares the current peer count against the previous cycle.
func (s *AppState) PeersTrend() int {
	return trendUint(s.Metrics.PeerCount, s.prevPeers, peersTrendThreshold)
}

// TPSSparkline is a copy of the history ring, oldest first.
func (s *AppState) TPSSparkline() []uint64 {
	out := make([]uint64, len(s.tpsHistory))
	copy(out, s.tpsHistory)
	return out
}

// RxRate is the receive throughput in bytes per second.
func (s *AppState) RxRate() float64 { return s.rxRate }

// TxRate is the transmit throughput in bytes per second.
func (s *AppState) TxRate() float64 { return s.txRate }

func trendFloat(current, previous, threshold float64) int {
	delta := current - previous
	switch {
	case delta >= threshold:
		return 1
	case delta <= -threshold:
		return -1
	default:
		return 0
	}
}

func trendUint(current, previous, threshold uint64) int {
	if current >= previous {
		if current-previous >= threshold {
			return 1
		}
		return 0
	}
	if previous-current >= threshold {
		return -1
	}
	return 0
}

// FormatBandwidth renders a byte rate as a short human string.
func FormatBandwidth(bytesPerSec float64) string {
	switch {
	case bytesPerSec >= 1<<30:
		return fmt.Sprintf("%.1f GB/s", bytesPerSec/(1<<30))
	case bytesPerSec >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/(1<<20))
	case bytesPerSec >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/(1<<10))
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	}
}
