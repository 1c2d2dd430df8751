package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodetop/nodetop/internal/metrics"
	"github.com/nodetop/nodetop/internal/rpc"
	"github.com/nodetop/nodetop/internal/system"
)

// fixedClock pins AppState's notion of now for deterministic tests.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestState() (*AppState, *fixedClock) {
	clock := &fixedClock{t: time.Unix(1_700_000_000, 0)}
	s := New(5 * time.Second)
	s.now = clock.Now
	return s, clock
}

func metricsAt(txCommits, timestampMs uint64) *metrics.Snapshot {
	return &metrics.Snapshot{TxCommits: txCommits, TxCommitsTimestamp: timestampMs}
}

func TestTPSSimpleRate(t *testing.T) {
	s, _ := newTestState()

	s.UpdateMetrics(metricsAt(100, 1_000))
	s.UpdateMetrics(metricsAt(200, 2_000))

	// 100 txs over 1000ms.
	assert.InDelta(t, 100.0, s.TPS(), 0.0001)
}

func TestTPSRepeatedTimestampNotSampled(t *testing.T) {
	s, _ := newTestState()

	s.UpdateMetrics(metricsAt(1000, 5_000))
	s.UpdateMetrics(metricsAt(1000, 5_000)) // same timestamp, ignored
	s.UpdateMetrics(metricsAt(1500, 7_000))

	assert.InDelta(t, 250.0, s.TPS(), 0.0001)
	// Only the third call had two distinct samples to compute from.
	assert.Len(t, s.TPSSparkline(), 1)
}

func TestTPSNeedsTwoSamples(t *testing.T) {
	s, _ := newTestState()
	s.UpdateMetrics(metricsAt(100, 1_000))
	assert.Zero(t, s.TPS())
	assert.Empty(t, s.TPSSparkline())
}

func TestTPSUsesOldestAndNewestOnly(t *testing.T) {
	s, _ := newTestState()

	// A spike in the middle must not affect the endpoints-only rate.
	s.UpdateMetrics(metricsAt(0, 1_000))
	s.UpdateMetrics(metricsAt(9_000, 2_000))
	s.UpdateMetrics(metricsAt(10_000, 11_000))

	// 10000 txs over 10s.
	assert.InDelta(t, 1000.0, s.TPS(), 0.0001)
}

func TestTPSSampleWindowEviction(t *testing.T) {
	s, _ := newTestState()

	// 15 samples, 1000 txs and 1s apart each; only the last 10 remain,
	// so the rate still reads 1000 tx/s over the surviving window.
	for i := uint64(1); i <= 15; i++ {
		s.UpdateMetrics(metricsAt(i*1000, i*1000))
	}
	assert.InDelta(t, 1000.0, s.TPS(), 0.0001)
	assert.Len(t, s.txSamples, 10)
}

func TestTPSCounterResetReadsAsZero(t *testing.T) {
	s, _ := newTestState()

	s.UpdateMetrics(metricsAt(5_000, 1_000))
	s.UpdateMetrics(metricsAt(100, 2_000)) // node restarted

	assert.Zero(t, s.TPS())
	assert.Equal(t, []uint64{0}, s.TPSSparkline())
}

func TestTPSHistoryCapped(t *testing.T) {
	s, _ := newTestState()

	// Far more pushes than the ring holds. The absurd rate is capped
	// at 10000 in the stored history.
	for i := uint64(1); i <= 320; i++ {
		s.UpdateMetrics(metricsAt(i*100_000, i*1_000))
	}

	hist := s.TPSSparkline()
	require.Len(t, hist, 300)
	for _, v := range hist {
		assert.Equal(t, uint64(10000), v)
	}
	// Peak keeps the uncapped value.
	assert.Greater(t, s.PeakTPS(), 10000.0)
}

func TestPeakAndPrevTPS(t *testing.T) {
	s, _ := newTestState()

	s.UpdateMetrics(metricsAt(0, 1_000))
	s.UpdateMetrics(metricsAt(500, 2_000)) // 500 tps
	assert.InDelta(t, 500.0, s.PeakTPS(), 0.0001)

	s.UpdateMetrics(metricsAt(600, 3_000)) // 300 tps over window
	assert.InDelta(t, 300.0, s.TPS(), 0.0001)
	assert.InDelta(t, 500.0, s.PeakTPS(), 0.0001)
	// prev shifted, so a big drop now shows a downward trend.
	assert.Equal(t, -1, s.TPSTrend())
}

func TestBlockHeightPrefersRPC(t *testing.T) {
	s, _ := newTestState()
	assert.Zero(t, s.BlockHeight())

	s.UpdateMetrics(&metrics.Snapshot{BlockNum: 100})
	assert.Equal(t, uint64(100), s.BlockHeight())

	s.UpdateRPC(&rpc.Snapshot{BlockNumber: 105})
	assert.Equal(t, uint64(105), s.BlockHeight())
}

func TestHeartbeatHigherBlockWins(t *testing.T) {
	s, clock := newTestState()

	s.UpdateMetrics(&metrics.Snapshot{BlockNum: 100})
	first, ok := s.TimeSinceLastBlock()
	require.True(t, ok)
	assert.Zero(t, first)

	clock.Advance(500 * time.Millisecond)

	// Same height from RPC does not re-arm the heartbeat.
	s.UpdateRPC(&rpc.Snapshot{RecentBlocks: []rpc.Block{{Number: 100}}})
	since, _ := s.TimeSinceLastBlock()
	assert.Equal(t, 500*time.Millisecond, since)

	// A higher one does.
	s.UpdateRPC(&rpc.Snapshot{RecentBlocks: []rpc.Block{{Number: 101}}})
	since, _ = s.TimeSinceLastBlock()
	assert.Zero(t, since)
}

func TestPulseIntensity(t *testing.T) {
	s, clock := newTestState()

	// No block seen yet.
	assert.Zero(t, s.PulseIntensity())

	s.UpdateMetrics(&metrics.Snapshot{BlockNum: 1})
	assert.Equal(t, 1.0, s.PulseIntensity())

	clock.Advance(250 * time.Millisecond)
	assert.InDelta(t, 0.75, s.PulseIntensity(), 0.0001)

	clock.Advance(750 * time.Millisecond)
	assert.Zero(t, s.PulseIntensity())

	clock.Advance(10 * time.Second)
	assert.Zero(t, s.PulseIntensity())

	// A new block mid-fade resets to full intensity.
	s.UpdateMetrics(&metrics.Snapshot{BlockNum: 2})
	assert.Equal(t, 1.0, s.PulseIntensity())
}

func TestTrendThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		current  uint64
		previous uint64
		thresh   uint64
		want     int
	}{
		{"just under up", 104, 100, 5, 0},
		{"exactly at up", 105, 100, 5, 1},
		{"beyond up", 200, 100, 5, 1},
		{"just under down", 96, 100, 5, 0},
		{"exactly at down", 95, 100, 5, -1},
		{"beyond down", 10, 100, 5, -1},
		{"no change", 100, 100, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trendUint(tt.current, tt.previous, tt.thresh))
		})
	}
}

func TestTrendFloatBoundaries(t *testing.T) {
	assert.Equal(t, 0, trendFloat(149.9, 100, 50))
	assert.Equal(t, 1, trendFloat(150, 100, 50))
	assert.Equal(t, 0, trendFloat(50.1, 100, 50))
	assert.Equal(t, -1, trendFloat(50, 100, 50))
}

func TestLatencyAndPeersTrends(t *testing.T) {
	s, _ := newTestState()

	s.UpdateMetrics(&metrics.Snapshot{LatencyP99Ms: 100, PeerCount: 40})
	s.UpdateMetrics(&metrics.Snapshot{LatencyP99Ms: 120, PeerCount: 35})

	// Latency rose by exactly the threshold, peers fell by it.
	assert.Equal(t, 1, s.LatencyTrend())
	assert.Equal(t, -1, s.PeersTrend())

	s.UpdateMetrics(&metrics.Snapshot{LatencyP99Ms: 110, PeerCount: 36})
	assert.Equal(t, 0, s.LatencyTrend())
	assert.Equal(t, 0, s.PeersTrend())
}

func TestPeerHealthBuckets(t *testing.T) {
	tests := []struct {
		peers uint64
		want  string
	}{
		{0, "no peers"},
		{1, "low"},
		{10, "low"},
		{11, "ok"},
		{50, "ok"},
		{51, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s, _ := newTestState()
			s.UpdateMetrics(&metrics.Snapshot{PeerCount: tt.peers})
			assert.Equal(t, tt.want, s.PeerHealth())
		})
	}
}

func TestErrorClearingAsymmetry(t *testing.T) {
	s, _ := newTestState()

	s.SetError("metrics: connection refused")
	assert.Equal(t, "metrics: connection refused", s.LastError())

	// RPC and system successes do not clear the banner.
	s.UpdateRPC(&rpc.Snapshot{BlockNumber: 1})
	assert.NotEmpty(t, s.LastError())
	s.UpdateSystem(&system.Snapshot{})
	assert.NotEmpty(t, s.LastError())

	// Newer errors overwrite.
	s.SetError("rpc: dial timeout")
	assert.Equal(t, "rpc: dial timeout", s.LastError())

	// Only a metrics success clears it.
	s.UpdateMetrics(&metrics.Snapshot{})
	assert.Empty(t, s.LastError())
}

func TestNetworkRates(t *testing.T) {
	s, _ := newTestState() // 5s system interval

	s.UpdateSystem(&system.Snapshot{NetRxBytes: 1000, NetTxBytes: 500})
	s.UpdateSystem(&system.Snapshot{NetRxBytes: 6000, NetTxBytes: 3000})

	assert.InDelta(t, 1000.0, s.RxRate(), 0.0001)
	assert.InDelta(t, 500.0, s.TxRate(), 0.0001)

	// A counter reset keeps the last known rate rather than going
	// negative.
	s.UpdateSystem(&system.Snapshot{NetRxBytes: 100, NetTxBytes: 50})
	assert.InDelta(t, 1000.0, s.RxRate(), 0.0001)
	assert.InDelta(t, 500.0, s.TxRate(), 0.0001)

	// And the next delta is measured from the reset baseline.
	s.UpdateSystem(&system.Snapshot{NetRxBytes: 600, NetTxBytes: 300})
	assert.InDelta(t, 100.0, s.RxRate(), 0.0001)
	assert.InDelta(t, 50.0, s.TxRate(), 0.0001)
}

func TestSyncStatus(t *testing.T) {
	s, _ := newTestState()
	assert.Equal(t, "synced", s.SyncStatus()) // zero target reads synced

	s.UpdateMetrics(&metrics.Snapshot{StatesyncProgress: 50, StatesyncTarget: 100})
	assert.Equal(t, "syncing", s.SyncStatus())
}

func TestZeroStateAccessors(t *testing.T) {
	s, _ := newTestState()

	assert.Zero(t, s.BlockHeight())
	assert.Empty(t, s.RecentBlocks())
	assert.Equal(t, "synced", s.SyncStatus())
	assert.Equal(t, "no peers", s.PeerHealth())
	assert.Zero(t, s.PulseIntensity())
	assert.Zero(t, s.TPSTrend())
	assert.Zero(t, s.RxRate())
	assert.Empty(t, s.LastError())
	_, ok := s.TimeSinceLastBlock()
	assert.False(t, ok)
}

func TestTPSSparklineIsACopy(t *testing.T) {
	s, _ := newTestState()
	s.UpdateMetrics(metricsAt(0, 1_000))
	s.UpdateMetrics(metricsAt(100, 2_000))

	hist := s.TPSSparkline()
	require.Len(t, hist, 1)
	hist[0] = 99999

	assert.Equal(t, []uint64{100}, s.TPSSparkline())
}

func TestFormatBandwidth(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0 B/s"},
		{512, "512 B/s"},
		{2048, "2.0 KB/s"},
		{3 * 1024 * 1024, "3.0 MB/s"},
		{1.5 * 1024 * 1024 * 1024, "1.5 GB/s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBandwidth(tt.in))
		})
	}
}
