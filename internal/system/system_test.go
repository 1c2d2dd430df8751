package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStorageReport(t *testing.T) {
	output := `Storage report for /dev/triedb
    1.75 Tb      109.30 Gb  6.11%
MPT database has 637751 history, earliest is 41295350 latest is 41933100.
Latest finalized is 41933098, latest verified is 41933095
`
	snap := &Snapshot{}
	parseStorageReport(output, snap)

	assert.InDelta(t, 1792.0, snap.DiskCapacityGB, 0.001)
	assert.InDelta(t, 109.30, snap.DiskUsedGB, 0.001)
	assert.InDelta(t, 6.11, snap.DiskUsedPct, 0.001)
	assert.Equal(t, uint64(637751), snap.HistoryCount)
	assert.Equal(t, uint64(41295350), snap.HistoryEarliest)
	assert.Equal(t, uint64(41933100), snap.HistoryLatest)
	assert.Equal(t, uint64(41933098), snap.LatestFinalized)
	assert.Equal(t, uint64(41933095), snap.LatestVerified)

	assert.Equal(t, uint64(2), snap.FinalizedLag())
	assert.Equal(t, uint64(5), snap.VerifiedLag())
}

func TestParseStorageReportUnits(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		capacityGB float64
		usedGB     float64
	}{
		{"terabytes used", "2.00 Tb      1.50 Tb  75.00%", 2048, 1536},
		{"gigabytes both", "500.00 Gb      250.00 Gb  50.00%", 500, 250},
		{"megabytes used", "1.00 Tb      512.00 Mb  0.05%", 1024, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &Snapshot{}
			parseStorageReport(tt.line, snap)
			assert.InDelta(t, tt.capacityGB, snap.DiskCapacityGB, 0.001)
			assert.InDelta(t, tt.usedGB, snap.DiskUsedGB, 0.001)
		})
	}
}

func TestParseStorageReportGarbage(t *testing.T) {
	snap := &Snapshot{}
	parseStorageReport("error: device not found\n", snap)
	assert.Equal(t, Snapshot{}, *snap)
}

func TestParseSystemdTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want uint64
	}{
		{
			name: "regular timestamp",
			// 2025-12-11 21:20:59 with the simplified calendar:
			// 55*365+14 leap days + 334 + 10 days, minus the UTC+1 hour.
			in:   "ActiveEnterTimestamp=Thu 2025-12-11 21:20:59 CET\n",
			want: (uint64(55*365+14+334+10))*86400 + 21*3600 + 20*60 + 59 - 3600,
		},
		{"never started", "ActiveEnterTimestamp=n/a\n", 0},
		{"empty value", "ActiveEnterTimestamp=\n", 0},
		{"no equals sign", "garbage output", 0},
		{"truncated", "ActiveEnterTimestamp=Thu 2025-12-11\n", 0},
		{"non-numeric date", "ActiveEnterTimestamp=Thu yyyy-mm-dd 10:00:00 CET\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSystemdTimestamp(tt.in))
		})
	}
}

func TestParseMemInfo(t *testing.T) {
	content := `MemTotal:       65536000 kB
MemFree:         1024000 kB
MemAvailable:   32768000 kB
Buffers:          500000 kB
`
	snap := &Snapshot{}
	parseMemInfo(content, snap)

	assert.InDelta(t, 62.5, snap.MemoryTotalGB, 0.01)
	assert.InDelta(t, 31.25, snap.MemoryUsedGB, 0.01)
	assert.InDelta(t, 50.0, snap.MemoryUsedPct, 0.01)
}

func TestParseMemInfoMissingTotal(t *testing.T) {
	snap := &Snapshot{}
	parseMemInfo("MemAvailable: 1000 kB\n", snap)
	assert.Zero(t, snap.MemoryTotalGB)
	assert.Zero(t, snap.MemoryUsedPct)
}

func TestParseCPUStat(t *testing.T) {
	// user nice system idle: 30+10+10+50 = 100, half idle.
	content := "cpu  30 10 10 50\ncpu0 15 5 5 25\n"
	snap := &Snapshot{}
	parseCPUStat(content, snap)
	assert.InDelta(t, 50.0, snap.CPUUsagePct, 0.01)
}

func TestParseNetDev(t *testing.T) {
	content := `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo: 999999    100    0    0    0     0          0         0   999999    100    0    0    0     0       0          0
  eth0: 1000    10    0    0    0     0          0         0   2000    20    0    0    0     0       0          0
  eth1: 3000    30    0    0    0     0          0         0   4000    40    0    0    0     0       0          0
`
	snap := &Snapshot{}
	parseNetDev(content, snap)

	// Loopback is excluded, the rest summed.
	assert.Equal(t, uint64(4000), snap.NetRxBytes)
	assert.Equal(t, uint64(6000), snap.NetTxBytes)
}

func TestBlockDifference(t *testing.T) {
	tests := []struct {
		name     string
		external uint64
		local    uint64
		want     int64
	}{
		{"probe failed reads as no lag", 0, 1000, 0},
		{"behind external", 1010, 1000, 10},
		{"ahead of external", 990, 1000, -10},
		{"in step", 1000, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Snapshot{ExternalBlock: tt.external}
			assert.Equal(t, tt.want, s.BlockDifference(tt.local))
		})
	}
}

func TestAllServicesRunning(t *testing.T) {
	assert.False(t, (&Snapshot{}).AllServicesRunning())

	up := &Snapshot{Services: []ServiceStatus{
		{Name: "monad-bft", Active: true},
		{Name: "monad-execution", Active: true},
	}}
	assert.True(t, up.AllServicesRunning())

	up.Services[1].Active = false
	assert.False(t, up.AllServicesRunning())
}

func TestUptimeSinceRestart(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name      string
		startedAt uint64
		want      string
	}{
		{"unknown start", 0, "..."},
		{"start in the future", 1_700_000_100, "..."},
		{"minutes", 1_700_000_000 - 300, "5m"},
		{"hours", 1_700_000_000 - (3*3600 + 120), "3h 2m"},
		{"days", 1_700_000_000 - (2*86400 + 5*3600), "2d 5h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Snapshot{ServiceStartedAt: tt.startedAt}
			assert.Equal(t, tt.want, s.UptimeSinceRestart(now))
		})
	}
}
