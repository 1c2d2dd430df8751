package system

import (
	"strconv"
	"strings"
)

// parseMemInfo reads MemTotal/MemAvailable out of /proc/meminfo
// content and fills the memory fields.
func parseMemInfo(content string, snap *Snapshot) {
	var totalKB, availableKB uint64

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			totalKB = secondFieldUint(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			availableKB = secondFieldUint(line)
		}
	}

	if totalKB == 0 {
		return
	}
	usedKB := totalKB
	if availableKB < totalKB {
		usedKB = totalKB - availableKB
	}
	snap.MemoryTotalGB = float64(totalKB) / 1024 / 1024
	snap.MemoryUsedGB = float64(usedKB) / 1024 / 1024
	snap.MemoryUsedPct = float64(usedKB) / float64(totalKB) * 100
}

// parseCPUStat derives a since-boot busy percentage from the aggregate
// cpu line of /proc/stat. A single sample cannot show recent load, but
// it is cheap and steady enough for a dashboard gauge.
func parseCPUStat(content string, snap *Snapshot) {
	line, _, _ := strings.Cut(content, "\n")
	fields := strings.Fields(line)
	if len(fields) < 5 || fields[0] != "cpu" {
		return
	}

	var total, idle uint64
	for i, f := range fields[1:] {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			continue
		}
		total += v
		if i == 3 {
			idle = v
		}
	}
	if total > 0 {
		snap.CPUUsagePct = 100 - float64(idle)/float64(total)*100
	}
}

// parseNetDev sums rx/tx byte counters across every interface except
// loopback. The aggregator turns successive sums into rates.
func parseNetDev(content string, snap *Snapshot) {
	lines := strings.Split(content, "\n")
	if len(lines) <= 2 {
		return
	}
	for _, raw := range lines[2:] {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "lo:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}
		if rx, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
			snap.NetRxBytes += rx
		}
		if tx, err := strconv.ParseUint(fields[9], 10, 64); err == nil {
			snap.NetTxBytes += tx
		}
	}
}

func secondFieldUint(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
