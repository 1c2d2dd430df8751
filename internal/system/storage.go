package system

import (
	"strconv"
	"strings"
)

// parseStorageReport extracts trie database figures from the storage
// tool's plain-text output. The tool prints three lines of interest:
//
//	1.75 Tb      109.30 Gb  6.11%
//	MPT database has 637751 history, earliest is 41295350 latest is 41933100.
//	Latest finalized is 41933098, latest verified is 41933095
//
// Anything unrecognized is skipped; a partial report fills what it can.
func parseStorageReport(output string, snap *Snapshot) {
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)

		if strings.Contains(line, "Tb") && strings.Contains(line, "Gb") && strings.Contains(line, "%") {
			parseDiskLine(line, snap)
		}
		if strings.Contains(line, "MPT database has") && strings.Contains(line, "history") {
			parseHistoryLine(line, snap)
		}
		if strings.Contains(line, "Latest finalized is") {
			parseFinalityLine(line, snap)
		}
	}
}

// parseDiskLine normalizes "<cap> <unit> <used> <unit> <pct>%" to GB.
func parseDiskLine(line string, snap *Snapshot) {
	parts := strings.Fields(line)
	if len(parts) < 5 {
		return
	}

	if capacity, err := strconv.ParseFloat(parts[0], 64); err == nil {
		if parts[1] == "Tb" {
			capacity *= 1024
		}
		snap.DiskCapacityGB = capacity
	}
	if used, err := strconv.ParseFloat(parts[2], 64); err == nil {
		switch parts[3] {
		case "Tb":
			used *= 1024
		case "Mb":
			used /= 1024
		}
		snap.DiskUsedGB = used
	}
	if pct, err := strconv.ParseFloat(strings.TrimSuffix(parts[4], "%"), 64); err == nil {
		snap.DiskUsedPct = pct
	}
}

// parseHistoryLine pulls the counts that follow the "has", "earliest",
// and "latest" keywords.
func parseHistoryLine(line string, snap *Snapshot) {
	parts := strings.Fields(line)
	for i, part := range parts {
		switch part {
		case "has":
			if i+1 < len(parts) {
				snap.HistoryCount = parseUintField(parts[i+1])
			}
		case "earliest":
			if i+2 < len(parts) {
				snap.HistoryEarliest = parseUintField(parts[i+2])
			}
		case "latest":
			if i+2 < len(parts) {
				snap.HistoryLatest = parseUintField(parts[i+2])
			}
		}
	}
}

func parseFinalityLine(line string, snap *Snapshot) {
	parts := strings.Fields(line)
	for i, part := range parts {
		switch part {
		case "finalized":
			if i+2 < len(parts) {
				snap.LatestFinalized = parseUintField(parts[i+2])
			}
		case "verified":
			if i+2 < len(parts) {
				snap.LatestVerified = parseUintField(parts[i+2])
			}
		}
	}
}

// parseUintField reads a number that may carry trailing sentence
// punctuation. Malformed fields read as zero.
func parseUintField(s string) uint64 {
	s = strings.TrimRight(s, ".,")
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
