package system

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// probeServices checks each configured unit with
// `systemctl is-active --quiet` and reads the first unit's
// ActiveEnterTimestamp for the uptime display.
func probeServices(ctx context.Context, services []string) ([]ServiceStatus, uint64) {
	statuses := make([]ServiceStatus, 0, len(services))
	for _, svc := range services {
		err := exec.CommandContext(ctx, "systemctl", "is-active", "--quiet", svc).Run()
		statuses = append(statuses, ServiceStatus{Name: svc, Active: err == nil})
	}

	var startedAt uint64
	if len(services) > 0 {
		out, err := exec.CommandContext(ctx, "systemctl",
			"show", services[0], "--property=ActiveEnterTimestamp").Output()
		if err == nil {
			startedAt = parseSystemdTimestamp(string(out))
		}
	}

	return statuses, startedAt
}

// cumulative days before each month in a non-leap year, 1-indexed
var daysBeforeMonth = [13]uint64{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// parseSystemdTimestamp converts a line like
//
//	ActiveEnterTimestamp=Thu 2025-12-11 21:20:59 CET
//
// to approximate unix seconds. The calendar math is deliberately
// simplified (365-day years plus a rough leap count, fixed month table,
// fixed UTC+1 offset): the result only feeds a coarse uptime display,
// where being off by an hour or a day around edges is acceptable.
// Returns 0 when the unit never started ("n/a") or the line is
// unparseable.
func parseSystemdTimestamp(output string) uint64 {
	_, tsStr, ok := strings.Cut(output, "=")
	if !ok {
		return 0
	}
	tsStr = strings.TrimSpace(tsStr)
	if tsStr == "" || tsStr == "n/a" {
		return 0
	}

	// "Thu 2025-12-11 21:20:59 CET": day name first, zone last.
	parts := strings.Fields(tsStr)
	if len(parts) < 3 {
		return 0
	}

	dateParts := strings.Split(parts[1], "-")
	timeParts := strings.Split(parts[2], ":")
	if len(dateParts) != 3 || len(timeParts) != 3 {
		return 0
	}

	nums := make([]uint64, 0, 6)
	for _, s := range append(dateParts, timeParts...) {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0
		}
		nums = append(nums, v)
	}
	year, month, day := nums[0], nums[1], nums[2]
	hour, min, sec := nums[3], nums[4], nums[5]

	if year < 1970 || month < 1 || month > 12 || day < 1 {
		return 0
	}

	yearsSince1970 := year - 1970
	leapDays := (yearsSince1970 + 1) / 4

	totalDays := yearsSince1970*365 + leapDays + daysBeforeMonth[month] + day - 1
	totalSecs := totalDays*86400 + hour*3600 + min*60 + sec

	// Treat the zone as UTC+1.
	if totalSecs < 3600 {
		return 0
	}
	return totalSecs - 3600
}
