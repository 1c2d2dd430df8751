package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nodetop/nodetop/internal/errors"
)

// Client polls a Prometheus exposition endpoint over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a metrics client for the given exposition endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch performs one poll and parses the body into a Snapshot.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrMetrics, "Invalid metrics endpoint",
			"Check metrics_url in your config")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrMetrics, "Failed to fetch metrics",
			"Is the node running and exposing metrics at "+c.endpoint+"?")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.ErrMetrics,
			fmt.Sprintf("Metrics endpoint returned %s", resp.Status),
			"Check that metrics_url points at the node's Prometheus exporter")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrMetrics, "Failed to read metrics body", "")
	}

	return parseMetrics(string(body)), nil
}

// parseMetrics scans an exposition body line by line, keeping only the
// counters the dashboard cares about. Unknown metric names are ignored.
func parseMetrics(body string) *Snapshot {
	snap := &Snapshot{}

	for _, line := range strings.Split(body, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, timestamp, ok := parseMetricLine(line)
		if !ok {
			continue
		}
		switch name {
		case "monad_execution_ledger_block_num":
			snap.BlockNum = uint64(value)
		case "monad_execution_ledger_num_tx_commits":
			snap.TxCommits = uint64(value)
			snap.TxCommitsTimestamp = timestamp
		case "monad_peer_disc_num_peers":
			snap.PeerCount = uint64(value)
		case "monad_statesync_progress_estimate":
			snap.StatesyncProgress = uint64(value)
		case "monad_statesync_last_target":
			snap.StatesyncTarget = uint64(value)
		case "monad_total_uptime_us":
			snap.UptimeUs = uint64(value)
		case "monad_bft_raptorcast_udp_secondary_broadcast_latency_p99_ms":
			snap.LatencyP99Ms = uint64(value)
		case "monad_bft_txpool_pool_tracked_txs":
			snap.PendingTxs = uint64(value)
		case "monad_peer_disc_num_upstream_validators":
			snap.UpstreamValidators = uint64(value)
		}
	}

	return snap
}

// parseMetricLine splits one exposition line into name, value, and an
// optional trailing timestamp. Handles both labelled lines
// (name{k="v"} value ts) and bare lines (name value ts).
func parseMetricLine(line string) (name string, value float64, timestamp uint64, ok bool) {
	var rest string

	if brace := strings.IndexByte(line, '{'); brace >= 0 {
		end := strings.IndexByte(line, '}')
		if end < 0 {
			return "", 0, 0, false
		}
		name = line[:brace]
		rest = strings.TrimSpace(line[end+1:])
	} else {
		// Fields are separated by any whitespace, tabs included.
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", 0, 0, false
		}
		name = fields[0]
		rest = strings.Join(fields[1:], " ")
	}

	parts := strings.Fields(rest)
	if len(parts) == 0 {
		return "", 0, 0, false
	}

	value, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", 0, 0, false
	}
	if len(parts) > 1 {
		// Timestamp is best-effort; a malformed one reads as absent.
		if ts, err := strconv.ParseUint(parts[1], 10, 64); err == nil {
			timestamp = ts
		}
	}

	return name, value, timestamp, true
}
