package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nodetop/nodetop/internal/logger"
)

// request is a JSON-RPC 2.0 call.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      uint32 `json:"id"`
}

// response covers both call replies (id+result) and subscription
// notifications (method+params).
type response struct {
	ID     *uint32             `json:"id"`
	Result json.RawMessage     `json:"result"`
	Method string              `json:"method"`
	Params *subscriptionParams `json:"params"`
}

type subscriptionParams struct {
	Result json.RawMessage `json:"result"`
}

// blockResult is the shape of an eth_getBlockByNumber result or a
// newHeads notification payload. Quantities arrive hex-encoded.
type blockResult struct {
	Number       string            `json:"number"`
	Hash         string            `json:"hash"`
	Timestamp    string            `json:"timestamp"`
	GasUsed      string            `json:"gasUsed"`
	GasLimit     string            `json:"gasLimit"`
	Transactions []json.RawMessage `json:"transactions"`
}

// Client talks JSON-RPC to a single node endpoint. The same client
// serves both HTTP polling and websocket subscription; callers pick
// based on the endpoint scheme.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient builds an RPC client. A nil log falls back to logger.Default.
func NewClient(endpoint string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// SubscribeMode reports whether the endpoint scheme calls for a
// websocket subscription instead of HTTP polling.
func (c *Client) SubscribeMode() bool {
	return strings.HasPrefix(c.endpoint, "ws://") || strings.HasPrefix(c.endpoint, "wss://")
}

// Fetch performs one HTTP polling round. Every sub-call is best-effort:
// a failed probe leaves its field zeroed rather than failing the round,
// and a failed head query just skips the block window.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if head, err := c.call(ctx, "eth_blockNumber", []any{}, 0); err == nil {
		var hex string
		if json.Unmarshal(head, &hex) == nil {
			snap.BlockNumber = ParseHexUint(hex)
		}
	} else {
		c.log.Debug("rpc: head poll failed: %v", err)
	}

	if res, err := c.call(ctx, "eth_gasPrice", []any{}, 1); err == nil {
		var hex string
		if json.Unmarshal(res, &hex) == nil {
			snap.GasPriceGwei = float64(ParseHexUint(hex)) / 1e9
		}
	} else {
		c.log.Debug("rpc: gas price poll failed: %v", err)
	}

	if res, err := c.call(ctx, "web3_clientVersion", []any{}, 2); err == nil {
		var version string
		if json.Unmarshal(res, &version) == nil {
			snap.ClientVersion = version
		}
	} else {
		c.log.Debug("rpc: client version poll failed: %v", err)
	}

	if snap.BlockNumber > 0 {
		snap.RecentBlocks = c.fetchRecentBlocks(ctx, snap.BlockNumber)
	}

	return snap, nil
}

// fetchRecentBlocks walks back from head, newest-first, skipping
// individual block failures.
func (c *Client) fetchRecentBlocks(ctx context.Context, head uint64) []Block {
	blocks := make([]Block, 0, maxRecentBlocks)
	for i := uint32(0); i < maxRecentBlocks; i++ {
		if uint64(i) > head {
			break
		}
		num := head - uint64(i)
		res, err := c.call(ctx, "eth_getBlockByNumber", []any{formatHexUint(num), false}, 100+i)
		if err != nil {
			c.log.Debug("rpc: block %d poll failed: %v", num, err)
			continue
		}
		var br blockResult
		if err := json.Unmarshal(res, &br); err != nil {
			continue
		}
		blocks = append(blocks, blockFromResult(num, &br))
	}
	return blocks
}

// call issues one JSON-RPC request over HTTP POST.
func (c *Client) call(ctx context.Context, method string, params any, id uint32) (json.RawMessage, error) {
	payload, err := json.Marshal(request{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned %s", method, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var rpcResp response
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, err
	}
	if rpcResp.Result == nil {
		return nil, fmt.Errorf("%s returned no result", method)
	}
	return rpcResp.Result, nil
}

// blockFromResult converts a decoded RPC block into a window entry.
// The block number comes from the caller since header-only responses
// are trusted less than the number we asked for.
func blockFromResult(num uint64, br *blockResult) Block {
	hash := br.Hash
	if hash == "" {
		hash = "0x0"
	}
	return Block{
		Number:    num,
		Hash:      hash,
		TxCount:   len(br.Transactions),
		Timestamp: ParseHexUint(br.Timestamp),
		GasUsed:   ParseHexUint(br.GasUsed),
		GasLimit:  ParseHexUint(br.GasLimit),
	}
}
