package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// JSON-RPC ids used by the subscription session. The handshake and
// backfill ranges never overlap the follow-up ids, so replies can be
// correlated without tracking in-flight requests.
const (
	idBlockNumber   = 0
	idGasPrice      = 1
	idClientVersion = 2
	idBackfillBase  = 100 // 100..129 cover the initial block window
	idSubscribe     = 999
	idFullBlock     = 1000
	idGasRefresh    = 1001
)

// reconnectDelay is the fixed pause before redialing after any
// websocket failure. Deliberately not exponential: the dashboard keeps
// showing the last snapshot, so staleness is the user-visible signal.
const reconnectDelay = time.Second

// Subscribe holds a websocket subscription to new block headers,
// pushing a fresh Snapshot clone into sink after every change. It
// reconnects forever on failure and returns only when ctx is done.
// Errors never surface; a dead connection shows up as stale data.
func (c *Client) Subscribe(ctx context.Context, sink chan<- *Snapshot) {
	for {
		if err := c.runSubscription(ctx, sink); err != nil {
			c.log.Warn("rpc: subscription dropped, reconnecting: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// runSubscription owns one websocket session: handshake, backfill,
// subscribe, then pump notifications until the connection dies. The
// working snapshot is owned exclusively by this goroutine; only clones
// ever cross the sink.
func (c *Client) runSubscription(ctx context.Context, sink chan<- *Snapshot) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.httpClient.Timeout}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the socket when ctx is cancelled so blocked reads return.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	snap := &Snapshot{}

	if err := c.handshake(conn, snap); err != nil {
		return err
	}
	if snap.BlockNumber > 0 {
		if err := c.backfill(conn, snap); err != nil {
			return err
		}
	}
	emit(ctx, sink, snap)

	if err := writeRequest(conn, "eth_subscribe", []any{"newHeads"}, idSubscribe); err != nil {
		return err
	}

	return c.pump(ctx, conn, snap, sink)
}

// handshake sends the three initial queries and collects their
// replies, tolerating out-of-order delivery.
func (c *Client) handshake(conn *websocket.Conn, snap *Snapshot) error {
	for id, call := range map[uint32]string{
		idBlockNumber:   "eth_blockNumber",
		idGasPrice:      "eth_gasPrice",
		idClientVersion: "web3_clientVersion",
	} {
		if err := writeRequest(conn, call, []any{}, id); err != nil {
			return err
		}
	}

	results := make(map[uint32]json.RawMessage, 3)
	for len(results) < 3 {
		resp, err := readResponse(conn)
		if err != nil {
			return err
		}
		if resp.ID != nil && resp.Result != nil {
			results[*resp.ID] = resp.Result
		}
	}

	var hex string
	if json.Unmarshal(results[idBlockNumber], &hex) == nil {
		snap.BlockNumber = ParseHexUint(hex)
	}
	if json.Unmarshal(results[idGasPrice], &hex) == nil {
		snap.GasPriceGwei = float64(ParseHexUint(hex)) / 1e9
	}
	var version string
	if json.Unmarshal(results[idClientVersion], &version) == nil {
		snap.ClientVersion = version
	}
	return nil
}

// backfill requests the initial block window behind head and fills
// snap.RecentBlocks newest-first.
func (c *Client) backfill(conn *websocket.Conn, snap *Snapshot) error {
	count := uint32(maxRecentBlocks)
	if snap.BlockNumber < uint64(count) {
		count = uint32(snap.BlockNumber) + 1
	}

	for i := uint32(0); i < count; i++ {
		num := snap.BlockNumber - uint64(i)
		if err := writeRequest(conn, "eth_getBlockByNumber",
			[]any{formatHexUint(num), false}, idBackfillBase+i); err != nil {
			return err
		}
	}

	results := make(map[uint32]json.RawMessage, count)
	for uint32(len(results)) < count {
		resp, err := readResponse(conn)
		if err != nil {
			return err
		}
		if resp.ID == nil || resp.Result == nil {
			continue
		}
		if id := *resp.ID; id >= idBackfillBase && id < idBackfillBase+count {
			results[id] = resp.Result
		}
	}

	blocks := make([]Block, 0, count)
	for i := uint32(0); i < count; i++ {
		res, ok := results[idBackfillBase+i]
		if !ok {
			continue
		}
		var br blockResult
		if err := json.Unmarshal(res, &br); err != nil {
			continue
		}
		blocks = append(blocks, blockFromResult(snap.BlockNumber-uint64(i), &br))
	}
	snap.RecentBlocks = blocks
	return nil
}

// pump consumes subscription notifications and follow-up replies until
// the connection fails or ctx is cancelled.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn, snap *Snapshot, sink chan<- *Snapshot) error {
	for {
		resp, err := readResponse(conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		switch {
		case resp.Method == "eth_subscription" && resp.Params != nil:
			var head blockResult
			if err := json.Unmarshal(resp.Params.Result, &head); err != nil {
				continue
			}
			number := ParseHexUint(head.Number)
			if number == 0 {
				continue
			}

			// Headers carry no transactions; TxCount is patched when
			// the full-block follow-up lands.
			snap.pushBlock(blockFromResult(number, &head))
			snap.BlockNumber = number
			emit(ctx, sink, snap)

			if err := writeRequest(conn, "eth_getBlockByNumber",
				[]any{formatHexUint(number), false}, idFullBlock); err != nil {
				return err
			}
			if err := writeRequest(conn, "eth_gasPrice", []any{}, idGasRefresh); err != nil {
				return err
			}

		case resp.ID != nil && resp.Result != nil:
			switch *resp.ID {
			case idFullBlock:
				var full blockResult
				if err := json.Unmarshal(resp.Result, &full); err != nil {
					continue
				}
				patchTxCount(snap, &full)
				emit(ctx, sink, snap)
			case idGasRefresh:
				var hex string
				if json.Unmarshal(resp.Result, &hex) == nil {
					snap.GasPriceGwei = float64(ParseHexUint(hex)) / 1e9
					emit(ctx, sink, snap)
				}
			}
		}
	}
}

// patchTxCount fills in the transaction count on the window entry the
// full-block response belongs to. Matching by number copes with another
// header arriving before the follow-up.
func patchTxCount(snap *Snapshot, full *blockResult) {
	number := ParseHexUint(full.Number)
	for i := range snap.RecentBlocks {
		if snap.RecentBlocks[i].Number == number {
			snap.RecentBlocks[i].TxCount = len(full.Transactions)
			return
		}
	}
}

// emit hands a clone to the sink, dropping it if the consumer is full
// or gone. The dashboard only ever needs the freshest snapshot.
func emit(ctx context.Context, sink chan<- *Snapshot, snap *Snapshot) {
	clone := snap.Clone()
	select {
	case sink <- clone:
	case <-ctx.Done():
	default:
	}
}

func writeRequest(conn *websocket.Conn, method string, params any, id uint32) error {
	return conn.WriteJSON(request{JSONRPC: "2.0", Method: method, Params: params, ID: id})
}

func readResponse(conn *websocket.Conn) (*response, error) {
	var resp response
	if err := conn.ReadJSON(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
