// Package rpc talks JSON-RPC to the node, either by polling over HTTP
// or by holding a websocket subscription to new block headers.
package rpc

// maxRecentBlocks caps the rolling window of blocks kept newest-first.
const maxRecentBlocks = 30

// Block is one entry of the recent-blocks window.
type Block struct {
	Number    uint64
	Hash      string
	TxCount   int
	Timestamp uint64
	GasUsed   uint64
	GasLimit  uint64
}

// Snapshot is the RPC-sourced view of the chain at one instant.
// RecentBlocks is ordered newest-first and holds at most 30 entries.
type Snapshot struct {
	BlockNumber   uint64
	GasPriceGwei  float64
	RecentBlocks  []Block
	ClientVersion string
}

// Clone returns a deep copy so the subscription loop can keep mutating
// its working snapshot after handing one off.
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	out.RecentBlocks = make([]Block, len(s.RecentBlocks))
	copy(out.RecentBlocks, s.RecentBlocks)
	return &out
}

// pushBlock prepends a block and trims the window.
func (s *Snapshot) pushBlock(b Block) {
	s.RecentBlocks = append([]Block{b}, s.RecentBlocks...)
	if len(s.RecentBlocks) > maxRecentBlocks {
		s.RecentBlocks = s.RecentBlocks[:maxRecentBlocks]
	}
}
