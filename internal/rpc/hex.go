package rpc

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHexUint decodes a 0x-prefixed quantity. Malformed input reads
// as zero so a single bad field never poisons a whole response.
func ParseHexUint(s string) uint64 {
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// formatHexUint encodes a block number the way eth APIs expect it.
func formatHexUint(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
