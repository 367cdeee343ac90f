// Package crc provides the shard checksum guard described in spec §4.3:
// a CRC32 (IEEE polynomial) prepended to every shard's payload before
// trellis encoding, used downstream to decide whether a decoded shard is
// trustworthy or must be dropped as an erasure.
package crc

import (
	"encoding/binary"
	"hash/crc32"
	"sync"
)

var (
	tableOnce sync.Once
	table     *crc32.Table
)

// table is initialized exactly once, process-wide, matching design note §9
// ("the CRC32 lookup table ... is a pure constant produced by a one-shot
// initializer").
func ieeeTable() *crc32.Table {
	tableOnce.Do(func() {
		table = crc32.MakeTable(crc32.IEEE)
	})
	return table
}

// Checksum returns the IEEE CRC32 of data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, ieeeTable())
}

// Guard prepends a 4-byte big-endian CRC32 of payload ahead of payload
// itself, the layout trellis-encoded as a single shard body (spec §4.3:
// "the CRC covers the entire shard payload and is itself encoded through
// the trellis").
func Guard(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out, Checksum(payload))
	copy(out[4:], payload)
	return out
}

// Verify splits a guarded buffer into its declared checksum and payload,
// recomputes the checksum over the payload, and reports whether they
// match. ok is false if guarded is shorter than the 4-byte checksum
// prefix.
func Verify(guarded []byte) (payload []byte, ok bool) {
	if len(guarded) < 4 {
		return nil, false
	}
	want := binary.BigEndian.Uint32(guarded[:4])
	payload = guarded[4:]
	return payload, Checksum(payload) == want
}
