// Package archive implements Helix's on-disk container format: a
// FASTA-like file of ">header\nsequence\n" records, one per oligo, plus
// the memory-bounded batch reader the search and simulate commands use
// to stream arbitrarily large soup files (spec §5, §6).
package archive

import (
	"fmt"
	"io"
)

// WriteRecord appends one FASTA record for blockID/shardIndex to w, using
// the "block_id:shard_index" decimal-pair header spec §6 specifies. The
// header is a human-readable label only: the decoder never trusts it,
// re-deriving (block_id, shard_index) from the strand's own trellis-
// encoded address field instead (spec §9, "the address field is
// authoritative").
func WriteRecord(w io.Writer, blockID uint64, shardIndex uint16, strand string) error {
	_, err := fmt.Fprintf(w, ">%d:%d\n%s\n", blockID, shardIndex, strand)
	return err
}
