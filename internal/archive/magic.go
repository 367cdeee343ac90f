package archive

import (
	"fmt"
)

// WriteMagic writes the archive's first line (spec §6): a FASTA comment
// carrying the format version and the archive-wide Reed-Solomon and
// block-size constants, so a reader can size its shard buffers before
// ever touching a record.
func WriteMagic(h ArchiveParams) string {
	return fmt.Sprintf(">HELIX v%d N=%d K=%d BS=%d\n", h.Version, h.N, h.K, h.BlockSize)
}

// ArchiveParams is the subset of model.ArchiveHeader the magic line
// exposes in plain text, ahead of the binary ArchiveHeader record that
// follows it.
type ArchiveParams struct {
	Version   uint8
	N         uint8
	K         uint8
	BlockSize uint32
}

// ParseMagic inverts WriteMagic. ok is false if line doesn't match the
// expected format.
func ParseMagic(line string) (ArchiveParams, bool) {
	var p ArchiveParams
	var version, n, k int
	var blockSize uint32
	count, err := fmt.Sscanf(line, ">HELIX v%d N=%d K=%d BS=%d", &version, &n, &k, &blockSize)
	if err != nil || count != 4 {
		return ArchiveParams{}, false
	}
	p.Version = uint8(version)
	p.N = uint8(n)
	p.K = uint8(k)
	p.BlockSize = blockSize
	return p, true
}
