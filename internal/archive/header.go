package archive

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/strandgate/helix/pkg/model"
)

// EncodeHeader serializes an ArchiveHeader into the fixed binary layout
// written as the plaintext of the archive's very first block (spec §6):
// every later block and shard can assume these values without re-reading
// them. The header is written only once, in block 0; a soup without
// block 0's shards does not carry it.
func EncodeHeader(h model.ArchiveHeader) []byte {
	fwd, rev := []byte(h.PrimerFwd), []byte(h.PrimerRev)

	buf := make([]byte, 0, 64+len(fwd)+len(rev))
	buf = append(buf, h.Version, h.N, h.K, byte(h.Packing))
	buf = appendUint32(buf, h.BlockSize)
	buf = append(buf, h.GlobalSalt[:]...)
	buf = appendFloat64(buf, h.TmMin)
	buf = appendFloat64(buf, h.TmMax)
	buf = appendUint32(buf, uint32(h.MaxRetries))
	buf = appendUint32(buf, uint32(h.AddressBases))
	buf = appendUint32(buf, uint32(h.FuzzyTolerance))
	buf = appendUint32(buf, uint32(len(fwd)))
	buf = append(buf, fwd...)
	buf = appendUint32(buf, uint32(len(rev)))
	buf = append(buf, rev...)
	return buf
}

// DecodeHeader inverts EncodeHeader.
func DecodeHeader(buf []byte) (model.ArchiveHeader, error) {
	const fixedLen = 4 + 4 + 16 + 8 + 8 + 4 + 4 + 4 + 4
	if len(buf) < fixedLen {
		return model.ArchiveHeader{}, fmt.Errorf("%w: archive header shorter than fixed fields", model.ErrStructural)
	}

	var h model.ArchiveHeader
	h.Version, h.N, h.K = buf[0], buf[1], buf[2]
	h.Packing = model.PackingScheme(buf[3])
	buf = buf[4:]

	h.BlockSize, buf = readUint32(buf)
	copy(h.GlobalSalt[:], buf[:16])
	buf = buf[16:]
	h.TmMin, buf = readFloat64(buf)
	h.TmMax, buf = readFloat64(buf)

	var n uint32
	n, buf = readUint32(buf)
	h.MaxRetries = int(n)
	n, buf = readUint32(buf)
	h.AddressBases = int(n)
	n, buf = readUint32(buf)
	h.FuzzyTolerance = int(n)

	var fwdLen uint32
	fwdLen, buf = readUint32(buf)
	if uint32(len(buf)) < fwdLen {
		return model.ArchiveHeader{}, fmt.Errorf("%w: archive header truncated in forward primer", model.ErrStructural)
	}
	h.PrimerFwd = string(buf[:fwdLen])
	buf = buf[fwdLen:]

	var revLen uint32
	revLen, buf = readUint32(buf)
	if uint32(len(buf)) < revLen {
		return model.ArchiveHeader{}, fmt.Errorf("%w: archive header truncated in reverse primer", model.ErrStructural)
	}
	h.PrimerRev = string(buf[:revLen])

	return h, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendFloat64(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}

func readUint32(buf []byte) (uint32, []byte) {
	return binary.BigEndian.Uint32(buf[:4]), buf[4:]
}

func readFloat64(buf []byte) (float64, []byte) {
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:8])), buf[8:]
}
