// Package oligo assembles and disassembles physical DNA strands (spec
// §4.5): FwdPrimer ‖ Address ‖ Payload ‖ RevPrimer, trellis-chained across
// the primer->address and address->payload boundaries so no base repeats
// from the forward primer through the end of the payload. The payload is
// not chained into the reverse primer, so its last base can equal the
// reverse primer's first base. Also provides tag-derived primers and fuzzy (Hamming-tolerant)
// demultiplexing for recovering strands whose primers have drifted.
package oligo

import (
	"encoding/binary"
	"strings"

	"github.com/strandgate/helix/internal/trellis"
	"github.com/strandgate/helix/pkg/model"
)

// DefaultFwdPrimer and DefaultRevPrimer are Helix's built-in 20-nt
// primers, used whenever an archive requests tag "default" and supplies
// no explicit --primer-fwd/--primer-rev override.
const (
	DefaultFwdPrimer = "GCTACGATCGTAGCTAGCTA"
	DefaultRevPrimer = "CGATCGTAGCTAGCTAGCTA"
)

// primerLen is the fixed length Helix's default and tag-derived primers
// are padded or truncated to.
const primerLen = 20

// PrimersForTag derives a deterministic (forward, reverse) primer pair
// from a user-supplied tag string, letting an archive be "molecularly
// addressed" by a human-readable label instead of a raw sequence. The
// literal tag "default" returns Helix's built-in primer pair.
func PrimersForTag(tag string) (fwd, rev string) {
	if tag == "default" {
		return DefaultFwdPrimer, DefaultRevPrimer
	}

	tagDNA := trellis.Encode([]byte(tag), model.BaseA)

	pad := func(targetLen int) string {
		if tagDNA == "" {
			return strings.Repeat("A", targetLen)
		}
		var b strings.Builder
		for b.Len() < targetLen {
			b.WriteString(tagDNA)
		}
		return b.String()[:targetLen]
	}

	if len(tagDNA) >= primerLen {
		fwd = tagDNA[:primerLen]
	} else {
		fwd = pad(primerLen)
	}

	if len(tagDNA) >= 2*primerLen {
		rev = tagDNA[primerLen : 2*primerLen]
	} else {
		// Mutate the padded sequence so the reverse primer doesn't
		// trivially collide with the forward one when the tag is short.
		s := pad(2 * primerLen)
		s = strings.ReplaceAll(s, "A", "T")
		s = strings.ReplaceAll(s, "C", "G")
		rev = s[:primerLen]
	}
	return fwd, rev
}

// ResolvePrimers prefers explicit fwdOverride/revOverride (from CLI
// flags) over the tag-derived defaults; an empty override falls back to
// the tag.
func ResolvePrimers(tag, fwdOverride, revOverride string) (fwd, rev string) {
	fwd, rev = PrimersForTag(tag)
	if fwdOverride != "" {
		fwd = fwdOverride
	}
	if revOverride != "" {
		rev = revOverride
	}
	return fwd, rev
}

// Assemble builds a full oligo strand from a shard's address (block id
// and shard index) and its CRC-guarded payload, chaining the trellis seed
// across the first two field boundaries (spec §4.5): the address's start
// base is the forward primer's last base, and the payload's start base is
// the address's last base. The reverse primer is appended as given; the
// payload's last base is not checked against its first base.
func Assemble(blockID uint64, shardIndex uint16, guardedPayload []byte, fwdPrimer, revPrimer string) model.Oligo {
	addrBytes := make([]byte, model.AddressWidth)
	binary.BigEndian.PutUint64(addrBytes[0:8], blockID)
	binary.BigEndian.PutUint16(addrBytes[8:10], shardIndex)

	startAddr := trellis.LastBase(fwdPrimer, model.BaseA)
	addressDNA := trellis.Encode(addrBytes, startAddr)

	startPayload := trellis.LastBase(addressDNA, startAddr)
	payloadDNA := trellis.Encode(guardedPayload, startPayload)

	return model.Oligo{
		FwdPrimer: fwdPrimer,
		Address:   addressDNA,
		Payload:   payloadDNA,
		RevPrimer: revPrimer,
	}
}

// StripExact removes fwdPrimer and revPrimer from strand by exact prefix
// and suffix match. ok is false if strand doesn't begin with fwdPrimer
// and end with revPrimer.
func StripExact(strand, fwdPrimer, revPrimer string) (core string, ok bool) {
	if !strings.HasPrefix(strand, fwdPrimer) {
		return "", false
	}
	rest := strand[len(fwdPrimer):]
	if !strings.HasSuffix(rest, revPrimer) {
		return "", false
	}
	return rest[:len(rest)-len(revPrimer)], true
}

// StripFuzzy is StripExact's Hamming-tolerant counterpart, used to
// recover strands whose primers have drifted from bit-rot (spec §4.5):
// it accepts up to maxErr substitutions in either primer.
func StripFuzzy(strand, fwdPrimer, revPrimer string, maxErr int) (core string, ok bool) {
	if len(strand) < len(fwdPrimer)+len(revPrimer) {
		return "", false
	}
	prefix := strand[:len(fwdPrimer)]
	suffix := strand[len(strand)-len(revPrimer):]

	if hammingDistance(prefix, fwdPrimer) > maxErr {
		return "", false
	}
	if hammingDistance(suffix, revPrimer) > maxErr {
		return "", false
	}
	return strand[len(fwdPrimer) : len(strand)-len(revPrimer)], true
}

func hammingDistance(a, b string) int {
	d := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	d += abs(len(a) - len(b))
	return d
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// FilterSoup scans a batch of (header, strand) records and returns those
// whose strand begins with fwdPrimer and ends with revPrimer — an
// in-silico PCR amplification used by the search command (spec §6).
// Matching is exact, not fuzzy: search is meant to isolate a clean
// subpopulation from a mixed soup, not to repair damage.
func FilterSoup(batch []FastaRecord, fwdPrimer, revPrimer string) []FastaRecord {
	out := make([]FastaRecord, 0, len(batch))
	for _, rec := range batch {
		if strings.HasPrefix(rec.Sequence, fwdPrimer) && strings.HasSuffix(rec.Sequence, revPrimer) {
			out = append(out, rec)
		}
	}
	return out
}

// FastaRecord is one (header, sequence) pair as read from a FASTA-like
// archive or soup file.
type FastaRecord struct {
	Header   string
	Sequence string
}
