package oligo

import (
	"encoding/binary"

	"github.com/strandgate/helix/internal/crc"
	"github.com/strandgate/helix/internal/trellis"
	"github.com/strandgate/helix/pkg/model"
)

// Demux reverses Assemble for a single strand (spec §4.5's restore-side
// pipeline): fuzzy primer strip, then address decode (strict-first,
// falling back to Viterbi repair on an illegal transition) and payload
// decode (strict-first, falling back to Viterbi repair on an illegal
// transition *or* a failed CRC32 check, per spec §4.3's "if strict
// decoding fails CRC, the payload is re-decoded as a trellis"). ok is
// false if the strand's primers don't match within fuzzyTolerance
// substitutions, if the address can't be recovered even with Viterbi
// correction, or if the payload's CRC32 never verifies under either
// attempt.
func Demux(strand string, fwdPrimer, revPrimer string, fuzzyTolerance int) (blockID uint64, shardIndex uint16, payload []byte, ok bool) {
	core, ok := StripFuzzy(strand, fwdPrimer, revPrimer, fuzzyTolerance)
	if !ok {
		return 0, 0, nil, false
	}

	addrBases := model.AddressWidth * 6 // six-trit packing: model.AddressWidth bytes
	if len(core) < addrBases {
		return 0, 0, nil, false
	}
	addressRaw := core[:addrBases]
	payloadRaw := core[addrBases:]

	startAddr := trellis.LastBase(fwdPrimer, model.BaseA)

	addrBytes, addressDNA, ok := decodeWithFallback(addressRaw, startAddr)
	if !ok || len(addrBytes) < model.AddressWidth {
		return 0, 0, nil, false
	}
	blockID = binary.BigEndian.Uint64(addrBytes[0:8])
	shardIndex = binary.BigEndian.Uint16(addrBytes[8:10])

	startPayload := trellis.LastBase(addressDNA, startAddr)

	payload, ok = decodePayloadWithFallback(payloadRaw, startPayload)
	if !ok {
		return 0, 0, nil, false
	}
	return blockID, shardIndex, payload, true
}

// decodeWithFallback tries the strict decoder first (fast path, O(n)),
// then falls back to Viterbi repair if the strict decode hits an illegal
// transition. It returns the decoded bytes and the (possibly repaired)
// DNA string actually used, so callers can chain the next field's
// trellis seed off the repaired sequence rather than the noisy input.
// Used for the address field, which carries no CRC of its own.
func decodeWithFallback(dna string, start model.Base) (decoded []byte, usedDNA string, ok bool) {
	if decoded, ok = trellis.Decode(dna, start); ok {
		return decoded, dna, true
	}

	healed, ok := trellis.ViterbiCorrect(dna, start, trellis.HammingMetric)
	if !ok {
		return nil, "", false
	}
	decoded, ok = trellis.Decode(healed, start)
	if !ok {
		return nil, "", false
	}
	return decoded, healed, true
}

// decodePayloadWithFallback runs the payload's two-attempt decode: attempt
// A is the strict trellis decode followed by a CRC32 check; attempt B,
// tried only if attempt A's decode was illegal *or* its CRC failed, is
// Viterbi repair followed by its own decode and CRC check. A substitution
// that happens to map onto another legal base (not just a homopolymer
// violation) strict-decodes without error but to the wrong bytes, so the
// CRC check has to gate the fallback, not just decode legality.
func decodePayloadWithFallback(dna string, start model.Base) (payload []byte, ok bool) {
	if guarded, decodeOK := trellis.Decode(dna, start); decodeOK {
		if payload, crcOK := crc.Verify(guarded); crcOK {
			return payload, true
		}
	}

	healed, viterbiOK := trellis.ViterbiCorrect(dna, start, trellis.HammingMetric)
	if !viterbiOK {
		return nil, false
	}
	guarded, decodeOK := trellis.Decode(healed, start)
	if !decodeOK {
		return nil, false
	}
	return crc.Verify(guarded)
}
