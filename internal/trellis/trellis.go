// Package trellis implements Helix's base-3 rotating trellis channel code
// (spec §4.3): a lossless, mathematically homopolymer-free mapping between
// bit streams and DNA base strings, plus a Viterbi decoder that treats a
// corrupted base string as the noisy output of the same trellis and finds
// the minimum-cost valid path through it.
//
// The trellis has four states, one per base (A=0, C=1, G=2, T=3). A
// transition is labeled by a trit t in {0,1,2} and is defined by
//
//	next = (current + t + 1) mod 4
//
// Because the offset is always between 1 and 3, next is never equal to
// current: homopolymers are mathematically impossible to emit, not merely
// discouraged.
package trellis

import "github.com/strandgate/helix/pkg/model"

// nextBase applies the rotating transition rule.
func nextBase(current model.Base, trit uint8) model.Base {
	return model.Base((uint8(current) + trit + 1) % 4)
}

// prevTrit inverts nextBase, recovering the trit that would carry current
// to next. It is only meaningful when next != current; callers must check
// that separately (an equal pair signals a homopolymer / illegal
// transition and has no valid trit).
func prevTrit(current, next model.Base) uint8 {
	return uint8((int(next) - int(current) - 1 + 4) % 4)
}

// tritsPerByte is fixed by the SixTritPerByte packing scheme
// (model.SixTritPerByte): 3^6 = 729 > 256, so six base-3 digits losslessly
// cover a byte with no rejection sampling.
const tritsPerByte = 6

// bytesToTrits decomposes data into base-3 digits, least-significant digit
// first within each byte's six-trit group.
func bytesToTrits(data []byte) []uint8 {
	trits := make([]uint8, 0, len(data)*tritsPerByte)
	for _, b := range data {
		v := uint32(b)
		for i := 0; i < tritsPerByte; i++ {
			trits = append(trits, uint8(v%3))
			v /= 3
		}
	}
	return trits
}

// tritsToBytes reassembles bytesToTrits' output. It reports false if the
// trit count is not a multiple of six.
func tritsToBytes(trits []uint8) ([]byte, bool) {
	if len(trits)%tritsPerByte != 0 {
		return nil, false
	}
	out := make([]byte, len(trits)/tritsPerByte)
	for i := range out {
		group := trits[i*tritsPerByte : (i+1)*tritsPerByte]
		var v uint32
		pow := uint32(1)
		for _, t := range group {
			v += uint32(t) * pow
			pow *= 3
		}
		out[i] = byte(v)
	}
	return out, true
}

// EncodeTrits walks the trellis from start, emitting one base per trit.
// The returned state is the last base emitted, which callers use to seed
// the next field's trellis (spec §4.5: primer->address->payload boundaries
// form one continuous no-homopolymer run).
func EncodeTrits(trits []uint8, start model.Base) (string, model.Base) {
	out := make([]byte, len(trits))
	cur := start
	for i, t := range trits {
		cur = nextBase(cur, t)
		out[i] = cur.Char()
	}
	return string(out), cur
}

// Encode packs data into base-3 digits and trellis-encodes them into a DNA
// string, six bases per input byte.
func Encode(data []byte, start model.Base) string {
	dna, _ := EncodeTrits(bytesToTrits(data), start)
	return dna
}

// DecodeTrits inverts EncodeTrits: it walks dna base by base from start,
// recovering the trit for each legal transition. ok is false as soon as it
// hits a non-ACGT character or a homopolymer (current == next), since
// neither has a valid trit.
func DecodeTrits(dna string, start model.Base) (trits []uint8, ok bool) {
	trits = make([]uint8, 0, len(dna))
	cur := start
	for i := 0; i < len(dna); i++ {
		next, valid := model.BaseFromChar(dna[i])
		if !valid || next == cur {
			return nil, false
		}
		trits = append(trits, prevTrit(cur, next))
		cur = next
	}
	return trits, true
}

// Decode inverts Encode: it strict-decodes dna from start and reassembles
// the original bytes. ok is false if dna contains an illegal transition,
// an invalid character, or does not carry a whole number of bytes.
func Decode(dna string, start model.Base) ([]byte, bool) {
	trits, ok := DecodeTrits(dna, start)
	if !ok {
		return nil, false
	}
	return tritsToBytes(trits)
}

// LastBase returns the final base of dna, or start if dna is empty. Used
// to chain trellis seeds across adjacent fields (primer, address, payload)
// without re-decoding the preceding field.
func LastBase(dna string, start model.Base) model.Base {
	if len(dna) == 0 {
		return start
	}
	b, ok := model.BaseFromChar(dna[len(dna)-1])
	if !ok {
		return start
	}
	return b
}
