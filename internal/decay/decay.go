// Package decay implements the simulate command's physical DNA decay
// model (spec §6): random strand dropout (erasure) and per-base
// substitution mutation (bit-rot), used to exercise the archive's
// erasure and Viterbi-repair tolerance against synthetic damage.
package decay

import (
	"math/rand"

	"github.com/strandgate/helix/internal/oligo"
)

// Params bundles the two decay knobs the simulate command exposes.
type Params struct {
	// DropoutRate is the probability, in [0, 1], that any given strand is
	// discarded outright (modeling a molecule lost to the pool).
	DropoutRate float64
	// MutationRate is the probability, in [0, 1], that any given base in
	// a surviving strand is replaced with a random base (modeling
	// synthesis or storage bit-rot).
	MutationRate float32
}

var bases = [4]byte{'A', 'C', 'G', 'T'}

// Apply runs Params over one record and returns the decayed record, or
// ok=false if the record was dropped entirely.
func Apply(rec oligo.FastaRecord, p Params, rng *rand.Rand) (oligo.FastaRecord, bool) {
	if rng.Float64() < p.DropoutRate {
		return oligo.FastaRecord{}, false
	}

	if p.MutationRate <= 0 {
		return rec, true
	}

	mutated := []byte(rec.Sequence)
	for i := range mutated {
		if rng.Float32() < p.MutationRate {
			mutated[i] = bases[rng.Intn(len(bases))]
		}
	}
	return oligo.FastaRecord{Header: rec.Header, Sequence: string(mutated)}, true
}

// ApplyBatch runs Apply over every record in batch, dropping decayed-out
// records from the result.
func ApplyBatch(batch []oligo.FastaRecord, p Params, rng *rand.Rand) []oligo.FastaRecord {
	out := make([]oligo.FastaRecord, 0, len(batch))
	for _, rec := range batch {
		if decayed, ok := Apply(rec, p, rng); ok {
			out = append(out, decayed)
		}
	}
	return out
}
