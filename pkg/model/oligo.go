package model

// Base indexes one of the four DNA bases. The numeric values are load-
// bearing: the trellis transition formula in internal/trellis operates on
// these indices directly (spec §4.3), and A=0,C=1,G=2,T=3 is the ordering
// the whole codebase assumes.
type Base uint8

const (
	BaseA Base = 0
	BaseC Base = 1
	BaseG Base = 2
	BaseT Base = 3
)

var baseChars = [4]byte{'A', 'C', 'G', 'T'}

// Char returns the ASCII letter for b.
func (b Base) Char() byte { return baseChars[b&3] }

// String implements fmt.Stringer.
func (b Base) String() string { return string(b.Char()) }

// BaseFromChar maps an ASCII DNA letter to a Base. ok is false for any
// character outside {A,C,G,T}.
func BaseFromChar(c byte) (Base, bool) {
	switch c {
	case 'A':
		return BaseA, true
	case 'C':
		return BaseC, true
	case 'G':
		return BaseG, true
	case 'T':
		return BaseT, true
	default:
		return 0, false
	}
}

// TrellisState is the rotating trellis codec's only piece of in-memory
// state: the base most recently emitted (or, on the decode side, most
// recently observed). It resets to a deterministic seed at every oligo
// boundary rather than carrying over between strands.
type TrellisState struct {
	Current Base
}

// Oligo is one physical DNA strand as emitted by the encoder:
// FwdPrimer ‖ Address ‖ Payload ‖ RevPrimer, concatenated with no
// separators. The address and payload trellises are seeded from the last
// base of the field before them (spec §4.5), so no base repeats at the
// primer->address or address->payload boundary. The payload->RevPrimer
// boundary is not chained: the payload's last base can equal the reverse
// primer's first base.
type Oligo struct {
	FwdPrimer string
	Address   string
	Payload   string
	RevPrimer string
}

// String concatenates the oligo's four fields into the strand as written
// to (or read from) a FASTA record.
func (o Oligo) String() string {
	return o.FwdPrimer + o.Address + o.Payload + o.RevPrimer
}
