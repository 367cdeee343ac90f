package model

// PackingScheme identifies the bit-to-trit packing discipline used to turn
// a byte stream into base-3 digits before trellis encoding. Helix fixes one
// scheme (spec §9, open question (a)) and records it in the archive header
// so a future format revision can introduce another without breaking old
// archives.
type PackingScheme uint8

// SixTritPerByte packs each input byte into exactly six base-3 digits
// (3^6 = 729 > 256), least-significant digit first, with no rejection
// sampling. This is the only scheme Helix currently implements.
const SixTritPerByte PackingScheme = 0

// ArchiveHeader carries the archive-wide metadata written once, in the
// plaintext of the archive's first block (block_id=0, Reed-Solomon coded
// across all of that block's shards like any other block), and implied for
// every other block and shard in the archive (spec §6).
type ArchiveHeader struct {
	Version uint8

	// N is the number of Reed-Solomon data shards per block.
	N uint8
	// K is the number of Reed-Solomon parity shards per block.
	K uint8

	// BlockSize is the plaintext size of a full block, in bytes. Kept as
	// a header field rather than a compile-time constant per spec §9,
	// open question (b).
	BlockSize uint32

	// GlobalSalt seeds the Argon2id master-key derivation and is shared
	// by every block in the archive.
	GlobalSalt [16]byte

	// PrimerFwd and PrimerRev are the archive's default 20-nt primers.
	PrimerFwd string
	PrimerRev string

	// TmMin and TmMax bound the acceptance window (in degrees Celsius)
	// used by the stability gate's melting-temperature check.
	TmMin float64
	TmMax float64

	// MaxRetries bounds the salt-and-retry loop (spec §4.4).
	MaxRetries int

	// AddressBases is the fixed number of trellis-encoded bases used for
	// the address field, per spec §9 open question (c): wide enough to
	// encode (block_id uint64, shard_index uint16) uniquely.
	AddressBases int

	// Packing records which bit-to-trit discipline was used to encode
	// every shard and address in this archive.
	Packing PackingScheme

	// FuzzyTolerance is the maximum Hamming distance (τ) tolerated when
	// matching a primer against the start or end of a candidate strand.
	FuzzyTolerance int
}

// DefaultHeader returns the header Helix uses when no archive-level
// overrides are supplied, matching spec §2's defaults (N=10, K=5, 4 MiB
// blocks) and spec §4.4/§4.5's defaults (max_retries=16, τ=3).
//
// TmMin/TmMax are set to bracket what internal/stability's Wallace-rule
// variant actually produces for a strand whose GC content sits in
// [DefaultGCMin, DefaultGCMax] (spec §6: substituting a Tm estimator
// requires adjusting the acceptance window to match it). For
// Tm = 81.5 + 16.6·log10(0.05) + 0.41·GC% − 600/length ≈ 59.9 + 0.41·GC%
// − 600/length, a strand in that GC window lands around 70-85 degC
// across the range of oligo lengths Helix produces; the window below
// keeps margin on both sides rather than pinning it exactly.
func DefaultHeader(globalSalt [16]byte, primerFwd, primerRev string) ArchiveHeader {
	return ArchiveHeader{
		Version:        1,
		N:              10,
		K:              5,
		BlockSize:      4 << 20,
		GlobalSalt:     globalSalt,
		PrimerFwd:      primerFwd,
		PrimerRev:      primerRev,
		TmMin:          60.0,
		TmMax:          95.0,
		MaxRetries:     16,
		AddressBases:   60, // 10 bytes * 6 trits/byte, see SixTritPerByte
		Packing:        SixTritPerByte,
		FuzzyTolerance: 3,
	}
}

// AddressWidth returns the number of bytes packed into the address field
// before trellis encoding: 8 for the block id plus 2 for the shard index.
const AddressWidth = 10
