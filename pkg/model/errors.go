// Package model holds the domain types shared across Helix's encode and
// decode pipelines: blocks, shards, oligos, and the archive header.
package model

import "errors"

// Sentinel errors for the taxonomy in the system specification. Callers
// should wrap these with fmt.Errorf("...: %w", ErrX) to add context and
// unwrap them with errors.Is.
var (
	// ErrIO signals a read/write failure at the pipeline's mouth or tail.
	ErrIO = errors.New("helix: io error")

	// ErrStructural signals a malformed header, undecodable address, or
	// bad archive magic.
	ErrStructural = errors.New("helix: structural error")

	// ErrAuthFailure signals an AEAD tag mismatch for a block.
	ErrAuthFailure = errors.New("helix: authentication failure")

	// ErrShardCRCMismatch signals a shard that failed CRC32 verification
	// after both the strict and Viterbi decode paths. The shard is
	// treated as an erasure, not surfaced as fatal on its own.
	ErrShardCRCMismatch = errors.New("helix: shard crc mismatch")

	// ErrInsufficientShards signals that fewer than N shards survived
	// for a block, so Reed-Solomon reconstruction cannot proceed.
	ErrInsufficientShards = errors.New("helix: insufficient shards")

	// ErrStabilityFailure signals that the salt-and-retry budget was
	// exhausted while trying to produce a biologically stable block.
	ErrStabilityFailure = errors.New("helix: stability failure")

	// ErrPrimerCollision signals that a primer (or its reverse
	// complement) appeared inside a shard's trellis-encoded payload.
	// Treated as a stability failure that triggers salt rotation.
	ErrPrimerCollision = errors.New("helix: primer collision")
)
