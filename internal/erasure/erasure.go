// Package erasure wraps github.com/klauspost/reedsolomon into the shard
// split/reconstruct shape Helix's pipeline needs (spec §4.2): N data
// shards plus K parity shards per block, each shard independently
// trellis-encoded and CRC-guarded downstream.
package erasure

import (
	"bytes"
	"fmt"

	rs "github.com/klauspost/reedsolomon"
	"github.com/strandgate/helix/pkg/model"
)

// Split erasure-encodes framed (a Block's serialized header+ciphertext)
// into n+k shards, the first n holding data and the trailing k holding
// Reed-Solomon parity. All returned shards have equal length; reedsolomon
// zero-pads the final data shard as needed, so no separate padding
// bookkeeping is required once a shard's CRC-guarded payload is
// reassembled (its length is pinned by n/k and framed's own length).
func Split(blockID uint64, framed []byte, n, k uint8) ([]model.Shard, error) {
	if n == 0 {
		return nil, fmt.Errorf("erasure: n (data shards) must be > 0")
	}

	enc, err := rs.New(int(n), int(k))
	if err != nil {
		return nil, fmt.Errorf("erasure: new encoder: %w", err)
	}

	raw, err := enc.Split(framed)
	if err != nil {
		return nil, fmt.Errorf("erasure: split: %w", err)
	}
	if err := enc.Encode(raw); err != nil {
		return nil, fmt.Errorf("erasure: encode parity: %w", err)
	}

	total := int(n) + int(k)
	shards := make([]model.Shard, total)
	for i := 0; i < total; i++ {
		payload := make([]byte, len(raw[i]))
		copy(payload, raw[i])

		role := model.RoleData
		if i >= int(n) {
			role = model.RoleParity
		}
		shards[i] = model.Shard{
			BlockID: blockID,
			Index:   uint16(i),
			Role:    role,
			Bytes:   payload,
		}
	}
	return shards, nil
}

// reconstructRaw rebuilds the full n+k shard set from a possibly-
// incomplete one, keyed by Index. It returns ErrInsufficientShards if
// fewer than n shards (data or parity combined) survived.
func reconstructRaw(shards []model.Shard, n, k uint8) ([][]byte, rs.Encoder, error) {
	total := int(n) + int(k)
	if total <= 0 {
		return nil, nil, fmt.Errorf("erasure: invalid n/k")
	}

	enc, err := rs.New(int(n), int(k))
	if err != nil {
		return nil, nil, fmt.Errorf("erasure: new encoder: %w", err)
	}

	raw := make([][]byte, total)
	present := 0
	for _, s := range shards {
		idx := int(s.Index)
		if idx < 0 || idx >= total {
			return nil, nil, fmt.Errorf("erasure: invalid shard index %d", idx)
		}
		if raw[idx] != nil {
			continue
		}
		raw[idx] = make([]byte, len(s.Bytes))
		copy(raw[idx], s.Bytes)
		present++
	}
	if present < int(n) {
		return nil, nil, fmt.Errorf("%w: have %d of %d required", model.ErrInsufficientShards, present, n)
	}

	if err := enc.Reconstruct(raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrInsufficientShards, err)
	}
	return raw, enc, nil
}

// Join reconstructs framed from a possibly-incomplete set of shards.
// Missing shards (those not present in shards, by Index) are left nil and
// rebuilt by Reed-Solomon. origLen is the exact byte length of the
// original framed buffer before shard padding; reedsolomon.Join requires
// it to trim the trailing zero padding precisely.
//
// Join returns ErrInsufficientShards if fewer than n shards (data or
// parity combined) survived to reconstruct from.
func Join(shards []model.Shard, n, k uint8, origLen uint64) ([]byte, error) {
	raw, enc, err := reconstructRaw(shards, n, k)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := enc.Join(&out, raw, int(origLen)); err != nil {
		return nil, fmt.Errorf("erasure: join: %w", err)
	}
	return out.Bytes(), nil
}

// ReconstructData rebuilds a block's n data shards from a possibly-
// incomplete shard set and returns their concatenation, zero-padded to a
// multiple of the shard size with no trimming. Unlike Join, it needs no
// caller-supplied length: the caller recovers the exact framed length
// from model.ParseFramed's fixed header fields, which survive untouched
// in the padding because the header always sits at the front of the
// first data shard.
func ReconstructData(shards []model.Shard, n, k uint8) ([]byte, error) {
	raw, _, err := reconstructRaw(shards, n, k)
	if err != nil {
		return nil, err
	}

	var out []byte
	for i := 0; i < int(n); i++ {
		out = append(out, raw[i]...)
	}
	return out, nil
}
