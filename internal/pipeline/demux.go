package pipeline

import (
	"fmt"
	"sync"

	"github.com/strandgate/helix/internal/compress"
	"github.com/strandgate/helix/internal/crypto"
	"github.com/strandgate/helix/internal/erasure"
	"github.com/strandgate/helix/internal/oligo"
	"github.com/strandgate/helix/pkg/model"
	"github.com/strandgate/helix/pkg/workerpool"
)

// RestoreResult is one successfully reconstructed block.
type RestoreResult struct {
	BlockID   uint64
	Plaintext []byte
}

// demuxOutcome is the per-strand result of fuzzy-demultiplexing one
// candidate strand, computed in parallel across a batch.
type demuxOutcome struct {
	blockID uint64
	shard   model.Shard
	ok      bool
}

// Demultiplexer accumulates decoded shards across an arbitrarily large,
// arbitrarily ordered strand pool, materializing each block as soon as N
// of its shards have survived (spec §4.5: "only materializes a block for
// RS decoding when either N shards of that block have accumulated...
// or input is exhausted"). It is safe to call Feed from one goroutine at
// a time; results are safe to read concurrently with later Feed calls.
type Demultiplexer struct {
	pool      *workerpool.WorkerPool
	header    model.ArchiveHeader
	masterKey [32]byte

	mu     sync.Mutex
	shards map[uint64]map[uint16]model.Shard
	done   map[uint64]bool
}

// NewDemultiplexer constructs a Demultiplexer for one archive's worth of
// restore work.
func NewDemultiplexer(pool *workerpool.WorkerPool, header model.ArchiveHeader, masterKey [32]byte) *Demultiplexer {
	return &Demultiplexer{
		pool:      pool,
		header:    header,
		masterKey: masterKey,
		shards:    make(map[uint64]map[uint16]model.Shard),
		done:      make(map[uint64]bool),
	}
}

// Feed fuzzily demultiplexes one batch of raw strands in parallel and
// returns every block that has just reached N surviving shards as a
// result of this batch (the "early success" path). Strands whose
// primers don't match, whose address can't be recovered, or whose
// payload CRC never verifies are silently dropped, matching
// oligo.Demux's contract.
func (d *Demultiplexer) Feed(strands []string, fwdPrimer, revPrimer string) []RestoreResult {
	room := workerpool.NewRoom[demuxOutcome](d.pool, len(strands))
	for _, strand := range strands {
		strand := strand
		room.NewTaskWaitForFreeSlot(func() demuxOutcome {
			blockID, shardIndex, payload, ok := oligo.Demux(strand, fwdPrimer, revPrimer, d.header.FuzzyTolerance)
			if !ok {
				return demuxOutcome{}
			}
			return demuxOutcome{
				blockID: blockID,
				shard:   model.Shard{BlockID: blockID, Index: shardIndex, Bytes: payload},
				ok:      true,
			}
		})
	}
	results := room.Collect()

	d.mu.Lock()
	defer d.mu.Unlock()

	touched := make(map[uint64]bool)
	for _, r := range results {
		if !r.ok || d.done[r.blockID] {
			continue
		}
		set, exists := d.shards[r.blockID]
		if !exists {
			set = make(map[uint16]model.Shard)
			d.shards[r.blockID] = set
		}
		if _, dup := set[r.shard.Index]; dup {
			continue // first CRC-passing instance of an index wins (spec §4.5)
		}
		set[r.shard.Index] = r.shard
		touched[r.blockID] = true
	}

	var ready []RestoreResult
	for blockID := range touched {
		if len(d.shards[blockID]) < int(d.header.N) {
			continue
		}
		if result, ok := d.finalize(blockID); ok {
			ready = append(ready, result)
		}
	}
	return ready
}

// Flush makes a final reconstruction attempt on every block that never
// reached N shards during Feed, for use once the strand pool is
// exhausted (spec §4.5's "final attempt").
func (d *Demultiplexer) Flush() []RestoreResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []RestoreResult
	for blockID := range d.shards {
		if d.done[blockID] {
			continue
		}
		if result, ok := d.finalize(blockID); ok {
			out = append(out, result)
		}
	}
	return out
}

// Pending reports the block IDs that never reconstructed successfully,
// for callers that want to report ErrInsufficientShards per block after
// Flush.
func (d *Demultiplexer) Pending() []uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]uint64, 0, len(d.shards))
	for blockID := range d.shards {
		if !d.done[blockID] {
			ids = append(ids, blockID)
		}
	}
	return ids
}

// finalize must be called with d.mu held. It leaves the block's
// accumulator untouched on failure, so a later Feed call can still add
// shards to it and retry.
func (d *Demultiplexer) finalize(blockID uint64) (RestoreResult, bool) {
	set := d.shards[blockID]
	shards := make([]model.Shard, 0, len(set))
	for _, s := range set {
		shards = append(shards, s)
	}

	plaintext, err := RestoreBlock(blockID, shards, d.header, d.masterKey)
	if err != nil {
		return RestoreResult{}, false
	}

	d.done[blockID] = true
	delete(d.shards, blockID)
	return RestoreResult{BlockID: blockID, Plaintext: plaintext}, true
}

// RestoreBlock inverts CompileBlock for a single block given any set of
// at least N surviving shards: Reed-Solomon reconstruct, parse the frame
// header out of the (possibly zero-padded) result, derive that block's
// session key, AEAD-open, and decompress.
func RestoreBlock(blockID uint64, shards []model.Shard, header model.ArchiveHeader, masterKey [32]byte) ([]byte, error) {
	padded, err := erasure.ReconstructData(shards, header.N, header.K)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reconstruct block %d: %w", blockID, err)
	}

	blockHeader, ciphertext, err := model.ParseFramed(padded)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parse frame for block %d: %w", blockID, err)
	}

	sessionKey := crypto.DeriveSessionKey(masterKey, blockHeader.BlockSalt, blockID)
	compressed, err := crypto.Open(model.Block{ID: blockID, Header: blockHeader, Ciphertext: ciphertext}, sessionKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := compress.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("pipeline: decompress block %d: %w", blockID, err)
	}
	if uint64(len(plaintext)) != blockHeader.OrigLen {
		return nil, fmt.Errorf("%w: block %d decompressed to %d bytes, header declares %d", model.ErrStructural, blockID, len(plaintext), blockHeader.OrigLen)
	}
	return plaintext, nil
}
