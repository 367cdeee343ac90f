// Package pipeline implements the per-block orchestrator that ties
// every leaf package into the encode and decode pipelines THE CORE
// describes (spec §2): compress, encrypt, frame, erasure-split,
// trellis-encode, gate, and assemble on the way out; demultiplex,
// Viterbi-repair, CRC-verify, erasure-join, decrypt, and decompress on
// the way back.
//
// Within a block, independent per-shard work (stability evaluation for
// every shard of a candidate attempt) runs through pkg/workerpool, since
// a stability failure on any one shard regenerates the whole block and
// there is nothing to be gained by running the map stage serially
// (spec §5: "the following stages are further parallelized as
// independent map operations").
package pipeline

import (
	"crypto/rand"
	"fmt"

	"github.com/strandgate/helix/internal/compress"
	"github.com/strandgate/helix/internal/crc"
	"github.com/strandgate/helix/internal/crypto"
	"github.com/strandgate/helix/internal/erasure"
	"github.com/strandgate/helix/internal/oligo"
	"github.com/strandgate/helix/internal/stability"
	"github.com/strandgate/helix/pkg/logging"
	"github.com/strandgate/helix/pkg/model"
	"github.com/strandgate/helix/pkg/workerpool"
)

// CompileResult is one block's outcome from CompileBlock.
type CompileResult struct {
	// Oligos holds one entry per shard, in shard-index order.
	Oligos []model.Oligo
	// Attempts is how many salt-and-retry rounds this block needed
	// (1 means it passed the stability gate on the first try).
	Attempts int
	// Forced is true if the block was emitted despite never passing the
	// stability gate, because the caller opted into --force.
	Forced bool
}

// shardOutcome is the per-shard result of assembling and gating one
// Reed-Solomon shard, computed in parallel across a block's shards.
type shardOutcome struct {
	index int
	oligo model.Oligo
	ok    bool
}

// CompileBlock runs one block through compress -> encrypt -> frame ->
// erasure-split -> per-shard (CRC-guard -> trellis-encode -> assemble ->
// stability-gate), retrying with a fresh block_salt and nonce whenever
// any shard in the attempt fails the gate (spec §4.4). It retries up to
// header.MaxRetries times; if force is true, the last attempt's oligos
// are returned regardless of whether they passed, with a logged warning;
// otherwise the final failure surfaces as ErrStabilityFailure.
func CompileBlock(
	pool *workerpool.WorkerPool,
	blockID uint64,
	plaintext []byte,
	header model.ArchiveHeader,
	masterKey [32]byte,
	gate stability.Gate,
	fwdPrimer, revPrimer string,
	force bool,
) (CompileResult, error) {
	compressed, err := compress.Compress(plaintext)
	if err != nil {
		return CompileResult{}, fmt.Errorf("pipeline: compress block %d: %w", blockID, err)
	}

	var lastOligos []model.Oligo
	attempt := 0
	for ; attempt < header.MaxRetries; attempt++ {
		var blockSalt [16]byte
		if _, err := rand.Read(blockSalt[:]); err != nil {
			return CompileResult{}, fmt.Errorf("%w: block salt read: %v", model.ErrIO, err)
		}

		sessionKey := crypto.DeriveSessionKey(masterKey, blockSalt, blockID)
		block, err := crypto.Seal(blockID, uint64(len(plaintext)), compressed, sessionKey, header.GlobalSalt, blockSalt)
		if err != nil {
			return CompileResult{}, fmt.Errorf("pipeline: seal block %d: %w", blockID, err)
		}
		block.Attempt = attempt

		shards, err := erasure.Split(blockID, block.Framed(), header.N, header.K)
		if err != nil {
			return CompileResult{}, fmt.Errorf("pipeline: split block %d: %w", blockID, err)
		}

		oligos, stable := assembleAndGate(pool, shards, gate, fwdPrimer, revPrimer)
		lastOligos = oligos
		if stable {
			return CompileResult{Oligos: oligos, Attempts: attempt + 1}, nil
		}
		logging.Logger.Debug("block failed stability gate, rotating salt",
			"block_id", blockID, "attempt", attempt+1, "max_retries", header.MaxRetries)
	}

	if force {
		logging.Logger.Warn("stability retry budget exhausted, forcing block through unstable",
			"block_id", blockID, "attempts", attempt)
		return CompileResult{Oligos: lastOligos, Attempts: attempt, Forced: true}, nil
	}
	return CompileResult{}, fmt.Errorf("%w: block %d exhausted %d attempts", model.ErrStabilityFailure, blockID, header.MaxRetries)
}

// assembleAndGate maps crc.Guard -> oligo.Assemble -> gate.Accepts across
// every shard of one attempt in parallel, returning the assembled oligos
// (index-ordered) and whether every one of them passed the gate.
func assembleAndGate(pool *workerpool.WorkerPool, shards []model.Shard, gate stability.Gate, fwdPrimer, revPrimer string) ([]model.Oligo, bool) {
	room := workerpool.NewRoom[shardOutcome](pool, len(shards))
	for i, s := range shards {
		i, s := i, s
		room.NewTaskWaitForFreeSlot(func() shardOutcome {
			guarded := crc.Guard(s.Bytes)
			strand := oligo.Assemble(s.BlockID, s.Index, guarded, fwdPrimer, revPrimer)
			_, accepted := gate.Accepts(strand.String())
			return shardOutcome{index: i, oligo: strand, ok: accepted}
		})
	}

	results := room.Collect()
	oligos := make([]model.Oligo, len(shards))
	stable := true
	for _, r := range results {
		oligos[r.index] = r.oligo
		if !r.ok {
			stable = false
		}
	}
	return oligos, stable
}
