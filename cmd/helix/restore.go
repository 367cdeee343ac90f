package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/strandgate/helix/internal/archive"
	"github.com/strandgate/helix/internal/crypto"
	"github.com/strandgate/helix/internal/erasure"
	"github.com/strandgate/helix/internal/oligo"
	"github.com/strandgate/helix/internal/pipeline"
	"github.com/strandgate/helix/pkg/model"
	"github.com/strandgate/helix/pkg/workerpool"
)

// runRestore implements the restore subcommand. It recovers the
// archive's N/K and block size from the magic line (falling back to
// --data/--parity if the line is missing or corrupt), demultiplexes
// every strand in the file, and peeks whichever block reconstructs
// first for the global_salt every block shares (spec §6) before deriving
// the passphrase-based master key exactly once. Block 0, the header
// block, is decoded for validation but excluded from the output file.
func runRestore(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	password := fs.String("password", "", "passphrase")
	dataShards := fs.Int("data", 10, "Reed-Solomon data shards (N), used if the archive's magic line is unreadable")
	parityShards := fs.Int("parity", 5, "Reed-Solomon parity shards (K), used if the archive's magic line is unreadable")
	tag := fs.String("tag", "default", "tag used to derive primers when no override is given")
	primerFwd := fs.String("primer-fwd", "", "override forward primer")
	primerRev := fs.String("primer-rev", "", "override reverse primer")
	fuzzyTolerance := fs.Int("fuzzy", 3, "Hamming tolerance for primer matching")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: helix restore <archive> <out> --password <s> [--data N] [--parity K]")
		return 2
	}
	archivePath, outPath := fs.Arg(0), fs.Arg(1)

	if *password == "" {
		fmt.Fprintln(os.Stderr, "helix restore: --password is required")
		return 3
	}

	in, err := os.Open(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helix restore: opening %s: %v\n", archivePath, err)
		return 2
	}
	defer in.Close()

	n, k := uint8(*dataShards), uint8(*parityShards)

	br := bufio.NewReader(in)
	if magicLine, err := br.ReadString('\n'); err == nil || err == io.EOF {
		if params, ok := archive.ParseMagic(magicLine); ok {
			n, k = params.N, params.K
		}
	}
	reader := archive.NewBatchReader(br, 10000, 64<<20)

	var strands []string
	for {
		batch, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "helix restore: reading %s: %v\n", archivePath, err)
			return 2
		}
		for _, rec := range batch {
			strands = append(strands, rec.Sequence)
		}
	}

	fwdPrimer, revPrimer := oligo.ResolvePrimers(*tag, *primerFwd, *primerRev)

	pool := workerpool.NewWorkerPool(workerpool.Config{})
	byBlock := demuxAll(pool, strands, fwdPrimer, revPrimer, *fuzzyTolerance)

	globalSalt, ok := peekGlobalSalt(byBlock, n, k)
	if !ok {
		fmt.Fprintln(os.Stderr, "helix restore: no block had enough surviving shards to recover the archive salt")
		return 7
	}
	masterKey := crypto.DeriveMasterKey(*password, globalSalt)

	results := map[uint64][]byte{}
	var insufficient, authFailed []uint64
	for blockID, set := range byBlock {
		shards := shardSlice(set)
		header := model.ArchiveHeader{N: n, K: k}
		plaintext, err := pipeline.RestoreBlock(blockID, shards, header, masterKey)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrInsufficientShards):
				insufficient = append(insufficient, blockID)
			case errors.Is(err, model.ErrAuthFailure):
				authFailed = append(authFailed, blockID)
			default:
				insufficient = append(insufficient, blockID)
			}
			continue
		}
		results[blockID] = plaintext
	}

	if len(authFailed) > 0 {
		fmt.Fprintf(os.Stderr, "helix restore: authentication failed for block(s) %v (wrong password?)\n", authFailed)
		return 6
	}
	if _, ok := results[0]; !ok {
		fmt.Fprintln(os.Stderr, "helix restore: header block (block 0) never reconstructed")
		return 7
	}
	if len(insufficient) > 0 {
		fmt.Fprintf(os.Stderr, "helix restore: insufficient shards to reconstruct block(s) %v\n", insufficient)
		return 7
	}

	if archivedHeader, err := archive.DecodeHeader(results[0]); err == nil {
		fmt.Printf("archive header: version=%d n=%d k=%d block_size=%d max_retries=%d\n",
			archivedHeader.Version, archivedHeader.N, archivedHeader.K, archivedHeader.BlockSize, archivedHeader.MaxRetries)
	}

	blockIDs := make([]uint64, 0, len(results))
	for id := range results {
		if id == 0 {
			continue
		}
		blockIDs = append(blockIDs, id)
	}
	sort.Slice(blockIDs, func(i, j int) bool { return blockIDs[i] < blockIDs[j] })

	for i, id := range blockIDs {
		if id != uint64(i+1) {
			fmt.Fprintf(os.Stderr, "helix restore: missing block %d, archive data is not contiguous\n", i+1)
			return 7
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helix restore: creating %s: %v\n", outPath, err)
		return 2
	}
	defer out.Close()

	for _, id := range blockIDs {
		if _, err := out.Write(results[id]); err != nil {
			fmt.Fprintf(os.Stderr, "helix restore: writing %s: %v\n", outPath, err)
			return 2
		}
	}

	fmt.Printf("restored %s -> %s: %d block(s)\n", archivePath, outPath, len(blockIDs))
	return 0
}

type demuxHit struct {
	blockID uint64
	shard   model.Shard
	ok      bool
}

// demuxAll fuzzily demultiplexes every strand in parallel, grouping the
// survivors by block id and deduplicating by shard index within a block
// (first CRC-passing instance wins, matching pipeline.Demultiplexer).
func demuxAll(pool *workerpool.WorkerPool, strands []string, fwdPrimer, revPrimer string, fuzzyTolerance int) map[uint64]map[uint16]model.Shard {
	room := workerpool.NewRoom[demuxHit](pool, len(strands))
	for _, strand := range strands {
		strand := strand
		room.NewTaskWaitForFreeSlot(func() demuxHit {
			blockID, shardIndex, payload, ok := oligo.Demux(strand, fwdPrimer, revPrimer, fuzzyTolerance)
			if !ok {
				return demuxHit{}
			}
			return demuxHit{blockID: blockID, shard: model.Shard{BlockID: blockID, Index: shardIndex, Bytes: payload}, ok: true}
		})
	}

	byBlock := map[uint64]map[uint16]model.Shard{}
	for _, hit := range room.Collect() {
		if !hit.ok {
			continue
		}
		set, exists := byBlock[hit.blockID]
		if !exists {
			set = map[uint16]model.Shard{}
			byBlock[hit.blockID] = set
		}
		if _, dup := set[hit.shard.Index]; !dup {
			set[hit.shard.Index] = hit.shard
		}
	}
	return byBlock
}

// peekGlobalSalt reconstructs whichever block has at least n surviving
// shards and returns the global_salt from its frame header, without
// needing any key: every block in the archive carries the same salt
// (spec §6), so the first one that reconstructs is as good as any other.
func peekGlobalSalt(byBlock map[uint64]map[uint16]model.Shard, n, k uint8) ([16]byte, bool) {
	for _, set := range byBlock {
		if len(set) < int(n) {
			continue
		}
		padded, err := erasure.ReconstructData(shardSlice(set), n, k)
		if err != nil {
			continue
		}
		blockHeader, _, err := model.ParseFramed(padded)
		if err != nil {
			continue
		}
		return blockHeader.GlobalSalt, true
	}
	return [16]byte{}, false
}

func shardSlice(set map[uint16]model.Shard) []model.Shard {
	out := make([]model.Shard, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	return out
}
