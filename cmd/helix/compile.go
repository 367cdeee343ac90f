package main

import (
	"bufio"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/strandgate/helix/internal/archive"
	"github.com/strandgate/helix/internal/crypto"
	"github.com/strandgate/helix/internal/oligo"
	"github.com/strandgate/helix/internal/pipeline"
	"github.com/strandgate/helix/internal/stability"
	"github.com/strandgate/helix/pkg/logging"
	"github.com/strandgate/helix/pkg/model"
	"github.com/strandgate/helix/pkg/workerpool"
)

// runCompile implements the compile subcommand: block-split the input,
// run every block through pipeline.CompileBlock, and write the resulting
// oligos to a FASTA-like archive (spec §6). Block 0 is a distinguished
// header block whose plaintext is the serialized ArchiveHeader, so a
// decoder with nothing but a passphrase and the archive's primers can
// recover every other parameter before decoding any user data.
func runCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	output := fs.String("output", "", "output archive path")
	password := fs.String("password", "", "passphrase")
	dataShards := fs.Int("data", 10, "Reed-Solomon data shards (N)")
	parityShards := fs.Int("parity", 5, "Reed-Solomon parity shards (K)")
	tag := fs.String("tag", "default", "tag used to derive primers when no override is given")
	primerFwd := fs.String("primer-fwd", "", "override forward primer")
	primerRev := fs.String("primer-rev", "", "override reverse primer")
	blockSize := fs.Int("block-size", 4<<20, "plaintext block size in bytes")
	maxRetries := fs.Int("max-retries", 16, "salt-and-retry budget per block")
	force := fs.Bool("force", false, "emit a block even if it never passes the stability gate")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: helix compile <in> --output <out> --password <s> [--data N] [--parity K]")
		return 2
	}
	inputPath := fs.Arg(0)

	if *password == "" {
		fmt.Fprintln(os.Stderr, "helix compile: --password is required")
		return 3
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helix compile: reading %s: %v\n", inputPath, err)
		return 2
	}

	var globalSalt [16]byte
	if _, err := rand.Read(globalSalt[:]); err != nil {
		fmt.Fprintf(os.Stderr, "helix compile: generating global salt: %v\n", err)
		return 3
	}

	fwdPrimer, revPrimer := oligo.ResolvePrimers(*tag, *primerFwd, *primerRev)

	header := model.DefaultHeader(globalSalt, fwdPrimer, revPrimer)
	header.N = uint8(*dataShards)
	header.K = uint8(*parityShards)
	header.BlockSize = uint32(*blockSize)
	header.MaxRetries = *maxRetries

	masterKey := crypto.DeriveMasterKey(*password, header.GlobalSalt)
	gate := stability.Gate{
		GCMin: stability.DefaultGCMin, GCMax: stability.DefaultGCMax,
		TmMin: header.TmMin, TmMax: header.TmMax,
		PrimerFwd: header.PrimerFwd, PrimerRev: header.PrimerRev,
		FuzzyTolerance: header.FuzzyTolerance,
	}

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helix compile: creating %s: %v\n", *output, err)
		return 5
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	if _, err := fmt.Fprint(w, archive.WriteMagic(archive.ArchiveParams{
		Version: header.Version, N: header.N, K: header.K, BlockSize: header.BlockSize,
	})); err != nil {
		fmt.Fprintf(os.Stderr, "helix compile: writing magic line: %v\n", err)
		return 5
	}

	pool := workerpool.NewWorkerPool(workerpool.Config{})

	numBlocks := (len(data) + int(header.BlockSize) - 1) / int(header.BlockSize)
	if numBlocks == 0 {
		numBlocks = 1
	}

	compileAndWrite := func(blockID uint64, plaintext []byte) error {
		result, err := pipeline.CompileBlock(pool, blockID, plaintext, header, masterKey, gate, header.PrimerFwd, header.PrimerRev, *force)
		if err != nil {
			return err
		}
		for shardIdx, o := range result.Oligos {
			if err := archive.WriteRecord(w, blockID, uint16(shardIdx), o.String()); err != nil {
				return fmt.Errorf("%w: %v", model.ErrIO, err)
			}
		}
		if result.Forced {
			logging.Logger.Warn("block emitted without passing the stability gate", "block_id", blockID)
		}
		fmt.Printf("block %d: attempts=%d oligos=%d\n", blockID, result.Attempts, len(result.Oligos))
		return nil
	}

	if err := compileAndWrite(0, archive.EncodeHeader(header)); err != nil {
		return compileExitCode(err)
	}

	for i := 0; i < numBlocks; i++ {
		start := i * int(header.BlockSize)
		end := start + int(header.BlockSize)
		if end > len(data) {
			end = len(data)
		}
		if err := compileAndWrite(uint64(i+1), data[start:end]); err != nil {
			return compileExitCode(err)
		}
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "helix compile: flushing output: %v\n", err)
		return 5
	}

	fmt.Printf("compiled %s -> %s: %d block(s)\n", inputPath, *output, numBlocks+1)
	return 0
}

func compileExitCode(err error) int {
	switch {
	case errors.Is(err, model.ErrStabilityFailure):
		fmt.Fprintf(os.Stderr, "helix compile: %v\n", err)
		return 4
	case errors.Is(err, model.ErrIO):
		fmt.Fprintf(os.Stderr, "helix compile: %v\n", err)
		return 5
	default:
		fmt.Fprintf(os.Stderr, "helix compile: %v\n", err)
		return 5
	}
}
