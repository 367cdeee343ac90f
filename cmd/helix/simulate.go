package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/strandgate/helix/internal/archive"
	"github.com/strandgate/helix/internal/decay"
)

// runSimulate implements the simulate subcommand: streams an existing
// strand pool through a synthetic channel-noise model (strand dropout
// plus per-base substitution) and writes the survivors, for exercising
// an archive's erasure and Viterbi-repair tolerance without waiting on
// real synthesis and sequencing (spec §6).
func runSimulate(args []string) int {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	dropout := fs.Float64("dropout", 0.0, "strand dropout rate in [0,1]")
	mutation := fs.Float64("mutation", 0.0, "per-base substitution rate in [0,1]")
	output := fs.String("output", "", "output path for the decayed strand pool")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: helix simulate <archive> --output <out> [--dropout P] [--mutation P]")
		return 2
	}
	archivePath := fs.Arg(0)

	in, err := os.Open(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helix simulate: opening %s: %v\n", archivePath, err)
		return 2
	}
	defer in.Close()

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helix simulate: creating %s: %v\n", *output, err)
		return 2
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	params := decay.Params{DropoutRate: *dropout, MutationRate: float32(*mutation)}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	br := bufio.NewReader(in)
	var rest io.Reader = br
	if magicLine, err := br.ReadString('\n'); err == nil || err == io.EOF {
		if _, ok := archive.ParseMagic(magicLine); ok {
			if _, err := fmt.Fprint(w, magicLine); err != nil {
				fmt.Fprintf(os.Stderr, "helix simulate: writing %s: %v\n", *output, err)
				return 2
			}
		} else {
			rest = io.MultiReader(strings.NewReader(magicLine), br)
		}
	}

	reader := archive.NewBatchReader(rest, 10000, 64<<20)
	survived, total := 0, 0
	for {
		batch, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "helix simulate: reading %s: %v\n", archivePath, err)
			return 2
		}
		total += len(batch)
		for _, rec := range decay.ApplyBatch(batch, params, rng) {
			if _, err := fmt.Fprintf(w, "%s\n%s\n", rec.Header, rec.Sequence); err != nil {
				fmt.Fprintf(os.Stderr, "helix simulate: writing %s: %v\n", *output, err)
				return 2
			}
			survived++
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "helix simulate: flushing %s: %v\n", *output, err)
		return 2
	}

	fmt.Printf("simulate: %d of %d strand(s) survived synthetic decay, written to %s\n", survived, total, *output)
	return 0
}
