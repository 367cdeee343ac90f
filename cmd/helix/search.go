package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/strandgate/helix/internal/archive"
	"github.com/strandgate/helix/internal/oligo"
)

// runSearch implements the search subcommand: an in-silico PCR that
// streams an arbitrarily large strand pool and keeps only the strands
// whose primers exactly match the ones derived from query (spec §6).
func runSearch(args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	output := fs.String("output", "", "output path for matching strands")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 2 || *output == "" {
		fmt.Fprintln(os.Stderr, "usage: helix search <archive> <query> --output <out>")
		return 2
	}
	archivePath, query := fs.Arg(0), fs.Arg(1)

	in, err := os.Open(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helix search: opening %s: %v\n", archivePath, err)
		return 2
	}
	defer in.Close()

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "helix search: creating %s: %v\n", *output, err)
		return 2
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	fwdPrimer, revPrimer := oligo.PrimersForTag(query)

	br := bufio.NewReader(in)
	var rest io.Reader = br
	if magicLine, err := br.ReadString('\n'); err == nil || err == io.EOF {
		if _, ok := archive.ParseMagic(magicLine); ok {
			if _, err := fmt.Fprint(w, magicLine); err != nil {
				fmt.Fprintf(os.Stderr, "helix search: writing %s: %v\n", *output, err)
				return 2
			}
		} else {
			rest = io.MultiReader(strings.NewReader(magicLine), br)
		}
	}

	reader := archive.NewBatchReader(rest, 10000, 64<<20)
	matched := 0
	for {
		batch, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "helix search: reading %s: %v\n", archivePath, err)
			return 2
		}
		for _, rec := range oligo.FilterSoup(batch, fwdPrimer, revPrimer) {
			if _, err := fmt.Fprintf(w, "%s\n%s\n", rec.Header, rec.Sequence); err != nil {
				fmt.Fprintf(os.Stderr, "helix search: writing %s: %v\n", *output, err)
				return 2
			}
			matched++
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "helix search: flushing %s: %v\n", *output, err)
		return 2
	}

	fmt.Printf("search: %d matching strand(s) written to %s\n", matched, *output)
	return 0
}
