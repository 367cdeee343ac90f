// Command helix is the archival compiler/decompiler's CLI front end: it
// turns arbitrary bytes into a pool of stability-gated, erasure-coded DNA
// strands and back, plus a couple of maintenance commands for working with
// an existing strand pool (spec §6).
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var code int
	switch os.Args[1] {
	case "compile":
		code = runCompile(os.Args[2:])
	case "restore":
		code = runRestore(os.Args[2:])
	case "search":
		code = runSearch(os.Args[2:])
	case "simulate":
		code = runSimulate(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		code = 0
	default:
		fmt.Fprintf(os.Stderr, "helix: unknown command %q\n", os.Args[1])
		printUsage()
		code = 1
	}
	os.Exit(code)
}

func printUsage() {
	fmt.Println("Usage: helix <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  compile <in> --output <out> --password <s> [--data N] [--parity K] [--tag T] [--primer-fwd S] [--primer-rev S] [--force]")
	fmt.Println("  restore <archive> <out> --password <s> [--tag T] [--primer-fwd S] [--primer-rev S]")
	fmt.Println("  search <archive> <query> --output <out>")
	fmt.Println("  simulate <archive> --output <out> [--dropout P] [--mutation P]")
}
