// Package main provides burrowctl, a command-line tool for inspecting and
// rewriting burrowdb database files.
//
// Usage:
//
//	burrowctl [--options=<file.yaml>] [-v] <command> [args]
//
// Commands:
//
//	inspect <db>                 Print the format version and store summary
//	dump <db>                    Print every document, as text or JSON
//	verify <db>                  Decode the whole file and report the first error
//	recompress <db> <out>        Rewrite stores with a different compression
//	import <json> <db>           Add a store built from a JSON object
//	archive list|put|get|migrate Manage databases kept in a Bolt file
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
