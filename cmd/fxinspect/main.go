package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = cmdScan(os.Args[2:])
	case "dump":
		err = cmdDump(os.Args[2:])
	case "list":
		err = cmdList(os.Args[2:])
	case "objects":
		err = cmdObjects(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `fxinspect: Direct3D effect (.fxc) and XNA content (.xnb) decoder

Usage:
  fxinspect scan    [--dir <dir>] [--in <file>] [--json]   Summarize effect archives
  fxinspect dump    --in <file> --out <dir>                 Write effect.json, objects.json, objects/*.bin
  fxinspect list    --in <file>                            Print parameters and techniques as source
  fxinspect objects --in <file> [--json]                    Print the object table
  fxinspect graph   --in <file> --out <file.dot> [--view refs|techniques]
                                                           Write the reference graph as DOT
  fxinspect serve   [--addr <addr>] [--cache <n>]          Run the HTTP decode service

Flags:
  --max-bytes <n>       Decompressed size cap (default 256 MiB)
`)
}
