package main

import (
	"flag"
	"fmt"
	"os"

	"fxinspect/internal/fxfile"
	"fxinspect/internal/fxfmt"
	"fxinspect/internal/output"
	"fxinspect/internal/refgraph"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	in := fs.String("in", "", "path to .fxc or .xnb")
	outPath := fs.String("out", "", "output .dot file")
	view := fs.String("view", "refs", "graph view: refs or techniques")
	maxBytes := fs.Int("max-bytes", 0, "decompressed size cap")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *outPath == "" {
		return fmt.Errorf("--in and --out are required")
	}
	opts := fxfmt.Options{MaxBytes: *maxBytes}

	f, err := fxfile.Open(*in, opts)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	res, err := f.Decode(opts)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	var dot string
	switch *view {
	case "refs":
		g := refgraph.Build(res.Effect)
		dot = refgraph.DOT(res.Effect, *in)
		fmt.Fprintf(os.Stderr, "reference graph: %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	case "techniques":
		dot = refgraph.TechniquesDOT(res.Effect, *in)
	default:
		return fmt.Errorf("unknown view %q (want refs or techniques)", *view)
	}

	if err := output.WriteDOT(*outPath, dot); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", *outPath)
	return nil
}
