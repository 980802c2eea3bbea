package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"fxinspect/internal/fxfile"
	"fxinspect/internal/fxfmt"
	"fxinspect/internal/output"
)

func cmdObjects(args []string) error {
	fs := flag.NewFlagSet("objects", flag.ExitOnError)
	in := fs.String("in", "", "path to .fxc or .xnb")
	jsonOut := fs.Bool("json", false, "output JSONL instead of text")
	maxBytes := fs.Int("max-bytes", 0, "decompressed size cap")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("--in is required")
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

	entries := output.ObjectEntries(res.Effect)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}
	printObjects(os.Stdout, entries)
	fmt.Fprintf(os.Stderr, "%d of %d object slots referenced\n", len(entries), len(res.Effect.Objects))
	return nil
}

func printObjects(w io.Writer, entries []output.ObjectEntry) {
	for _, e := range entries {
		detail := fmt.Sprintf("%d bytes", e.Size)
		if e.String != nil {
			detail = strconv.Quote(*e.String)
		} else if e.Type.IsShader() {
			detail += " bytecode"
		}
		kind := ""
		if e.LargeKind != 0 {
			kind = fmt.Sprintf(" kind=%d", e.LargeKind)
		}
		fmt.Fprintf(w, "[%4d] %-14s %-5s%s %s\n", e.Index, e.Type, e.Origin, kind, detail)
	}
}
