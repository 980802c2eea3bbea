package main

import (
	"flag"
	"fmt"
	"os"

	"fxinspect/internal/fxfile"
	"fxinspect/internal/fxfmt"
	"fxinspect/internal/output"
)

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	in := fs.String("in", "", "path to .fxc or .xnb")
	outDir := fs.String("out", "", "output directory")
	maxBytes := fs.Int("max-bytes", 0, "decompressed size cap")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *outDir == "" {
		return fmt.Errorf("--in and --out are required")
	}
	opts := fxfmt.Options{MaxBytes: *maxBytes}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := fxfile.Open(*in, opts)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	res, err := f.Decode(opts)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if res.XNB != nil {
		fmt.Fprintf(os.Stderr, "XNB v%d, compressed=%v, %d readers, effect %d bytes\n",
			res.XNB.Header.Version, res.XNB.Header.Compressed, len(res.XNB.Readers), len(res.XNB.Effect))
	}
	for _, d := range res.Diags {
		fmt.Fprintf(os.Stderr, "warning: %s\n", d)
	}

	if err := output.WriteEffectJSON(*outDir, res); err != nil {
		return fmt.Errorf("write effect.json: %w", err)
	}
	entries, err := output.WriteObjects(*outDir, res.Effect)
	if err != nil {
		return fmt.Errorf("write objects: %w", err)
	}

	blobs := 0
	for _, e := range entries {
		if e.File != "" {
			blobs++
		}
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d parameters, %d techniques)\n", *outDir, len(res.Effect.Parameters), len(res.Effect.Techniques))
	fmt.Fprintf(os.Stderr, "wrote %d objects, %d blobs\n", len(entries), blobs)
	return nil
}
