package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"fxinspect/internal/effect"
	"fxinspect/internal/fxfile"
	"fxinspect/internal/fxfmt"
)

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	in := fs.String("in", "", "path to .fxc or .xnb")
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
	printEffect(os.Stdout, res.Effect)
	return nil
}

// printEffect writes parameter declarations followed by technique blocks.
func printEffect(w io.Writer, fx *effect.Effect) {
	fmt.Fprintf(w, "// %d parameters\n", len(fx.Parameters))
	for _, p := range fx.Parameters {
		fmt.Fprintln(w, p.Value)
	}
	fmt.Fprintf(w, "\n// %d techniques\n", len(fx.Techniques))
	for _, t := range fx.Techniques {
		fmt.Fprintln(w, t)
	}
}
