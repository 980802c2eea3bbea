package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"fxinspect/internal/effect"
	"fxinspect/internal/fxfile"
	"fxinspect/internal/fxfmt"
)

type scanRecord struct {
	Path       string      `json:"path"`
	Kind       fxfile.Kind `json:"kind,omitempty"`
	Size       int         `json:"size"`
	Parameters int         `json:"parameters"`
	Techniques int         `json:"techniques"`
	Passes     int         `json:"passes"`
	Objects    int         `json:"objects"`
	Filled     int         `json:"filled"`
	Diags      int         `json:"diags,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func cmdScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	dir := fs.String("dir", ".", "directory to search for .fxc/.xnb files")
	in := fs.String("in", "", "single archive to scan (overrides --dir)")
	jsonOut := fs.Bool("json", false, "output JSONL instead of text")
	maxBytes := fs.Int("max-bytes", 0, "decompressed size cap")

	if err := fs.Parse(args); err != nil {
		return err
	}
	opts := fxfmt.Options{MaxBytes: *maxBytes}

	paths := []string{*in}
	if *in == "" {
		var err error
		if paths, err = fxfile.Find(*dir); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "found %d archives under %s\n", len(paths), *dir)
	}

	failed := 0
	for _, p := range paths {
		rec := scanFile(p, opts)
		if rec.Error != "" {
			failed++
		}
		if *jsonOut {
			if err := json.NewEncoder(os.Stdout).Encode(rec); err != nil {
				return err
			}
			continue
		}
		printScanRecord(os.Stdout, rec)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d archives failed to decode", failed, len(paths))
	}
	return nil
}

func scanFile(path string, opts fxfmt.Options) scanRecord {
	rec := scanRecord{Path: path}
	f, err := fxfile.Open(path, opts)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	rec.Kind = f.Kind
	rec.Size = f.Size()

	res, err := f.Decode(opts)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	summarize(&rec, res.Effect)
	rec.Diags = len(res.Diags)
	return rec
}

func summarize(rec *scanRecord, fx *effect.Effect) {
	rec.Parameters = len(fx.Parameters)
	rec.Techniques = len(fx.Techniques)
	for _, t := range fx.Techniques {
		rec.Passes += len(t.Passes)
	}
	rec.Objects = len(fx.Objects)
	for _, obj := range fx.Objects {
		if obj != nil && obj.Origin != effect.OriginNone {
			rec.Filled++
		}
	}
}

func printScanRecord(w io.Writer, rec scanRecord) {
	if rec.Error != "" {
		fmt.Fprintf(w, "%s: FAIL %s\n", rec.Path, rec.Error)
		return
	}
	fmt.Fprintf(w, "%s: %s %d bytes, %d params, %d techniques, %d passes, %d/%d objects filled",
		rec.Path, rec.Kind, rec.Size, rec.Parameters, rec.Techniques, rec.Passes, rec.Filled, rec.Objects)
	if rec.Diags > 0 {
		fmt.Fprintf(w, " (%d diags)", rec.Diags)
	}
	fmt.Fprintln(w)
}
