package main

import (
	"flag"
	"fmt"
	"os"

	"fxinspect/internal/fxfmt"
	"fxinspect/internal/server"
)

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default :$PORT or :3000)")
	cacheSize := fs.Int("cache", server.DefaultCacheSize, "decoded archives kept in memory")
	maxBytes := fs.Int("max-bytes", 0, "request and decompressed size cap")

	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := server.New(server.Config{
		CacheSize: *cacheSize,
		Options:   fxfmt.Options{MaxBytes: *maxBytes},
	})
	if err != nil {
		return err
	}
	listen := server.Addr(*addr)
	fmt.Fprintf(os.Stderr, "listening on %s\n", listen)
	return s.Run(listen)
}
