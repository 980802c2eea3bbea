// Package fxfile loads effect archives from disk and identifies their
// container kind.
package fxfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fxinspect/internal/effect"
	"fxinspect/internal/fxfmt"
	"fxinspect/internal/xnb"
)

var (
	ErrUnknownKind = errors.New("fxfile: neither an xnb container nor an effect binary")
	ErrTooLarge    = errors.New("fxfile: file exceeds size limit")
)

// Kind is the outer format of an archive.
type Kind string

const (
	KindXNB     Kind = "xnb"
	KindEffect  Kind = "fxc"
	KindWrapped Kind = "fxc-wrapped"
)

// File is an archive read fully into memory.
type File struct {
	Path string
	Kind Kind
	Data []byte
}

// Open reads path and checks that it starts like an archive. Files larger
// than the decode limit are rejected before they are read.
func Open(path string, opts fxfmt.Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fxfile: open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("fxfile: stat: %w", err)
	}
	if limit := opts.EffectiveMaxBytes(); info.Size() > int64(limit) {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, path, info.Size(), limit)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("fxfile: read %s: %w", path, err)
	}
	kind, err := Sniff(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Path: path, Kind: kind, Data: data}, nil
}

// Sniff identifies the container kind from the leading bytes.
func Sniff(data []byte) (Kind, error) {
	if xnb.IsXNB(data) {
		return KindXNB, nil
	}
	if len(data) >= 4 {
		switch binary.LittleEndian.Uint32(data) {
		case effect.Magic:
			return KindEffect, nil
		case effect.WrapperMagic:
			return KindWrapped, nil
		}
	}
	return "", ErrUnknownKind
}

// Size returns the length of the file contents.
func (f *File) Size() int { return len(f.Data) }

// Decode decodes the archive.
func (f *File) Decode(opts fxfmt.Options) (*effect.Result, error) {
	res, err := effect.Decode(f.Data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return res, nil
}

// Find walks dir and returns the paths with an archive extension, sorted.
func Find(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".fxc", ".xnb", ".fxo":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fxfile: walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
