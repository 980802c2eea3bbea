// Package xnb reads the XNA content container that wraps compiled effects:
// the "XNB" header, optional LZX framing, the content type-reader table and
// the effect object's length prefix.
package xnb

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"fxinspect/internal/fxfmt"
	"fxinspect/internal/lzx"
)

var (
	ErrNotXNB             = fmt.Errorf("xnb: not xnb data: %w", fxfmt.ErrHeaderMismatch)
	ErrBadPlatform        = fmt.Errorf("xnb: bad platform: %w", fxfmt.ErrHeaderMismatch)
	ErrUnknownContentType = errors.New("xnb: unknown content type")
	ErrNotAnEffect        = errors.New("xnb: content is not an effect")
	ErrTooLarge           = errors.New("xnb: declared size exceeds limit")
)

// Magic is the container signature.
var Magic = []byte("XNB")

const (
	// PlatformWindows is the only platform byte effects are read for.
	PlatformWindows = 'w'

	flagCompressed = 0x8000

	// headerSize is what the declared file length counts before the
	// compressed payload: magic, platform, version/flags, length and
	// decompressed size.
	headerSize = 14

	effectReaderName = "EffectReader"
)

// Header is the fixed container header.
type Header struct {
	Platform         byte  `json:"platform"`
	Version          byte  `json:"version"`
	Flags            byte  `json:"flags"`
	Compressed       bool  `json:"compressed"`
	Length           int32 `json:"length"`
	DecompressedSize int32 `json:"decompressedSize,omitempty"`
}

// ReaderType is one entry of the content type-reader table.
type ReaderType struct {
	Name    string `json:"name"`
	Version int32  `json:"version"`
}

// Content is an unwrapped container.
type Content struct {
	Header          Header         `json:"header"`
	Readers         []ReaderType   `json:"readers"`
	SharedResources int32          `json:"sharedResources"`
	ReaderIndex     int32          `json:"readerIndex"`
	EffectLength    uint32         `json:"effectLength"`
	Frames          lzx.FrameStats `json:"frames"`
	Effect          []byte         `json:"-"`
	Diags           []fxfmt.Diag   `json:"diags,omitempty"`
}

// IsXNB reports whether data starts with the container signature.
func IsXNB(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// Unwrap validates the container header, decompresses the payload if needed,
// walks the type-reader table and returns the effect bytes that follow.
func Unwrap(data []byte, opts fxfmt.Options) (*Content, error) {
	if !IsXNB(data) {
		return nil, ErrNotXNB
	}
	s := fxfmt.NewStreamAt(data, len(Magic))
	c := &Content{}
	var diags fxfmt.Diags

	platform, err := s.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("xnb: platform: %w", err)
	}
	if platform != PlatformWindows {
		return nil, fmt.Errorf("%w: %q", ErrBadPlatform, platform)
	}
	flags, err := s.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("xnb: flags: %w", err)
	}
	length, err := s.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("xnb: length: %w", err)
	}
	c.Header = Header{
		Platform:   platform,
		Version:    byte(flags),
		Flags:      byte(flags >> 8),
		Compressed: flags&flagCompressed != 0,
		Length:     length,
	}

	body := s
	if c.Header.Compressed {
		size, err := s.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("xnb: decompressed size: %w", err)
		}
		c.Header.DecompressedSize = size
		if size < 0 || int(size) > opts.EffectiveMaxBytes() {
			return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, opts.EffectiveMaxBytes())
		}
		n := int(length) - headerSize
		if n < 0 {
			return nil, fmt.Errorf("xnb: declared length %d shorter than header: %w", length, fxfmt.ErrStreamEOF)
		}
		compressed, err := s.ReadBytes(n)
		if err != nil {
			return nil, fmt.Errorf("xnb: compressed payload of %d bytes: %w", n, err)
		}
		out, stats, err := lzx.DecompressFrames(compressed, int(size), lzx.XNBWindowBits)
		if err != nil {
			return nil, fmt.Errorf("xnb: decompress: %w", err)
		}
		c.Frames = stats
		if stats.IntelFileSize != 0 {
			diags.Addf(uint64(headerSize), fxfmt.DiagUnapplied,
				"E8 call translation requested (file size %d) but not applied to %d frames", stats.IntelFileSize, stats.Untranslated)
		}
		body = fxfmt.NewStream(out)
	}

	if err := c.readTypeReaders(body); err != nil {
		return nil, err
	}

	effectLen, err := body.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("xnb: effect length: %w", err)
	}
	c.EffectLength = effectLen
	if int64(effectLen) != int64(body.Remaining()) {
		diags.Addf(uint64(body.Position()), fxfmt.DiagMismatch,
			"declared effect length %d, %d bytes remain", effectLen, body.Remaining())
	}
	c.Effect = body.Rest()
	c.Diags = diags.Items()
	return c, nil
}

// readTypeReaders reads the reader table, the shared resource count and the
// 1-based index of the primary object's reader.
func (c *Content) readTypeReaders(s *fxfmt.Stream) error {
	count, err := s.Read7BitInt()
	if err != nil {
		return fmt.Errorf("xnb: reader count: %w", err)
	}
	if count < 0 || int(count) > s.Remaining() {
		return fmt.Errorf("xnb: reader count %d: %w", count, fxfmt.ErrStreamOverrun)
	}
	c.Readers = make([]ReaderType, 0, count)
	for i := int32(0); i < count; i++ {
		name, err := s.ReadPrefixedString()
		if err != nil {
			return fmt.Errorf("xnb: reader %d name: %w", i, err)
		}
		version, err := s.ReadInt32()
		if err != nil {
			return fmt.Errorf("xnb: reader %d version: %w", i, err)
		}
		c.Readers = append(c.Readers, ReaderType{Name: name, Version: version})
	}

	if c.SharedResources, err = s.Read7BitInt(); err != nil {
		return fmt.Errorf("xnb: shared resource count: %w", err)
	}
	if c.ReaderIndex, err = s.Read7BitInt(); err != nil {
		return fmt.Errorf("xnb: reader index: %w", err)
	}
	if c.ReaderIndex < 1 || int(c.ReaderIndex) > len(c.Readers) {
		return fmt.Errorf("%w: reader index %d of %d", ErrUnknownContentType, c.ReaderIndex, len(c.Readers))
	}
	if name := c.Readers[c.ReaderIndex-1].Name; !strings.Contains(name, effectReaderName) {
		return fmt.Errorf("%w: %s", ErrNotAnEffect, name)
	}
	return nil
}
