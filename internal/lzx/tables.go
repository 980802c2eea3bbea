// Package lzx implements the LZX decompressor used by XNA content (.xnb)
// files: a Huffman-coded LZ77 variant with a sliding window, a three-entry
// repeated-offset cache, and verbatim, aligned-offset and uncompressed blocks.
package lzx

import "errors"

var (
	ErrUnsupportedWindowSize     = errors.New("lzx: window size out of range [15,21]")
	ErrMalformedHuffmanTable     = errors.New("lzx: malformed huffman table")
	ErrHuffmanDecodeUnderflow    = errors.New("lzx: huffman decode ran out of code bits")
	ErrInvalidBlockType          = errors.New("lzx: invalid block type")
	ErrWindowOverrun             = errors.New("lzx: run overruns window")
	ErrTruncatedInput            = errors.New("lzx: input shorter than declared length")
	ErrUnexpectedEnd             = errors.New("lzx: unexpected end of bitstream")
	ErrDecompressionSizeMismatch = errors.New("lzx: decompressed size mismatch")
)

const (
	minMatch          = 2
	numChars          = 256
	numPrimaryLengths = 7
	numSecondaryLens  = 249

	pretreeNumElements = 20
	alignedNumElements = 8

	pretreeMaxSymbols  = pretreeNumElements
	pretreeTableBits   = 6
	maintreeMaxSymbols = numChars + 50*8
	maintreeTableBits  = 12
	lengthMaxSymbols   = numSecondaryLens + 1
	lengthTableBits    = 12
	alignedMaxSymbols  = alignedNumElements
	alignedTableBits   = 7

	// Slack after each length table so run-length codes that overshoot the
	// declared range stay in bounds.
	lenTableSafety = 64

	minWindowBits = 15
	maxWindowBits = 21
)

// BlockType is the 3-bit LZX block header type.
type BlockType uint8

const (
	BlockInvalid      BlockType = 0
	BlockVerbatim     BlockType = 1
	BlockAligned      BlockType = 2
	BlockUncompressed BlockType = 3
)

func (t BlockType) String() string {
	switch t {
	case BlockVerbatim:
		return "verbatim"
	case BlockAligned:
		return "aligned"
	case BlockUncompressed:
		return "uncompressed"
	default:
		return "invalid"
	}
}

// extraBits[slot] is the number of footer bits that follow a match in
// position slot: 0,0,0,0,1,1,2,2,... capped at 17.
var extraBits = func() [52]byte {
	var eb [52]byte
	for i, j := 0, byte(0); i <= 50; i += 2 {
		eb[i] = j
		eb[i+1] = j
		if i != 0 && j < 17 {
			j++
		}
	}
	return eb
}()

// positionBase[slot] is the smallest formatted offset encoded by slot.
var positionBase = func() [51]uint32 {
	var pb [51]uint32
	for i, j := 0, uint32(0); i <= 50; i++ {
		pb[i] = j
		j += 1 << extraBits[i]
	}
	return pb
}()

// positionSlots returns the number of position slots for a window size.
func positionSlots(windowBits uint) uint {
	switch windowBits {
	case 20:
		return 42
	case 21:
		return 50
	default:
		return windowBits << 1
	}
}
