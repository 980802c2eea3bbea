package lzx

import "fmt"

// DefaultFrameSize is the decompressed size of a frame whose header does not
// override it.
const DefaultFrameSize = 32768

// XNBWindowBits is the window size XNA content streams are compressed with.
const XNBWindowBits = 16

// FrameStats summarizes a DecompressFrames call.
type FrameStats struct {
	Frames        int   `json:"frames"`
	IntelFileSize int32 `json:"intelFileSize,omitempty"`
	Untranslated  int   `json:"untranslated,omitempty"`
}

// DecompressFrames decodes an XNB-style framed LZX stream.
//
// Each frame starts with a big-endian 16-bit compressed block size. A high
// byte of 0xFF instead introduces a 5-byte header: 0xFF, a big-endian 16-bit
// frame (decompressed) size, then the big-endian 16-bit block size.
// Decoding stops at the end of input, at a zero size, or once
// decompressedSize bytes have been produced; any other total is an error.
func DecompressFrames(compressed []byte, decompressedSize, windowBits int) ([]byte, FrameStats, error) {
	var stats FrameStats
	if decompressedSize < 0 {
		return nil, stats, fmt.Errorf("%w: negative size %d", ErrDecompressionSizeMismatch, decompressedSize)
	}
	dec, err := NewDecoder(windowBits)
	if err != nil {
		return nil, stats, err
	}

	out := make([]byte, 0, decompressedSize)
	pos := 0
	for pos < len(compressed) && len(out) < decompressedSize {
		if pos+2 > len(compressed) {
			return nil, stats, fmt.Errorf("%w: frame header at %d", ErrTruncatedInput, pos)
		}
		hi := int(compressed[pos])
		lo := int(compressed[pos+1])
		blockSize := hi<<8 | lo
		frameSize := DefaultFrameSize
		if hi == 0xff {
			if pos+5 > len(compressed) {
				return nil, stats, fmt.Errorf("%w: frame header at %d", ErrTruncatedInput, pos)
			}
			frameSize = lo<<8 | int(compressed[pos+2])
			blockSize = int(compressed[pos+3])<<8 | int(compressed[pos+4])
			pos += 5
		} else {
			pos += 2
		}

		if blockSize == 0 || frameSize == 0 {
			break
		}
		if pos+blockSize > len(compressed) {
			return nil, stats, fmt.Errorf("%w: block of %d at %d, %d available",
				ErrTruncatedInput, blockSize, pos, len(compressed)-pos)
		}
		if rest := decompressedSize - len(out); frameSize > rest {
			frameSize = rest
		}

		frame, err := dec.Decompress(compressed[pos:], blockSize, frameSize)
		if err != nil {
			return nil, stats, fmt.Errorf("frame %d at %d: %w", stats.Frames, pos, err)
		}
		out = append(out, frame...)
		stats.Frames++
		pos += blockSize
	}

	stats.IntelFileSize = dec.IntelFileSize()
	stats.Untranslated = dec.UntranslatedFrames()

	if len(out) != decompressedSize {
		return nil, stats, fmt.Errorf("%w: got %d bytes, want %d", ErrDecompressionSizeMismatch, len(out), decompressedSize)
	}
	return out, stats, nil
}
