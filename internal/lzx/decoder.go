package lzx

import (
	"encoding/binary"
	"fmt"
)

// Decoder holds the state of one LZX stream. The window, repeated offsets
// and code lengths carry over between Decompress calls, so a Decoder must be
// fed the frames of a single stream in order and never shared between
// streams or goroutines.
type Decoder struct {
	window       []byte
	windowSize   uint32
	windowPos    uint32
	lru          [3]uint32 // R0, R1, R2
	mainElements uint

	headerRead     bool
	blockType      BlockType
	blockLength    uint32
	blockRemaining uint32
	framesRead     uint32

	// Intel E8 call translation bookkeeping. The translation itself is not
	// applied; see IntelFileSize.
	intelFileSize int32
	intelCurPos   int32
	intelStarted  bool
	untranslated  int

	pretree  *huffTree
	maintree *huffTree
	length   *huffTree
	aligned  *huffTree
}

// NewDecoder creates a decoder with a 1<<windowBits byte window.
func NewDecoder(windowBits int) (*Decoder, error) {
	if windowBits < minWindowBits || windowBits > maxWindowBits {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedWindowSize, windowBits)
	}
	size := uint32(1) << windowBits
	window := make([]byte, size)
	for i := range window {
		window[i] = 0xdc
	}
	return &Decoder{
		window:       window,
		windowSize:   size,
		lru:          [3]uint32{1, 1, 1},
		mainElements: numChars + positionSlots(uint(windowBits))<<3,
		pretree:      newHuffTree(pretreeMaxSymbols, pretreeTableBits),
		maintree:     newHuffTree(maintreeMaxSymbols, maintreeTableBits),
		length:       newHuffTree(lengthMaxSymbols, lengthTableBits),
		aligned:      newHuffTree(alignedMaxSymbols, alignedTableBits),
	}, nil
}

// IntelFileSize returns the E8 translation file size announced in the stream
// header, or 0 if the stream did not request translation. Output is returned
// untranslated either way.
func (d *Decoder) IntelFileSize() int32 { return d.intelFileSize }

// UntranslatedFrames returns how many frames were eligible for E8 call
// translation but were returned as decoded.
func (d *Decoder) UntranslatedFrames() int { return d.untranslated }

// FramesRead returns the number of frames decoded so far.
func (d *Decoder) FramesRead() uint32 { return d.framesRead }

// Decompress decodes one frame of outLen bytes from input. inLen is the
// declared compressed size of the frame; input may extend past it (the rest
// of the stream), which only serves bitstream lookahead.
func (d *Decoder) Decompress(input []byte, inLen, outLen int) ([]byte, error) {
	if outLen < 0 || outLen > int(d.windowSize) {
		return nil, fmt.Errorf("%w: frame of %d bytes in %d byte window", ErrWindowOverrun, outLen, d.windowSize)
	}

	br := newBitReader(input)
	pos := d.windowPos
	lru := d.lru

	if !d.headerRead {
		if br.read(1) != 0 {
			hi := br.read(16)
			lo := br.read(16)
			d.intelFileSize = int32(hi<<16 | lo)
		}
		if br.err != nil {
			return nil, br.err
		}
		d.headerRead = true
	}

	togo := outLen
	for togo > 0 {
		if d.blockRemaining == 0 {
			if err := d.readBlockHeader(br, &lru); err != nil {
				return nil, err
			}
		}

		if err := checkConsumed(br, inLen); err != nil {
			return nil, err
		}

		for d.blockRemaining > 0 && togo > 0 {
			run := int(d.blockRemaining)
			if run > togo {
				run = togo
			}
			togo -= run
			d.blockRemaining -= uint32(run)

			pos &= d.windowSize - 1
			if pos+uint32(run) > d.windowSize {
				return nil, fmt.Errorf("%w: run of %d at 0x%x", ErrWindowOverrun, run, pos)
			}

			switch d.blockType {
			case BlockVerbatim, BlockAligned:
				var err error
				pos, run, err = d.decodeRun(br, pos, &lru, run)
				if err != nil {
					return nil, err
				}
				// The run is already clamped to both the block and the
				// frame, so a match ending past it overruns one of them.
				if run < 0 {
					return nil, fmt.Errorf("%w: match overshoots by %d", ErrWindowOverrun, -run)
				}

			case BlockUncompressed:
				if br.pos+run > inLen || br.pos+run > len(input) {
					return nil, fmt.Errorf("%w: uncompressed run of %d at %d", ErrTruncatedInput, run, br.pos)
				}
				copy(d.window[pos:], input[br.pos:br.pos+run])
				br.pos += run
				pos += uint32(run)

			default:
				return nil, fmt.Errorf("%w: %d", ErrInvalidBlockType, d.blockType)
			}
		}
	}

	if err := checkConsumed(br, inLen); err != nil {
		return nil, err
	}

	start := int(pos)
	if start == 0 {
		start = int(d.windowSize)
	}
	start -= outLen
	out := make([]byte, outLen)
	copy(out, d.window[start:start+outLen])

	d.windowPos = pos
	d.lru = lru

	if d.framesRead < 32768 && d.intelFileSize != 0 {
		// E8 call translation is not applied; eligible frames are
		// counted so callers can report them.
		if outLen > 6 && d.intelStarted {
			d.untranslated++
		}
		d.intelCurPos += int32(outLen)
	}
	d.framesRead++

	return out, nil
}

// checkConsumed fails when the frame has read past its declared input.
// The final symbols may pull up to one word of lookahead beyond inLen.
func checkConsumed(br *bitReader, inLen int) error {
	if br.pos > inLen && (br.pos > inLen+2 || br.bitsLeft() < 16) {
		return fmt.Errorf("%w: consumed %d of %d bytes", ErrTruncatedInput, br.pos, inLen)
	}
	return nil
}

// readBlockHeader reads a block type and length and the trees or raw
// repeated offsets that follow it.
func (d *Decoder) readBlockHeader(br *bitReader, lru *[3]uint32) error {
	if d.blockType == BlockUncompressed {
		if d.blockLength&1 == 1 {
			br.pos++
		}
		br.reset()
	}

	d.blockType = BlockType(br.read(3))
	hi := br.read(16)
	lo := br.read(8)
	d.blockLength = hi<<8 | lo
	d.blockRemaining = d.blockLength
	if br.err != nil {
		return br.err
	}

	switch d.blockType {
	case BlockAligned:
		for i := 0; i < alignedNumElements; i++ {
			d.aligned.lens[i] = byte(br.read(3))
		}
		if br.err != nil {
			return br.err
		}
		if err := d.aligned.build(); err != nil {
			return fmt.Errorf("aligned tree: %w", err)
		}
		fallthrough

	case BlockVerbatim:
		if err := d.readLengths(br, d.maintree.lens, 0, numChars); err != nil {
			return err
		}
		if err := d.readLengths(br, d.maintree.lens, numChars, d.mainElements); err != nil {
			return err
		}
		if err := d.maintree.build(); err != nil {
			return fmt.Errorf("main tree: %w", err)
		}
		if d.maintree.lens[0xe8] != 0 {
			d.intelStarted = true
		}
		if err := d.readLengths(br, d.length.lens, 0, numSecondaryLens); err != nil {
			return err
		}
		if err := d.length.build(); err != nil {
			return fmt.Errorf("length tree: %w", err)
		}

	case BlockUncompressed:
		d.intelStarted = true
		// Realign to 16 bits; an already aligned stream carries a full
		// pad word.
		br.ensure(16)
		if br.bitsLeft() > 16 {
			br.unreadWord()
		}
		br.reset()
		if br.pos+12 > len(br.src) {
			return fmt.Errorf("%w: uncompressed block header", ErrTruncatedInput)
		}
		for i := range lru {
			lru[i] = binary.LittleEndian.Uint32(br.src[br.pos:])
			br.pos += 4
		}

	default:
		return fmt.Errorf("%w: %d", ErrInvalidBlockType, d.blockType)
	}
	return br.err
}

// readLengths updates lens[first:last] from a pretree-coded delta stream.
func (d *Decoder) readLengths(br *bitReader, lens []byte, first, last uint) error {
	for i := 0; i < pretreeNumElements; i++ {
		d.pretree.lens[i] = byte(br.read(4))
	}
	if br.err != nil {
		return br.err
	}
	if err := d.pretree.build(); err != nil {
		return fmt.Errorf("pretree: %w", err)
	}

	for x := first; x < last; {
		z := br.decodeSymbol(d.pretree)
		if br.err != nil {
			return br.err
		}
		switch z {
		case 17: // 4..19 zeros
			n := uint(br.read(4)) + 4
			if err := fillLengths(lens, x, n, 0); err != nil {
				return err
			}
			x += n
		case 18: // 20..51 zeros
			n := uint(br.read(5)) + 20
			if err := fillLengths(lens, x, n, 0); err != nil {
				return err
			}
			x += n
		case 19: // 4..5 copies of one delta
			n := uint(br.read(1)) + 4
			z = br.decodeSymbol(d.pretree)
			if br.err != nil {
				return br.err
			}
			if z > 16 || x >= uint(len(lens)) {
				return ErrMalformedHuffmanTable
			}
			if err := fillLengths(lens, x, n, deltaLength(lens[x], z)); err != nil {
				return err
			}
			x += n
		default:
			if x >= uint(len(lens)) {
				return ErrMalformedHuffmanTable
			}
			lens[x] = deltaLength(lens[x], z)
			x++
		}
		if br.err != nil {
			return br.err
		}
	}
	return nil
}

// deltaLength applies a pretree delta to a previous code length, mod 17.
func deltaLength(prev byte, z uint) byte {
	v := int(prev) - int(z)
	if v < 0 {
		v += 17
	}
	return byte(v)
}

func fillLengths(lens []byte, at, n uint, v byte) error {
	if at+n > uint(len(lens)) {
		return ErrMalformedHuffmanTable
	}
	for i := at; i < at+n; i++ {
		lens[i] = v
	}
	return nil
}

// decodeRun decodes verbatim or aligned-offset symbols until run bytes have
// been produced. The returned run is zero or negative when the last match
// ran past it.
func (d *Decoder) decodeRun(br *bitReader, pos uint32, lru *[3]uint32, run int) (uint32, int, error) {
	alignedBlock := d.blockType == BlockAligned
	for run > 0 {
		main := br.decodeSymbol(d.maintree)
		if br.err != nil {
			return pos, run, br.err
		}
		if main < numChars {
			d.window[pos] = byte(main)
			pos++
			run--
			continue
		}

		// Match: numChars + (slot<<3 | length header).
		main -= numChars
		matchLen := main & numPrimaryLengths
		if matchLen == numPrimaryLengths {
			matchLen += br.decodeSymbol(d.length)
		}
		matchLen += minMatch

		var offset uint32
		switch slot := main >> 3; slot {
		case 0:
			offset = lru[0]
		case 1:
			offset = lru[1]
			lru[1] = lru[0]
			lru[0] = offset
		case 2:
			offset = lru[2]
			lru[2] = lru[0]
			lru[0] = offset
		default:
			if alignedBlock {
				offset = d.alignedOffset(br, slot)
			} else {
				offset = verbatimOffset(br, slot)
			}
			lru[2] = lru[1]
			lru[1] = lru[0]
			lru[0] = offset
		}
		if br.err != nil {
			return pos, run, br.err
		}

		run -= int(matchLen)
		var err error
		if pos, err = d.copyMatch(pos, offset, uint32(matchLen)); err != nil {
			return pos, run, err
		}
	}
	return pos, run, nil
}

// verbatimOffset decodes a formatted offset whose footer bits are all
// literal.
func verbatimOffset(br *bitReader, slot uint) uint32 {
	if slot == 3 {
		return 1
	}
	return positionBase[slot] - 2 + br.read(uint(extraBits[slot]))
}

// alignedOffset decodes a formatted offset in an aligned-offset block: the
// low three footer bits come from the aligned tree when there are at least
// three of them.
func (d *Decoder) alignedOffset(br *bitReader, slot uint) uint32 {
	extra := uint(extraBits[slot])
	offset := positionBase[slot] - 2
	switch {
	case extra > 3:
		offset += br.read(extra-3) << 3
		offset += uint32(br.decodeSymbol(d.aligned))
	case extra == 3:
		offset += uint32(br.decodeSymbol(d.aligned))
	case extra > 0:
		offset += br.read(extra)
	default:
		offset = 1
	}
	return offset
}

// copyMatch copies length bytes from offset bytes back, one byte at a time
// so overlapping source and destination replicate as LZ77 requires. A
// source that precedes the window start wraps to the window end.
func (d *Decoder) copyMatch(pos, offset, length uint32) (uint32, error) {
	if offset > d.windowSize || pos+length > d.windowSize {
		return pos, fmt.Errorf("%w: match offset %d length %d at 0x%x", ErrWindowOverrun, offset, length, pos)
	}
	w := d.window
	dst := pos
	var src uint32
	n := length
	if pos >= offset {
		src = pos - offset
	} else {
		src = pos + d.windowSize - offset
		if wrapped := offset - pos; wrapped < n {
			n -= wrapped
			for ; wrapped > 0; wrapped-- {
				w[dst] = w[src]
				dst++
				src++
			}
			src = 0
		}
	}
	for ; n > 0; n-- {
		w[dst] = w[src]
		dst++
		src++
	}
	return pos + length, nil
}
