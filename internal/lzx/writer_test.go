package lzx

// Test-side encoder helpers: just enough of an LZX writer to hand-assemble
// blocks with known trees.

// bitWriter packs bits MSB-first into 16-bit little-endian words.
type bitWriter struct {
	out []byte
	acc uint32
	n   uint
}

func (w *bitWriter) write(v uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		w.acc = w.acc<<1 | (v>>uint(i))&1
		w.n++
		if w.n == 16 {
			w.out = append(w.out, byte(w.acc), byte(w.acc>>8))
			w.acc, w.n = 0, 0
		}
	}
}

// align pads with zero bits to the next word boundary.
func (w *bitWriter) align() {
	for w.n != 0 {
		w.write(0, 1)
	}
}

// alignUncompressed pads the way an uncompressed block header expects: to
// the next word, or a full zero word when already aligned.
func (w *bitWriter) alignUncompressed() {
	if w.n == 0 {
		w.write(0, 16)
		return
	}
	w.align()
}

func (w *bitWriter) raw(b ...byte) {
	w.out = append(w.out, b...)
}

func (w *bitWriter) bytes() []byte {
	w.align()
	return w.out
}

// canonicalCodes assigns codes by length, then ascending symbol.
func canonicalCodes(lens []byte) []uint32 {
	codes := make([]uint32, len(lens))
	code := uint32(0)
	for l := byte(1); l <= maxCodeLen; l++ {
		for sym, sl := range lens {
			if sl == l {
				codes[sym] = code
				code++
			}
		}
		code <<= 1
	}
	return codes
}

type testTree struct {
	lens  []byte
	codes []uint32
}

func newTestTree(n int, set map[int]byte) *testTree {
	lens := make([]byte, n)
	for sym, l := range set {
		lens[sym] = l
	}
	return &testTree{lens: lens, codes: canonicalCodes(lens)}
}

func (t *testTree) put(w *bitWriter, sym int) {
	w.write(t.codes[sym], uint(t.lens[sym]))
}

// testPretree gives every pretree symbol a code: 0..15 five bits, 16..19
// three bits.
var testPretree = func() *testTree {
	set := make(map[int]byte)
	for i := 0; i < pretreeNumElements; i++ {
		if i < 16 {
			set[i] = 5
		} else {
			set[i] = 3
		}
	}
	return newTestTree(pretreeNumElements, set)
}()

// writeLengths encodes next as deltas against prev, using zero runs where
// possible.
func writeLengths(w *bitWriter, next, prev []byte) {
	for i := 0; i < pretreeNumElements; i++ {
		w.write(uint32(testPretree.lens[i]), 4)
	}
	for x := 0; x < len(next); {
		if next[x] == 0 {
			run := 0
			for x+run < len(next) && next[x+run] == 0 && run < 51 {
				run++
			}
			switch {
			case run >= 20:
				testPretree.put(w, 18)
				w.write(uint32(run-20), 5)
				x += run
				continue
			case run >= 4:
				testPretree.put(w, 17)
				w.write(uint32(run-4), 4)
				x += run
				continue
			}
		}
		testPretree.put(w, (int(prev[x])-int(next[x])+17)%17)
		x++
	}
}

// testBlock describes the trees of one verbatim or aligned block for a
// 2^16 window (512 main elements).
type testBlock struct {
	main    *testTree
	length  *testTree
	aligned *testTree // nil for verbatim
}

const testMainElements = numChars + 32<<3

func newTestBlock(main map[int]byte) *testBlock {
	return &testBlock{
		main:   newTestTree(testMainElements, main),
		length: newTestTree(numSecondaryLens, nil),
	}
}

// writeHeader writes the block type, length and trees. prev holds the
// previous block's trees, or nil for the first block of a stream.
func (b *testBlock) writeHeader(w *bitWriter, length int, prev *testBlock) {
	prevMain := make([]byte, testMainElements)
	prevLen := make([]byte, numSecondaryLens)
	if prev != nil {
		prevMain = prev.main.lens
		prevLen = prev.length.lens
	}
	if b.aligned != nil {
		w.write(uint32(BlockAligned), 3)
	} else {
		w.write(uint32(BlockVerbatim), 3)
	}
	w.write(uint32(length>>8), 16)
	w.write(uint32(length&0xff), 8)
	if b.aligned != nil {
		for _, l := range b.aligned.lens {
			w.write(uint32(l), 3)
		}
	}
	writeLengths(w, b.main.lens[:numChars], prevMain[:numChars])
	writeLengths(w, b.main.lens[numChars:], prevMain[numChars:])
	writeLengths(w, b.length.lens, prevLen)
}

// matchSymbol returns the main-tree symbol for a position slot and a match
// length below the secondary-length threshold.
func matchSymbol(slot, length int) int {
	return numChars + (slot<<3 | (length - minMatch))
}
