package lzx

// bitReader is the LZX bitstream cursor. Bits are consumed MSB-first from a
// 32-bit register that is refilled at the low end with 16-bit little-endian
// words.
//
// Reading past the end of src synthesizes zero words so that a full 16-bit
// lookahead is always possible on the final symbol of a frame, but consuming
// a synthesized bit sets ErrUnexpectedEnd. Errors are sticky.
type bitReader struct {
	src []byte
	pos int    // next unread byte in src
	buf uint32 // bit register, next bit at bit 31
	n   uint   // valid bits in buf, including synthesized ones
	pad uint   // synthesized (past-end) bits at the low end of buf
	err error
}

func newBitReader(src []byte) *bitReader {
	return &bitReader{src: src}
}

//go:noinline
func (b *bitReader) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// reset discards any buffered bits.
func (b *bitReader) reset() {
	b.buf = 0
	b.n = 0
	b.pad = 0
}

// ensure guarantees at least n (<= 17) bits are buffered.
func (b *bitReader) ensure(n uint) {
	for b.n < n {
		var w uint32
		if b.pos+2 <= len(b.src) {
			w = uint32(b.src[b.pos+1])<<8 | uint32(b.src[b.pos])
			b.pos += 2
		} else {
			b.pad += 16
		}
		b.buf |= w << (16 - b.n)
		b.n += 16
	}
}

// peek returns the next n bits without consuming them.
func (b *bitReader) peek(n uint) uint32 {
	if n == 0 {
		return 0
	}
	return b.buf >> (32 - n)
}

// remove consumes n buffered bits.
func (b *bitReader) remove(n uint) {
	if n > b.n-b.pad {
		b.fail(ErrUnexpectedEnd)
	}
	if n > b.n {
		n = b.n
	}
	b.buf <<= n
	b.n -= n
	if b.pad > b.n {
		b.pad = b.n
	}
}

// read consumes and returns the next n bits.
func (b *bitReader) read(n uint) uint32 {
	if n == 0 {
		return 0
	}
	b.ensure(n)
	v := b.peek(n)
	b.remove(n)
	return v
}

// bitsLeft reports the number of buffered bits.
func (b *bitReader) bitsLeft() uint { return b.n }

// unreadWord hands the most recently buffered 16-bit word back to src.
func (b *bitReader) unreadWord() {
	if b.pad >= 16 {
		b.pad -= 16
	} else {
		b.pos -= 2
	}
	b.n -= 16
	b.buf &^= 0xffff << (16 - b.n)
}
