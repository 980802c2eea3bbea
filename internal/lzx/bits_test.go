package lzx

import (
	"errors"
	"testing"
)

func TestBitReaderWordOrder(t *testing.T) {
	// Words are little-endian; bits come out MSB-first.
	br := newBitReader([]byte{0x34, 0x12, 0x78, 0x56})
	if got := br.read(4); got != 0x1 {
		t.Errorf("read(4) = %#x, want 0x1", got)
	}
	if got := br.read(8); got != 0x23 {
		t.Errorf("read(8) = %#x, want 0x23", got)
	}
	// Straddles the word boundary.
	if got := br.read(8); got != 0x45 {
		t.Errorf("read(8) = %#x, want 0x45", got)
	}
	if got := br.read(12); got != 0x678 {
		t.Errorf("read(12) = %#x, want 0x678", got)
	}
	if br.err != nil {
		t.Fatalf("unexpected error: %v", br.err)
	}
}

func TestBitReaderRoundTrip(t *testing.T) {
	fields := []struct {
		v uint32
		n uint
	}{
		{1, 1}, {5, 3}, {0xabcd, 16}, {0x7f, 7}, {0, 2}, {0x1ffff, 17}, {3, 2},
	}
	var w bitWriter
	for _, f := range fields {
		w.write(f.v, f.n)
	}
	br := newBitReader(w.bytes())
	for i, f := range fields {
		if got := br.read(f.n); got != f.v {
			t.Errorf("field %d: read(%d) = %#x, want %#x", i, f.n, got, f.v)
		}
	}
	if br.err != nil {
		t.Fatalf("unexpected error: %v", br.err)
	}
}

func TestBitReaderLookaheadPastEnd(t *testing.T) {
	br := newBitReader([]byte{0xff, 0xff})
	br.ensure(17)
	if br.bitsLeft() != 32 {
		t.Fatalf("bitsLeft = %d, want 32", br.bitsLeft())
	}
	if got := br.peek(16); got != 0xffff {
		t.Errorf("peek(16) = %#x, want 0xffff", got)
	}
	if br.err != nil {
		t.Fatalf("peeking past end failed: %v", br.err)
	}
	br.remove(16)
	if br.err != nil {
		t.Fatalf("consuming real bits failed: %v", br.err)
	}
	br.remove(1)
	if !errors.Is(br.err, ErrUnexpectedEnd) {
		t.Fatalf("err = %v, want ErrUnexpectedEnd", br.err)
	}
}

func TestBitReaderStickyError(t *testing.T) {
	br := newBitReader(nil)
	br.read(3)
	first := br.err
	if !errors.Is(first, ErrUnexpectedEnd) {
		t.Fatalf("err = %v, want ErrUnexpectedEnd", first)
	}
	br.fail(ErrInvalidBlockType)
	if br.err != first {
		t.Errorf("error was replaced: %v", br.err)
	}
}

func TestBitReaderUnreadWord(t *testing.T) {
	br := newBitReader([]byte{0x00, 0xa0, 0xcd, 0xab, 0x01, 0x00})
	br.read(3)
	br.ensure(16)
	if br.bitsLeft() <= 16 {
		t.Fatalf("bitsLeft = %d, want a second buffered word", br.bitsLeft())
	}
	br.unreadWord()
	if br.pos != 2 {
		t.Errorf("pos = %d, want 2", br.pos)
	}
	br.reset()
	if got := br.read(16); got != 0xabcd {
		t.Errorf("read after unread = %#x, want 0xabcd", got)
	}
}
