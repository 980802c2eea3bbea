package lzx

import (
	"errors"
	"testing"
)

func buildTestTree(t *testing.T, tableBits uint, lens []byte) *huffTree {
	t.Helper()
	h := newHuffTree(uint(len(lens)), tableBits)
	copy(h.lens, lens)
	if err := h.build(); err != nil {
		t.Fatalf("build(%v): %v", lens, err)
	}
	return h
}

func TestDecodeSymbolDirect(t *testing.T) {
	lens := []byte{2, 2, 3, 3, 3, 3}
	h := buildTestTree(t, 6, lens)
	codes := canonicalCodes(lens)

	order := []int{5, 0, 1, 4, 2, 3, 0}
	var w bitWriter
	for _, sym := range order {
		w.write(codes[sym], uint(lens[sym]))
	}
	br := newBitReader(w.bytes())
	for i, want := range order {
		if got := br.decodeSymbol(h); int(got) != want {
			t.Errorf("symbol %d = %d, want %d", i, got, want)
		}
	}
	if br.err != nil {
		t.Fatalf("unexpected error: %v", br.err)
	}
}

func TestDecodeSymbolLongCodes(t *testing.T) {
	// Codes longer than the 6-bit table spill into tree nodes.
	lens := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 9}
	h := buildTestTree(t, 6, lens)
	codes := canonicalCodes(lens)

	order := []int{9, 8, 7, 6, 0, 1, 2, 3, 4, 5, 8, 9}
	var w bitWriter
	total := uint(0)
	for _, sym := range order {
		w.write(codes[sym], uint(lens[sym]))
		total += uint(lens[sym])
	}
	br := newBitReader(w.bytes())
	for i, want := range order {
		if got := br.decodeSymbol(h); int(got) != want {
			t.Errorf("symbol %d = %d, want %d", i, got, want)
		}
	}
	if br.err != nil {
		t.Fatalf("unexpected error: %v", br.err)
	}
	consumed := uint(br.pos)*8 + br.pad - br.bitsLeft()
	if consumed != total {
		t.Errorf("consumed %d bits, want %d", consumed, total)
	}
}

func TestMakeDecodeTable(t *testing.T) {
	tests := []struct {
		name    string
		lens    []byte
		wantErr bool
	}{
		{"complete", []byte{1, 2, 2}, false},
		{"empty", []byte{0, 0, 0, 0}, false},
		{"oversubscribed", []byte{1, 1, 1}, true},
		{"incomplete", []byte{1, 2, 0}, true},
		{"oversubscribed long", append([]byte{1}, repeatLen(8, 129)...), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHuffTree(uint(len(tt.lens)), 6)
			copy(h.lens, tt.lens)
			err := h.build()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedHuffmanTable) {
					t.Errorf("err = %v, want ErrMalformedHuffmanTable", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func repeatLen(l byte, n int) []byte {
	lens := make([]byte, n)
	for i := range lens {
		lens[i] = l
	}
	return lens
}

func TestDecodeSymbolUnderflow(t *testing.T) {
	// A table whose tree nodes only ever point at other nodes never
	// resolves to a symbol.
	h := &huffTree{
		nsyms:     2,
		tableBits: 2,
		lens:      make([]byte, 2+lenTableSafety),
		table:     []uint16{2, 2, 2, 2, 2, 2, 2, 2},
	}
	br := newBitReader([]byte{0, 0, 0, 0})
	br.decodeSymbol(h)
	if !errors.Is(br.err, ErrHuffmanDecodeUnderflow) {
		t.Fatalf("err = %v, want ErrHuffmanDecodeUnderflow", br.err)
	}
}
