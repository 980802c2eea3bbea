package lzx

// maxCodeLen is the longest Huffman code LZX allows.
const maxCodeLen = 16

// huffTree is one Huffman alphabet: the per-symbol code lengths that are
// delta-updated block to block, and the decode table built from them.
type huffTree struct {
	nsyms     uint
	tableBits uint
	lens      []byte
	table     []uint16
}

func newHuffTree(nsyms, tableBits uint) *huffTree {
	return &huffTree{
		nsyms:     nsyms,
		tableBits: tableBits,
		lens:      make([]byte, nsyms+lenTableSafety),
		table:     make([]uint16, (1<<tableBits)+(nsyms<<1)),
	}
}

// build rebuilds the decode table from the current code lengths.
func (h *huffTree) build() error {
	return makeDecodeTable(h.nsyms, h.tableBits, h.lens, h.table)
}

// makeDecodeTable fills table so that the top nbits of the bitstream index
// directly to a symbol for codes up to nbits long. Longer codes continue as
// a binary tree whose two-entry nodes are allocated from 1<<(nbits-1)
// upward (node k occupies table[2k] and table[2k+1]).
//
// Codes are assigned canonically: by length, then by ascending symbol.
// An all-zero length set is accepted and yields an empty table.
func makeDecodeTable(nsyms, nbits uint, length []byte, table []uint16) error {
	var pos uint32
	tableMask := uint32(1) << nbits
	bitMask := tableMask >> 1
	nextSymbol := bitMask
	bitNum := uint(1)

	for ; bitNum <= nbits; bitNum++ {
		for sym := uint(0); sym < nsyms; sym++ {
			if uint(length[sym]) != bitNum {
				continue
			}
			leaf := pos
			if pos += bitMask; pos > tableMask {
				return ErrMalformedHuffmanTable
			}
			for fill := bitMask; fill > 0; fill-- {
				table[leaf] = uint16(sym)
				leaf++
			}
		}
		bitMask >>= 1
	}

	if pos != tableMask {
		for i := pos; i < tableMask; i++ {
			table[i] = 0
		}

		// Track positions with 16 extra fractional bits for the long codes.
		pos <<= 16
		tableMask <<= 16
		bitMask = 1 << 15

		for ; bitNum <= maxCodeLen; bitNum++ {
			for sym := uint(0); sym < nsyms; sym++ {
				if uint(length[sym]) != bitNum {
					continue
				}
				leaf := pos >> 16
				for fill := uint(0); fill < bitNum-nbits; fill++ {
					if table[leaf] == 0 {
						if int(nextSymbol<<1)+1 >= len(table) {
							return ErrMalformedHuffmanTable
						}
						table[nextSymbol<<1] = 0
						table[nextSymbol<<1+1] = 0
						table[leaf] = uint16(nextSymbol)
						nextSymbol++
					}
					leaf = uint32(table[leaf]) << 1
					if (pos>>(15-fill))&1 == 1 {
						leaf++
					}
				}
				table[leaf] = uint16(sym)

				if pos += bitMask; pos > tableMask {
					return ErrMalformedHuffmanTable
				}
			}
			bitMask >>= 1
		}
	}

	if pos == tableMask {
		return nil
	}

	// Either an incomplete code or no codes at all.
	for sym := uint(0); sym < nsyms; sym++ {
		if length[sym] != 0 {
			return ErrMalformedHuffmanTable
		}
	}
	return nil
}

// decodeSymbol reads one symbol coded with h.
func (b *bitReader) decodeSymbol(h *huffTree) uint {
	b.ensure(maxCodeLen)
	i := uint(h.table[b.peek(h.tableBits)])
	if i >= h.nsyms {
		j := uint32(1) << (32 - h.tableBits)
		for {
			j >>= 1
			if j == 0 {
				b.fail(ErrHuffmanDecodeUnderflow)
				return 0
			}
			i <<= 1
			if b.buf&j != 0 {
				i |= 1
			}
			if i >= uint(len(h.table)) {
				b.fail(ErrMalformedHuffmanTable)
				return 0
			}
			if i = uint(h.table[i]); i < h.nsyms {
				break
			}
		}
	}
	b.remove(uint(h.lens[i]))
	return i
}
