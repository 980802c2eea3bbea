package effect

import (
	"encoding/binary"
	"math"
)

// fxBuilder assembles an effect binary: a heap of pointed-to records right
// after the base position, followed by the count block and the inline
// parameter/technique/object sections.
type fxBuilder struct {
	heap []byte
	body []byte
}

func newFxBuilder() *fxBuilder {
	// Offset 0 is the null pointer; keep it unused.
	return &fxBuilder{heap: make([]byte, 4)}
}

// words appends to the heap and returns the pointer to the first word.
func (b *fxBuilder) words(v ...uint32) uint32 {
	ptr := uint32(len(b.heap))
	for _, w := range v {
		b.heap = binary.LittleEndian.AppendUint32(b.heap, w)
	}
	return ptr
}

// raw appends bytes to the heap, padded to a word.
func (b *fxBuilder) raw(p []byte) uint32 {
	ptr := uint32(len(b.heap))
	b.heap = append(b.heap, p...)
	for len(b.heap)%4 != 0 {
		b.heap = append(b.heap, 0)
	}
	return ptr
}

// str appends a length-prefixed, NUL-terminated string.
func (b *fxBuilder) str(s string) uint32 {
	ptr := b.words(uint32(len(s) + 1))
	b.raw(append([]byte(s), 0))
	return ptr
}

// info appends a type info record. tail is the element count followed by
// columns and rows, or a struct member count.
func (b *fxBuilder) info(typ ObjectType, class ObjectClass, name uint32, tail ...uint32) uint32 {
	return b.words(append([]uint32{uint32(typ), uint32(class), name, 0}, tail...)...)
}

// put appends words to the inline body.
func (b *fxBuilder) put(v ...uint32) {
	for _, w := range v {
		b.body = binary.LittleEndian.AppendUint32(b.body, w)
	}
}

// blob appends a payload and its padding to the inline body.
func (b *fxBuilder) blob(p []byte) {
	b.body = append(b.body, p...)
	for len(b.body)%4 != 0 {
		b.body = append(b.body, 0)
	}
}

func (b *fxBuilder) bytes() []byte {
	out := binary.LittleEndian.AppendUint32(nil, Magic)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b.heap)))
	out = append(out, b.heap...)
	return append(out, b.body...)
}

func f32(v float32) uint32 { return math.Float32bits(v) }

// floatParamEffect is one scalar float parameter named Gain.
func floatParamEffect() []byte {
	b := newFxBuilder()
	typ := b.info(TypeFloat, ClassScalar, b.str("Gain"), 0, 1, 1)
	val := b.words(f32(0.5))
	b.put(1, 0, 0, 0)     // params, techniques, reserved, objects
	b.put(typ, val, 0, 0) // parameter
	b.put(0, 0)           // small, large object counts
	return b.bytes()
}
