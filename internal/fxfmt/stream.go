// Package fxfmt provides the seekable little-endian byte cursor shared by the
// XNB container reader and the effect decoder.
package fxfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrStreamEOF     = errors.New("stream: unexpected end of data")
	ErrStreamOverrun = errors.New("stream: value too large")
	ErrSeekRange     = errors.New("stream: seek out of range")

	// ErrHeaderMismatch is wrapped by every bad-magic/bad-platform error so
	// callers can test for the whole class with errors.Is.
	ErrHeaderMismatch = errors.New("header mismatch")
)

// Stream reads little-endian data from an in-memory buffer.
// It is not safe for concurrent use.
type Stream struct {
	data []byte
	pos  int
	end  int
}

// NewStream creates a stream over the given data.
func NewStream(data []byte) *Stream {
	return &Stream{data: data, pos: 0, end: len(data)}
}

// NewStreamAt creates a stream starting at offset within data.
func NewStreamAt(data []byte, offset int) *Stream {
	if offset > len(data) {
		offset = len(data)
	}
	return &Stream{data: data, pos: offset, end: len(data)}
}

// Position returns the current read position.
func (s *Stream) Position() int { return s.pos }

// Len returns the total length of the underlying data.
func (s *Stream) Len() int { return s.end }

// SetPosition sets the read position, clamping to the end of data.
func (s *Stream) SetPosition(pos int) {
	if pos > s.end {
		pos = s.end
	}
	if pos < 0 {
		pos = 0
	}
	s.pos = pos
}

// Seek moves to an absolute position. Seeking exactly to the end is allowed.
func (s *Stream) Seek(pos int) error {
	if pos < 0 || pos > s.end {
		return fmt.Errorf("%w: %d (len %d)", ErrSeekRange, pos, s.end)
	}
	s.pos = pos
	return nil
}

// Remaining returns bytes left to read.
func (s *Stream) Remaining() int { return s.end - s.pos }

// Rest returns the unread bytes without copying.
func (s *Stream) Rest() []byte { return s.data[s.pos:s.end] }

// ReadByte reads a single byte.
func (s *Stream) ReadByte() (byte, error) {
	if s.pos >= s.end {
		return 0, ErrStreamEOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// ReadBytes reads n bytes into a new slice.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n < 0 || s.pos+n > s.end {
		return nil, ErrStreamEOF
	}
	out := make([]byte, n)
	copy(out, s.data[s.pos:s.pos+n])
	s.pos += n
	return out, nil
}

// ReadUint16 reads a little-endian uint16.
func (s *Stream) ReadUint16() (uint16, error) {
	if s.pos+2 > s.end {
		return 0, ErrStreamEOF
	}
	v := binary.LittleEndian.Uint16(s.data[s.pos:])
	s.pos += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (s *Stream) ReadUint32() (uint32, error) {
	if s.pos+4 > s.end {
		return 0, ErrStreamEOF
	}
	v := binary.LittleEndian.Uint32(s.data[s.pos:])
	s.pos += 4
	return v, nil
}

// ReadInt32 reads a little-endian int32.
func (s *Stream) ReadInt32() (int32, error) {
	v, err := s.ReadUint32()
	return int32(v), err
}

// ReadFloat32 reads a little-endian IEEE-754 single.
func (s *Stream) ReadFloat32() (float32, error) {
	v, err := s.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadBool reads a one-byte boolean; any nonzero byte is true.
func (s *Stream) ReadBool() (bool, error) {
	b, err := s.ReadByte()
	return b != 0, err
}

// Read7BitInt reads a .NET 7-bit encoded int32: little-endian groups of
// seven bits, high bit set on every byte except the last.
func (s *Stream) Read7BitInt() (int32, error) {
	var r uint32
	var shift uint
	for {
		b, err := s.ReadByte()
		if err != nil {
			return 0, err
		}
		r |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return int32(r), nil
		}
		shift += 7
		if shift >= 35 {
			return 0, ErrStreamOverrun
		}
	}
}

// ReadPrefixedString reads a string prefixed by its 7-bit encoded byte length.
func (s *Stream) ReadPrefixedString() (string, error) {
	n, err := s.Read7BitInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("stream: negative string length %d at offset %d", n, s.pos)
	}
	b, err := s.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Skip advances the position by n bytes.
func (s *Stream) Skip(n int) error {
	if n < 0 || s.pos+n > s.end {
		return ErrStreamEOF
	}
	s.pos += n
	return nil
}
