package fxfmt

import (
	"errors"
	"testing"
)

func TestRead7BitInt(t *testing.T) {
	tests := []struct {
		in   []byte
		want int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128}, // 0 | (1 << 7)
		{[]byte{0xff, 0x01}, 255}, // 127 | (1 << 7)
		{[]byte{0x96, 0x01}, 150}, // 22 | (1 << 7)
		{[]byte{0x80, 0x80, 0x01}, 16384},
	}
	for _, tt := range tests {
		s := NewStream(tt.in)
		got, err := s.Read7BitInt()
		if err != nil {
			t.Errorf("Read7BitInt(%v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Read7BitInt(%v) = %d, want %d", tt.in, got, tt.want)
		}
		if s.Remaining() != 0 {
			t.Errorf("Read7BitInt(%v) left %d bytes", tt.in, s.Remaining())
		}
	}
}

func TestRead7BitInt_Errors(t *testing.T) {
	s := NewStream([]byte{0x80})
	if _, err := s.Read7BitInt(); err != ErrStreamEOF {
		t.Errorf("expected EOF for unterminated, got %v", err)
	}

	s = NewStream([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	if _, err := s.Read7BitInt(); err != ErrStreamOverrun {
		t.Errorf("expected overrun, got %v", err)
	}
}

func TestReadPrefixedString(t *testing.T) {
	s := NewStream([]byte("\x05hello\x00"))
	got, err := s.ReadPrefixedString()
	if err != nil {
		t.Fatalf("ReadPrefixedString: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
	if s.Position() != 6 {
		t.Errorf("position = %d, want 6", s.Position())
	}

	s = NewStream([]byte("\x09abc"))
	if _, err := s.ReadPrefixedString(); err != ErrStreamEOF {
		t.Errorf("expected EOF for short string, got %v", err)
	}
}

func TestReadScalars(t *testing.T) {
	s := NewStream([]byte{
		0x01, 0x09, 0xff, 0xfe, // uint32 0xfeff0901
		0x00, 0x00, 0xc0, 0x3f, // float32 1.5
		0xff, 0xff, 0xff, 0xff, // int32 -1
		// any nonzero byte is true
		0x02,
	})
	u, err := s.ReadUint32()
	if err != nil || u != 0xfeff0901 {
		t.Fatalf("ReadUint32 = 0x%x, %v", u, err)
	}
	f, err := s.ReadFloat32()
	if err != nil || f != 1.5 {
		t.Fatalf("ReadFloat32 = %v, %v", f, err)
	}
	i, err := s.ReadInt32()
	if err != nil || i != -1 {
		t.Fatalf("ReadInt32 = %d, %v", i, err)
	}
	b, err := s.ReadBool()
	if err != nil || !b {
		t.Fatalf("ReadBool = %v, %v", b, err)
	}
	if _, err := s.ReadUint16(); err != ErrStreamEOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestSeek(t *testing.T) {
	s := NewStream(make([]byte, 8))
	if err := s.Seek(8); err != nil {
		t.Errorf("Seek to end: %v", err)
	}
	if err := s.Seek(9); !errors.Is(err, ErrSeekRange) {
		t.Errorf("Seek past end = %v, want ErrSeekRange", err)
	}
	if s.Position() != 8 {
		t.Errorf("failed seek moved position to %d", s.Position())
	}
	if err := s.Seek(-1); !errors.Is(err, ErrSeekRange) {
		t.Errorf("Seek negative = %v, want ErrSeekRange", err)
	}
}

func TestStreamPosition(t *testing.T) {
	s := NewStreamAt([]byte{0, 0, 0, 0, 7}, 3)
	if s.Position() != 3 {
		t.Errorf("position = %d, want 3", s.Position())
	}
	if s.Remaining() != 2 {
		t.Errorf("remaining = %d, want 2", s.Remaining())
	}
	if got := s.Rest(); len(got) != 2 || got[1] != 7 {
		t.Errorf("Rest = %v", got)
	}
	s.SetPosition(100)
	if s.Position() != 5 {
		t.Errorf("clamped position = %d, want 5", s.Position())
	}
}

func TestOptionsMaxBytes(t *testing.T) {
	if got := (Options{}).EffectiveMaxBytes(); got != DefaultMaxBytes {
		t.Errorf("default = %d, want %d", got, DefaultMaxBytes)
	}
	if got := (Options{MaxBytes: 10}).EffectiveMaxBytes(); got != 10 {
		t.Errorf("override = %d, want 10", got)
	}
}
