package fxfmt

import "fmt"

// DiagKind classifies a diagnostic message.
type DiagKind string

const (
	DiagMismatch  DiagKind = "mismatch"
	DiagUnapplied DiagKind = "unapplied"
	DiagWrapped   DiagKind = "wrapped"
)

// Diag records a non-fatal observation made while decoding.
type Diag struct {
	Offset uint64   `json:"offset"`
	Kind   DiagKind `json:"kind"`
	Msg    string   `json:"msg"`
}

func (d Diag) String() string {
	return fmt.Sprintf("[%s] 0x%x: %s", d.Kind, d.Offset, d.Msg)
}

// Diags accumulates diagnostics.
type Diags struct {
	items []Diag
}

func (d *Diags) Add(offset uint64, kind DiagKind, msg string) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: msg})
}

func (d *Diags) Addf(offset uint64, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (d *Diags) Items() []Diag { return d.items }
func (d *Diags) Len() int      { return len(d.items) }

// Options controls decoding limits across packages.
type Options struct {
	MaxBytes int // decompressed size cap; 0 = DefaultMaxBytes
}

// DefaultMaxBytes caps the decompressed size an XNB header may declare.
const DefaultMaxBytes = 256 * 1024 * 1024

func (o Options) EffectiveMaxBytes() int {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return DefaultMaxBytes
}
