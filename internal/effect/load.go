package effect

import (
	"fmt"

	"fxinspect/internal/fxfmt"
	"fxinspect/internal/xnb"
)

const (
	// WrapperMagic prefixes effects embedded in a larger container; the
	// following word is the wrapper size including both words.
	WrapperMagic = 0xBCF00BCF
	// Magic identifies an fx_2_0 effect binary.
	Magic = 0xFEFF0901
)

// Result is a decoded archive together with what was learned about its
// container.
type Result struct {
	Effect *Effect      `json:"effect"`
	XNB    *xnb.Content `json:"xnb,omitempty"`
	Diags  []fxfmt.Diag `json:"diags,omitempty"`
}

// Read decodes a raw effect binary.
func Read(data []byte) (*Effect, error) {
	var diags fxfmt.Diags
	return read(data, &diags)
}

// ReadXnbOrFxc decodes either an .xnb container or a raw effect binary and
// reports whether the input was a container.
func ReadXnbOrFxc(data []byte, opts fxfmt.Options) (*Effect, bool, error) {
	res, err := Decode(data, opts)
	if err != nil {
		return nil, false, err
	}
	return res.Effect, res.XNB != nil, nil
}

// Decode is ReadXnbOrFxc with the container details and diagnostics.
func Decode(data []byte, opts fxfmt.Options) (*Result, error) {
	var diags fxfmt.Diags
	res := &Result{}
	body := data
	if xnb.IsXNB(data) {
		c, err := xnb.Unwrap(data, opts)
		if err != nil {
			return nil, err
		}
		for _, dg := range c.Diags {
			diags.Add(dg.Offset, dg.Kind, dg.Msg)
		}
		res.XNB = c
		body = c.Effect
	}
	fx, err := read(body, &diags)
	if err != nil {
		return nil, err
	}
	res.Effect = fx
	res.Diags = diags.Items()
	return res, nil
}

func read(data []byte, diags *fxfmt.Diags) (*Effect, error) {
	s := fxfmt.NewStream(data)
	magic, err := s.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotEffectData, len(data))
	}
	if magic == WrapperMagic {
		size, err := s.ReadUint32()
		if err != nil || size < 8 {
			return nil, fmt.Errorf("%w: bad wrapper size", ErrNotEffectData)
		}
		if err := s.Skip(int(size - 8)); err != nil {
			return nil, fmt.Errorf("%w: wrapper of %d bytes", ErrNotEffectData, size)
		}
		diags.Addf(0, fxfmt.DiagWrapped, "skipped %d byte wrapper", size)
		if magic, err = s.ReadUint32(); err != nil {
			return nil, fmt.Errorf("%w: nothing after wrapper", ErrNotEffectData)
		}
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: magic 0x%08x", ErrNotEffectData, magic)
	}

	d := &decoder{s: s, fx: &Effect{}, diags: diags}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d.fx, nil
}
