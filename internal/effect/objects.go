package effect

import (
	"fmt"

	"fxinspect/internal/fxfmt"
)

// noTechnique in a large-object entry means the back-reference goes
// through a parameter's sampler states instead of a pass state.
const noTechnique = 0xFFFFFFFF

// readObjects runs the two deferred object passes that follow the
// techniques and fill the payloads of the already-typed object slots.
func (d *decoder) readObjects() error {
	var smallCount, largeCount uint32
	if err := d.readUint32s(&smallCount, &largeCount); err != nil {
		return fmt.Errorf("effect: object counts: %w", err)
	}

	// The small count includes object 0, which is never stored.
	for i := uint32(1); i < smallCount; i++ {
		var index, length uint32
		if err := d.readUint32s(&index, &length); err != nil {
			return fmt.Errorf("effect: small object %d: %w", i, err)
		}
		payload, err := d.readPadded(length)
		if err != nil {
			return fmt.Errorf("effect: small object %d: %w", i, err)
		}
		if err := d.fill(index, payload, OriginSmall, 0); err != nil {
			return fmt.Errorf("effect: small object %d: %w", i, err)
		}
	}

	for i := uint32(0); i < largeCount; i++ {
		var technique, index, reserved, state, kind, length uint32
		if err := d.readUint32s(&technique, &index, &reserved, &state, &kind, &length); err != nil {
			return fmt.Errorf("effect: large object %d: %w", i, err)
		}
		id, err := d.resolveBackReference(technique, index, state)
		if err != nil {
			return fmt.Errorf("effect: large object %d: %w", i, err)
		}
		payload, err := d.readPadded(length)
		if err != nil {
			return fmt.Errorf("effect: large object %d: %w", i, err)
		}
		if err := d.fill(id, payload, OriginLarge, kind); err != nil {
			return fmt.Errorf("effect: large object %d: %w", i, err)
		}
	}
	return nil
}

// readPadded reads length bytes and skips the padding to a 4-byte boundary.
func (d *decoder) readPadded(length uint32) ([]byte, error) {
	payload, err := d.s.ReadBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("payload of %d bytes: %w", length, err)
	}
	if pad := (4 - length%4) % 4; pad != 0 {
		if err := d.s.Skip(int(pad)); err != nil {
			return nil, fmt.Errorf("payload padding: %w", err)
		}
	}
	return payload, nil
}

// resolveBackReference finds the object index a large-object entry refers
// to: a parameter's sampler state for noTechnique, else a pass state.
func (d *decoder) resolveBackReference(technique, index, state uint32) (uint32, error) {
	var v *Value
	if technique == noTechnique {
		if int64(index) >= int64(len(d.fx.Parameters)) {
			return 0, fmt.Errorf("%w: parameter %d of %d", ErrBadBackReference, index, len(d.fx.Parameters))
		}
		p := d.fx.Parameters[index]
		states, ok := p.Value.Data.(SamplerStates)
		if !ok {
			return 0, fmt.Errorf("%w: parameter %d is %s, not a sampler", ErrBadBackReference, index, p.Value.Type.Type)
		}
		if int64(state) >= int64(len(states)) {
			return 0, fmt.Errorf("%w: parameter %d sampler state %d of %d", ErrBadBackReference, index, state, len(states))
		}
		v = states[state].Value
	} else {
		if int64(technique) >= int64(len(d.fx.Techniques)) {
			return 0, fmt.Errorf("%w: technique %d of %d", ErrBadBackReference, technique, len(d.fx.Techniques))
		}
		passes := d.fx.Techniques[technique].Passes
		if int64(index) >= int64(len(passes)) {
			return 0, fmt.Errorf("%w: technique %d pass %d of %d", ErrBadBackReference, technique, index, len(passes))
		}
		states := passes[index].States
		if int64(state) >= int64(len(states)) {
			return 0, fmt.Errorf("%w: technique %d pass %d state %d of %d", ErrBadBackReference, technique, index, state, len(states))
		}
		v = states[state].Value
	}

	id, ok := v.FirstRef()
	if !ok {
		return 0, fmt.Errorf("%w: target is not an object reference", ErrBadBackReference)
	}
	return id, nil
}

// fill stores a payload in a typed, still empty object slot. String,
// texture and sampler slots hold the payload as a string without its
// terminator; everything else keeps the raw bytes.
func (d *decoder) fill(id uint32, payload []byte, origin BlobOrigin, kind uint32) error {
	if int64(id) >= int64(len(d.fx.Objects)) {
		return fmt.Errorf("%w: %d of %d", ErrObjectIndexOutOfRange, id, len(d.fx.Objects))
	}
	obj := d.fx.Objects[id]
	if obj == nil {
		return fmt.Errorf("%w: object %d", ErrObjectUntyped, id)
	}
	if obj.Origin != OriginNone {
		return fmt.Errorf("%w: object %d already filled by the %s pass", ErrObjectRefilled, id, obj.Origin)
	}

	switch t := obj.Type; {
	case t == TypeString || t.IsTexture() || t.IsSampler():
		if n := len(payload); n > 0 {
			if payload[n-1] != 0 {
				d.diags.Addf(uint64(d.s.Position()), fxfmt.DiagMismatch,
					"object %d: %s payload not NUL-terminated", id, t)
			}
			payload = payload[:n-1]
		}
		obj.Data = ObjectString(payload)
	default:
		obj.Data = ObjectBlob(payload)
	}
	obj.Origin = origin
	obj.LargeKind = kind
	return nil
}
