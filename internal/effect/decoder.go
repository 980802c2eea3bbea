// Package effect decodes compiled Direct3D effect binaries (fx_2_0, as
// produced by fxc and embedded in XNA .xnb content) into an Effect graph.
//
// Every structural pointer in the binary is relative to a base position
// fixed right after the header's offset field. Pointers are followed with a
// save/seek/restore discipline so traversal can recurse freely.
package effect

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"fxinspect/internal/fxfmt"
)

var (
	ErrNotEffectData         = fmt.Errorf("effect: not effect data: %w", fxfmt.ErrHeaderMismatch)
	ErrUnsupportedScalarType = errors.New("effect: unsupported scalar type")
	ErrObjectIndexOutOfRange = errors.New("effect: object index out of range")
	ErrObjectUntyped         = errors.New("effect: object filled before it was referenced")
	ErrObjectRefilled        = errors.New("effect: object filled twice")
	ErrBadBackReference      = errors.New("effect: object back-reference does not resolve")
	ErrNestingTooDeep        = errors.New("effect: values nested too deeply")
	ErrTooManyValues         = errors.New("effect: more values than the data can hold")
)

// maxDepth bounds value and struct recursion; pointers can form cycles.
const maxDepth = 64

// Minimum encoded sizes, used to reject counts the remaining data cannot
// hold before allocating for them.
const (
	parameterSize    = 16 // typeptr, valueptr, flags, annotation count
	annotationSize   = 8  // typeptr, valueptr
	techniqueSize    = 12 // name, annotation count, pass count
	passSize         = 12 // name, annotation count, state count
	stateSize        = 16 // type, reserved, typeptr, valueptr
	samplerStateSize = 16
	typeInfoSize     = 20 // type, class, name, semantic, elements
)

type decoder struct {
	s      *fxfmt.Stream
	base   int
	depth  int
	values int // readValue budget left
	fx     *Effect
	diags  *fxfmt.Diags
}

// at runs fn with the stream positioned at base+ptr and restores the
// previous position on every exit path.
func (d *decoder) at(ptr uint32, fn func() error) error {
	saved := d.s.Position()
	defer d.s.SetPosition(saved)
	if err := d.s.Seek(d.base + int(ptr)); err != nil {
		return fmt.Errorf("pointer 0x%x: %w", ptr, err)
	}
	return fn()
}

func (d *decoder) enter() error {
	if d.depth >= maxDepth {
		return fmt.Errorf("%w: depth %d at 0x%x", ErrNestingTooDeep, d.depth, d.s.Position())
	}
	d.depth++
	return nil
}

func (d *decoder) leave() { d.depth-- }

// checkCount rejects a count of fixed-size records that cannot fit in the
// rest of the stream.
func (d *decoder) checkCount(n uint64, size int, what string) error {
	if mulSat(n, uint64(size)) > uint64(d.s.Remaining()) {
		return fmt.Errorf("%d %s at 0x%x: %w", n, what, d.s.Position(), fxfmt.ErrStreamEOF)
	}
	return nil
}

// mulSat multiplies, saturating at the largest uint64.
func mulSat(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

func (d *decoder) u32() (uint32, error) { return d.s.ReadUint32() }

// readUint32s reads consecutive little-endian words.
func (d *decoder) readUint32s(out ...*uint32) error {
	for _, p := range out {
		v, err := d.s.ReadUint32()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// load decodes everything after the core magic.
func (d *decoder) load() error {
	offset, err := d.u32()
	if err != nil {
		return fmt.Errorf("effect: header offset: %w", err)
	}
	d.base = d.s.Position()
	// Every value is reached from a distinct record of at least eight
	// bytes, so shared pointers cannot legitimately fan out past this.
	d.values = d.s.Len() / 4
	if err := d.s.Skip(int(offset)); err != nil {
		return fmt.Errorf("effect: header offset 0x%x: %w", offset, err)
	}

	var numParams, numTechniques, reserved, numObjects uint32
	if err := d.readUint32s(&numParams, &numTechniques, &reserved, &numObjects); err != nil {
		return fmt.Errorf("effect: counts: %w", err)
	}
	// Object slots are not stored inline; each one that is used costs at
	// least a four-byte reference somewhere.
	if uint64(numObjects) > uint64(d.s.Len())/4+1 {
		return fmt.Errorf("effect: %d objects in %d bytes: %w", numObjects, d.s.Len(), fxfmt.ErrStreamOverrun)
	}
	d.fx.Objects = make([]*EffectObject, numObjects)

	if err := d.readParameters(numParams); err != nil {
		return err
	}
	if err := d.readTechniques(numTechniques); err != nil {
		return err
	}
	return d.readObjects()
}

func (d *decoder) readParameters(n uint32) error {
	if err := d.checkCount(uint64(n), parameterSize, "parameters"); err != nil {
		return fmt.Errorf("effect: %w", err)
	}
	d.fx.Parameters = make([]*Parameter, 0, n)
	for i := uint32(0); i < n; i++ {
		var typePtr, valuePtr, flags, numAnnotations uint32
		if err := d.readUint32s(&typePtr, &valuePtr, &flags, &numAnnotations); err != nil {
			return fmt.Errorf("effect: parameter %d: %w", i, err)
		}
		p := &Parameter{Flags: flags}
		d.fx.Parameters = append(d.fx.Parameters, p)

		var err error
		if p.Annotations, err = d.readAnnotations(numAnnotations); err != nil {
			return fmt.Errorf("effect: parameter %d: %w", i, err)
		}
		if p.Value, err = d.readValue(typePtr, valuePtr); err != nil {
			return fmt.Errorf("effect: parameter %d: %w", i, err)
		}
	}
	return nil
}

func (d *decoder) readTechniques(n uint32) error {
	if err := d.checkCount(uint64(n), techniqueSize, "techniques"); err != nil {
		return fmt.Errorf("effect: %w", err)
	}
	d.fx.Techniques = make([]*Technique, 0, n)
	for t := uint32(0); t < n; t++ {
		tech := &Technique{}
		d.fx.Techniques = append(d.fx.Techniques, tech)

		var err error
		if tech.Name, err = d.readString(); err != nil {
			return fmt.Errorf("effect: technique %d name: %w", t, err)
		}
		var numAnnotations, numPasses uint32
		if err := d.readUint32s(&numAnnotations, &numPasses); err != nil {
			return fmt.Errorf("effect: technique %d: %w", t, err)
		}
		if tech.Annotations, err = d.readAnnotations(numAnnotations); err != nil {
			return fmt.Errorf("effect: technique %d: %w", t, err)
		}
		if tech.Passes, err = d.readPasses(numPasses); err != nil {
			return fmt.Errorf("effect: technique %d: %w", t, err)
		}
	}
	return nil
}

func (d *decoder) readPasses(n uint32) ([]*Pass, error) {
	if err := d.checkCount(uint64(n), passSize, "passes"); err != nil {
		return nil, err
	}
	passes := make([]*Pass, 0, n)
	for p := uint32(0); p < n; p++ {
		pass := &Pass{}
		passes = append(passes, pass)

		var err error
		if pass.Name, err = d.readString(); err != nil {
			return nil, fmt.Errorf("pass %d name: %w", p, err)
		}
		var numAnnotations, numStates uint32
		if err := d.readUint32s(&numAnnotations, &numStates); err != nil {
			return nil, fmt.Errorf("pass %d: %w", p, err)
		}
		if pass.Annotations, err = d.readAnnotations(numAnnotations); err != nil {
			return nil, fmt.Errorf("pass %d: %w", p, err)
		}
		if err := d.checkCount(uint64(numStates), stateSize, "states"); err != nil {
			return nil, fmt.Errorf("pass %d: %w", p, err)
		}
		pass.States = make([]*State, 0, numStates)
		for s := uint32(0); s < numStates; s++ {
			var typ, reserved, typePtr, valuePtr uint32
			if err := d.readUint32s(&typ, &reserved, &typePtr, &valuePtr); err != nil {
				return nil, fmt.Errorf("pass %d state %d: %w", p, s, err)
			}
			state := &State{Type: StateType(typ)}
			if state.Value, err = d.readValue(typePtr, valuePtr); err != nil {
				return nil, fmt.Errorf("pass %d state %d: %w", p, s, err)
			}
			pass.States = append(pass.States, state)
		}
	}
	return passes, nil
}

func (d *decoder) readAnnotations(n uint32) ([]*Value, error) {
	if n == 0 {
		return nil, nil
	}
	if err := d.checkCount(uint64(n), annotationSize, "annotations"); err != nil {
		return nil, err
	}
	out := make([]*Value, 0, n)
	for i := uint32(0); i < n; i++ {
		var typePtr, valuePtr uint32
		if err := d.readUint32s(&typePtr, &valuePtr); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		v, err := d.readValue(typePtr, valuePtr)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// readValue decodes the type info at typePtr and then the data at valuePtr.
func (d *decoder) readValue(typePtr, valuePtr uint32) (*Value, error) {
	if d.values <= 0 {
		return nil, fmt.Errorf("%w: budget of %d spent at 0x%x", ErrTooManyValues, d.s.Len()/4, d.s.Position())
	}
	d.values--
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	v := &Value{}
	if err := d.at(typePtr, func() error { return d.readValueInfo(v) }); err != nil {
		return nil, fmt.Errorf("type info 0x%x: %w", typePtr, err)
	}
	if err := d.at(valuePtr, func() error { return d.readValueData(v) }); err != nil {
		return nil, fmt.Errorf("value 0x%x: %w", valuePtr, err)
	}
	return v, nil
}

func (d *decoder) readValueInfo(v *Value) error {
	var typ, class uint32
	if err := d.readUint32s(&typ, &class); err != nil {
		return err
	}
	v.Type.Type = ObjectType(typ)
	v.Type.Class = ObjectClass(class)

	var err error
	if v.Name, err = d.readString(); err != nil {
		return err
	}
	if v.Semantic, err = d.readString(); err != nil {
		return err
	}
	if v.Type.Elements, err = d.u32(); err != nil {
		return err
	}

	switch {
	case v.Type.Class.IsNumeric():
		return d.readUint32s(&v.Type.Columns, &v.Type.Rows)

	case v.Type.Class == ClassStruct:
		members, err := d.u32()
		if err != nil {
			return err
		}
		if err := d.checkCount(uint64(members), typeInfoSize, "struct members"); err != nil {
			return err
		}
		if err := d.enter(); err != nil {
			return err
		}
		defer d.leave()
		// A member that is itself a struct consumes two of the declared
		// member slots.
		for i := uint32(0); i < members; i++ {
			m := &Value{}
			if err := d.readValueInfo(m); err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			if m.Type.Class == ClassStruct {
				members--
			}
			v.Type.StructMembers = append(v.Type.StructMembers, m)
		}
	}
	return nil
}

func (d *decoder) readValueData(v *Value) error {
	switch {
	case v.Type.Class.IsNumeric():
		return d.readNumeric(v)

	case v.Type.Class == ClassObject:
		if v.Type.Type.IsSampler() {
			return d.readSamplerStates(v)
		}
		return d.readObjectRefs(v)

	case v.Type.Class == ClassStruct:
		for i, m := range v.Type.StructMembers {
			if err := d.readValueData(m); err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
		}
		v.Data = Members(v.Type.StructMembers)
	}
	return nil
}

func (d *decoder) readNumeric(v *Value) error {
	n := mulSat(uint64(v.Type.Columns)*uint64(v.Type.Rows), uint64(max(v.Type.Elements, 1)))

	switch v.Type.Type {
	case TypeInt:
		if err := d.checkCount(n, 4, "ints"); err != nil {
			return err
		}
		out := make(Ints, n)
		for i := range out {
			x, err := d.s.ReadInt32()
			if err != nil {
				return err
			}
			out[i] = x
		}
		v.Data = out

	case TypeFloat:
		if err := d.checkCount(n, 4, "floats"); err != nil {
			return err
		}
		out := make(Floats, n)
		for i := range out {
			x, err := d.s.ReadFloat32()
			if err != nil {
				return err
			}
			out[i] = x
		}
		v.Data = out

	case TypeBool:
		if err := d.checkCount(n, 1, "bools"); err != nil {
			return err
		}
		out := make(Bools, n)
		for i := range out {
			x, err := d.s.ReadBool()
			if err != nil {
				return err
			}
			out[i] = x
		}
		v.Data = out

	default:
		return fmt.Errorf("%w: %s %s", ErrUnsupportedScalarType, v.Type.Class, v.Type.Type)
	}
	return nil
}

func (d *decoder) readSamplerStates(v *Value) error {
	n, err := d.u32()
	if err != nil {
		return err
	}
	if err := d.checkCount(uint64(n), samplerStateSize, "sampler states"); err != nil {
		return err
	}
	states := make(SamplerStates, 0, n)
	for i := uint32(0); i < n; i++ {
		var typ, reserved, typePtr, valuePtr uint32
		if err := d.readUint32s(&typ, &reserved, &typePtr, &valuePtr); err != nil {
			return fmt.Errorf("sampler state %d: %w", i, err)
		}
		st := &SamplerState{Type: SamplerStateType(typ &^ samplerStateMask)}
		if st.Value, err = d.readValue(typePtr, valuePtr); err != nil {
			return fmt.Errorf("sampler state %d: %w", i, err)
		}
		// The texture a sampler binds takes the sampler's type.
		if st.Type == SamplerTexture {
			if id, ok := st.Value.FirstRef(); ok {
				if err := d.typeObject(id, v.Type.Type); err != nil {
					return fmt.Errorf("sampler state %d: %w", i, err)
				}
			}
		}
		states = append(states, st)
	}
	v.Data = states
	return nil
}

func (d *decoder) readObjectRefs(v *Value) error {
	n := uint64(max(v.Type.Elements, 1))
	if err := d.checkCount(n, 4, "object references"); err != nil {
		return err
	}
	refs := make(ObjectRefs, n)
	for i := range refs {
		id, err := d.u32()
		if err != nil {
			return err
		}
		if err := d.typeObject(id, v.Type.Type); err != nil {
			return err
		}
		refs[i] = id
	}
	v.Data = refs
	return nil
}

// typeObject sets the type of an object slot, creating it on first
// reference. A later reference may retype a slot that has no payload yet,
// as a sampler does to the texture it binds; retyping outside the
// texture and sampler family is reported.
func (d *decoder) typeObject(id uint32, typ ObjectType) error {
	if int64(id) >= int64(len(d.fx.Objects)) {
		return fmt.Errorf("%w: %d of %d", ErrObjectIndexOutOfRange, id, len(d.fx.Objects))
	}
	obj := d.fx.Objects[id]
	if obj == nil {
		d.fx.Objects[id] = &EffectObject{Type: typ}
		return nil
	}
	if obj.Type != typ && !(bindable(obj.Type) && bindable(typ)) {
		d.diags.Addf(uint64(d.s.Position()), fxfmt.DiagMismatch,
			"object %d retyped from %s to %s", id, obj.Type, typ)
	}
	obj.Type = typ
	return nil
}

func bindable(t ObjectType) bool { return t.IsTexture() || t.IsSampler() }

// readString follows a string pointer. A zero pointer, a pointer past the
// data, or a zero stored length yield nil; the stored length counts a
// terminator that is dropped.
func (d *decoder) readString() (*string, error) {
	ptr, err := d.u32()
	if err != nil {
		return nil, err
	}
	if ptr == 0 || int64(d.base)+int64(ptr) >= int64(d.s.Len()) {
		return nil, nil
	}
	var out *string
	err = d.at(ptr, func() error {
		n, err := d.u32()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		b, err := d.s.ReadBytes(int(n - 1))
		if err != nil {
			return fmt.Errorf("string of %d bytes: %w", n, err)
		}
		s := string(b)
		out = &s
		return nil
	})
	return out, err
}
