package effect

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Effect is a decoded effect. Objects has the length declared in the
// header; a nil slot was never referenced.
type Effect struct {
	Parameters []*Parameter    `json:"parameters"`
	Techniques []*Technique    `json:"techniques"`
	Objects    []*EffectObject `json:"objects"`
}

// Annotated is implemented by everything that carries annotations.
type Annotated interface {
	AnnotationList() []*Value
}

type Parameter struct {
	Flags       uint32   `json:"flags"`
	Value       *Value   `json:"value"`
	Annotations []*Value `json:"annotations,omitempty"`
}

type Technique struct {
	Name        *string  `json:"name"`
	Passes      []*Pass  `json:"passes"`
	Annotations []*Value `json:"annotations,omitempty"`
}

type Pass struct {
	Name        *string  `json:"name"`
	States      []*State `json:"states"`
	Annotations []*Value `json:"annotations,omitempty"`
}

func (p *Parameter) AnnotationList() []*Value { return p.Annotations }
func (t *Technique) AnnotationList() []*Value { return t.Annotations }
func (p *Pass) AnnotationList() []*Value      { return p.Annotations }

type State struct {
	Type  StateType `json:"type"`
	Value *Value    `json:"value"`
}

// String renders the technique as an effect source block.
func (t *Technique) String() string {
	parts := make([]string, len(t.Passes))
	for i, p := range t.Passes {
		parts[i] = p.String()
	}
	return block("technique "+deref(t.Name), parts)
}

func (p *Pass) String() string {
	parts := make([]string, len(p.States))
	for i, st := range p.States {
		parts[i] = st.String()
	}
	return block("pass "+deref(p.Name), parts)
}

func (s *State) String() string { return s.Type.String() + ";" }

// block writes head followed by a braced body, one tab-indented entry per
// line. Nested blocks are indented as a whole.
func block(head string, entries []string) string {
	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\n{\n")
	for _, e := range entries {
		b.WriteString("\t")
		b.WriteString(strings.ReplaceAll(e, "\n", "\n\t"))
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Value is a typed value: a parameter, annotation, state or sampler state
// payload, or a struct member.
type Value struct {
	Name     *string
	Semantic *string
	Type     TypeInfo
	Data     Data
}

// TypeInfo describes a value's type. StructMembers is set for struct
// values; the members carry both their own type and their data.
type TypeInfo struct {
	Type          ObjectType  `json:"type"`
	Class         ObjectClass `json:"class"`
	Elements      uint32      `json:"elements,omitempty"`
	Columns       uint32      `json:"columns,omitempty"`
	Rows          uint32      `json:"rows,omitempty"`
	StructMembers []*Value    `json:"-"`
}

// String renders the value as a declaration, e.g. "float4x4 World : WORLD;".
func (v *Value) String() string {
	var b strings.Builder
	b.WriteString(v.Type.String())
	b.WriteString(" ")
	b.WriteString(v.NameOr(""))
	if v.Type.Elements > 0 {
		fmt.Fprintf(&b, "[%d]", v.Type.Elements)
	}
	if v.Semantic != nil {
		b.WriteString(" : ")
		b.WriteString(*v.Semantic)
	}
	b.WriteString(";")
	return b.String()
}

func (t TypeInfo) String() string {
	switch t.Class {
	case ClassVector:
		return fmt.Sprintf("%s%d", t.Type, t.Columns)
	case ClassMatrixRows, ClassMatrixColumns:
		return fmt.Sprintf("%s%dx%d", t.Type, t.Rows, t.Columns)
	case ClassStruct:
		return "struct"
	}
	return t.Type.String()
}

// FirstRef returns the first object index of an object-reference value.
func (v *Value) FirstRef() (uint32, bool) {
	if v == nil {
		return 0, false
	}
	refs, ok := v.Data.(ObjectRefs)
	if !ok || len(refs) == 0 {
		return 0, false
	}
	return refs[0], true
}

// NameOr returns the value's name, or def when it has none.
func (v *Value) NameOr(def string) string {
	if v == nil || v.Name == nil {
		return def
	}
	return *v.Name
}

func (v *Value) MarshalJSON() ([]byte, error) {
	out := struct {
		Name     *string  `json:"name,omitempty"`
		Semantic *string  `json:"semantic,omitempty"`
		Type     TypeInfo `json:"type"`
		Kind     string   `json:"kind,omitempty"`
		Data     Data     `json:"data,omitempty"`
	}{v.Name, v.Semantic, v.Type, "", v.Data}
	if v.Data != nil {
		out.Kind = v.Data.Kind()
	}
	return json.Marshal(out)
}

// Data is the decoded payload of a Value. The concrete type is determined
// by the value's TypeInfo.
type Data interface {
	Kind() string
}

type (
	Ints          []int32
	Floats        []float32
	Bools         []bool
	ObjectRefs    []uint32
	SamplerStates []*SamplerState
	Members       []*Value
)

func (Ints) Kind() string          { return "ints" }
func (Floats) Kind() string        { return "floats" }
func (Bools) Kind() string         { return "bools" }
func (ObjectRefs) Kind() string    { return "objects" }
func (SamplerStates) Kind() string { return "sampler_states" }
func (Members) Kind() string       { return "members" }

// MarshalJSON writes non-finite floats as strings, which JSON numbers
// cannot hold.
func (f Floats) MarshalJSON() ([]byte, error) {
	b := []byte{'['}
	for i, v := range f {
		if i > 0 {
			b = append(b, ',')
		}
		x := float64(v)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			b = strconv.AppendQuote(b, strconv.FormatFloat(x, 'g', -1, 32))
			continue
		}
		b = strconv.AppendFloat(b, x, 'g', -1, 32)
	}
	return append(b, ']'), nil
}

type SamplerState struct {
	Type  SamplerStateType `json:"type"`
	Value *Value           `json:"value"`
}

// ObjectData is the payload of an object table slot.
type ObjectData interface {
	objectData()
}

// ObjectString is a string, texture name or sampler mapping.
type ObjectString string

// ObjectBlob is raw bytes, typically shader bytecode.
type ObjectBlob []byte

func (ObjectString) objectData() {}
func (ObjectBlob) objectData()   {}

// EffectObject is a slot of the shared object table. Type is set when the
// slot is first referenced; Data is filled by one of the object passes.
type EffectObject struct {
	Type      ObjectType
	Data      ObjectData
	Origin    BlobOrigin
	LargeKind uint32
}

// Size returns the payload length in bytes.
func (o *EffectObject) Size() int {
	switch d := o.Data.(type) {
	case ObjectString:
		return len(d)
	case ObjectBlob:
		return len(d)
	}
	return 0
}

// Text returns the string payload, if any.
func (o *EffectObject) Text() (string, bool) {
	s, ok := o.Data.(ObjectString)
	return string(s), ok
}

// Blob returns the byte payload, if any.
func (o *EffectObject) Blob() ([]byte, bool) {
	b, ok := o.Data.(ObjectBlob)
	return b, ok
}

// MarshalJSON describes the slot; blob bytes are left to callers that write
// them separately.
func (o *EffectObject) MarshalJSON() ([]byte, error) {
	out := struct {
		Type      ObjectType `json:"type"`
		Origin    BlobOrigin `json:"origin"`
		LargeKind uint32     `json:"largeKind,omitempty"`
		Size      int        `json:"size"`
		String    *string    `json:"string,omitempty"`
	}{Type: o.Type, Origin: o.Origin, LargeKind: o.LargeKind, Size: o.Size()}
	if s, ok := o.Text(); ok {
		out.String = &s
	}
	return json.Marshal(out)
}
