package effect

import "fmt"

// ObjectType is a D3DXPARAMETER_TYPE value.
type ObjectType uint32

const (
	TypeVoid ObjectType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeTexture
	TypeTexture1D
	TypeTexture2D
	TypeTexture3D
	TypeTextureCube
	TypeSampler
	TypeSampler1D
	TypeSampler2D
	TypeSampler3D
	TypeSamplerCube
	TypePixelShader
	TypeVertexShader
	TypePixelFragment
	TypeVertexFragment
	TypeUnsupported
)

var objectTypeNames = [...]string{
	TypeVoid:           "void",
	TypeBool:           "bool",
	TypeInt:            "int",
	TypeFloat:          "float",
	TypeString:         "string",
	TypeTexture:        "texture",
	TypeTexture1D:      "texture1d",
	TypeTexture2D:      "texture2d",
	TypeTexture3D:      "texture3d",
	TypeTextureCube:    "texturecube",
	TypeSampler:        "sampler",
	TypeSampler1D:      "sampler1d",
	TypeSampler2D:      "sampler2d",
	TypeSampler3D:      "sampler3d",
	TypeSamplerCube:    "samplercube",
	TypePixelShader:    "pixelshader",
	TypeVertexShader:   "vertexshader",
	TypePixelFragment:  "pixelfragment",
	TypeVertexFragment: "vertexfragment",
	TypeUnsupported:    "unsupported",
}

func (t ObjectType) String() string {
	if int(t) < len(objectTypeNames) {
		return objectTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

func (t ObjectType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// IsSampler reports whether t is one of the sampler types.
func (t ObjectType) IsSampler() bool { return t >= TypeSampler && t <= TypeSamplerCube }

// IsTexture reports whether t is one of the texture types.
func (t ObjectType) IsTexture() bool { return t >= TypeTexture && t <= TypeTextureCube }

// IsShader reports whether t holds shader bytecode.
func (t ObjectType) IsShader() bool { return t == TypePixelShader || t == TypeVertexShader }

// ObjectClass is a D3DXPARAMETER_CLASS value.
type ObjectClass uint32

const (
	ClassScalar ObjectClass = iota
	ClassVector
	ClassMatrixRows
	ClassMatrixColumns
	ClassObject
	ClassStruct
)

var objectClassNames = [...]string{
	ClassScalar:        "scalar",
	ClassVector:        "vector",
	ClassMatrixRows:    "matrix_rows",
	ClassMatrixColumns: "matrix_columns",
	ClassObject:        "object",
	ClassStruct:        "struct",
}

func (c ObjectClass) String() string {
	if int(c) < len(objectClassNames) {
		return objectClassNames[c]
	}
	return fmt.Sprintf("class(%d)", uint32(c))
}

func (c ObjectClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// IsNumeric reports whether values of class c are scalar, vector or matrix
// data with a column/row shape.
func (c ObjectClass) IsNumeric() bool { return c <= ClassMatrixColumns }

// StateType identifies a pass state. Only the shader bindings are named.
type StateType uint32

const (
	StateVertexShader StateType = 146
	StatePixelShader  StateType = 147
)

func (s StateType) String() string {
	switch s {
	case StateVertexShader:
		return "VertexShader"
	case StatePixelShader:
		return "PixelShader"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

func (s StateType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// SamplerStateType identifies a sampler state after masking off 0xA0.
type SamplerStateType uint32

// samplerStateMask is cleared from the raw sampler state type.
const samplerStateMask = 0xA0

const (
	SamplerTexture       SamplerStateType = 4
	SamplerAddressU      SamplerStateType = 5
	SamplerAddressV      SamplerStateType = 6
	SamplerAddressW      SamplerStateType = 7
	SamplerBorderColor   SamplerStateType = 8
	SamplerMagFilter     SamplerStateType = 9
	SamplerMinFilter     SamplerStateType = 10
	SamplerMipFilter     SamplerStateType = 11
	SamplerMipMapLODBias SamplerStateType = 12
	SamplerMaxMipLevel   SamplerStateType = 13
	SamplerMaxAnisotropy SamplerStateType = 14
	SamplerSRGBTexture   SamplerStateType = 15
	SamplerElementIndex  SamplerStateType = 16
	SamplerDMapOffset    SamplerStateType = 17
)

var samplerStateNames = map[SamplerStateType]string{
	SamplerTexture:       "Texture",
	SamplerAddressU:      "AddressU",
	SamplerAddressV:      "AddressV",
	SamplerAddressW:      "AddressW",
	SamplerBorderColor:   "BorderColor",
	SamplerMagFilter:     "MagFilter",
	SamplerMinFilter:     "MinFilter",
	SamplerMipFilter:     "MipFilter",
	SamplerMipMapLODBias: "MipMapLodBias",
	SamplerMaxMipLevel:   "MaxMipLevel",
	SamplerMaxAnisotropy: "MaxAnisotropy",
	SamplerSRGBTexture:   "SRGBTexture",
	SamplerElementIndex:  "ElementIndex",
	SamplerDMapOffset:    "DMapOffset",
}

func (s SamplerStateType) String() string {
	if name, ok := samplerStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("sampler_state(%d)", uint32(s))
}

func (s SamplerStateType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// BlobOrigin records which deferred pass filled an object slot.
type BlobOrigin uint8

const (
	OriginNone BlobOrigin = iota
	OriginSmall
	OriginLarge
)

func (o BlobOrigin) String() string {
	switch o {
	case OriginSmall:
		return "small"
	case OriginLarge:
		return "large"
	}
	return "none"
}

func (o BlobOrigin) MarshalText() ([]byte, error) { return []byte(o.String()), nil }
