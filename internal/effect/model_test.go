package effect

import "testing"

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    *Value
		want string
	}{
		{"scalar", &Value{Name: ptr("Gain"), Type: TypeInfo{Type: TypeFloat, Class: ClassScalar, Columns: 1, Rows: 1}}, "float Gain;"},
		{"semantic", &Value{Name: ptr("Pos"), Semantic: ptr("POSITION0"), Type: TypeInfo{Type: TypeFloat, Class: ClassVector, Columns: 4, Rows: 1}}, "float4 Pos : POSITION0;"},
		{"matrix array", &Value{Name: ptr("Bones"), Type: TypeInfo{Type: TypeFloat, Class: ClassMatrixColumns, Columns: 3, Rows: 4, Elements: 60}}, "float4x3 Bones[60];"},
		{"struct", &Value{Name: ptr("Light"), Type: TypeInfo{Type: TypeVoid, Class: ClassStruct}}, "struct Light;"},
		{"object", &Value{Name: ptr("Tex"), Type: TypeInfo{Type: TypeTexture2D, Class: ClassObject}}, "texture2d Tex;"},
		{"unnamed", &Value{Type: TypeInfo{Type: TypeInt, Class: ClassScalar}}, "int ;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTechniqueString(t *testing.T) {
	tech := &Technique{
		Passes: []*Pass{
			{Name: ptr("P0"), States: []*State{{Type: StateVertexShader}, {Type: 7}}},
			{Name: ptr("P1")},
		},
	}
	want := "technique \n{\n\tpass P0\n\t{\n\t\tVertexShader;\n\t\tstate(7);\n\t}\n\tpass P1\n\t{\n\t}\n}"
	if got := tech.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}
