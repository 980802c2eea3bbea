package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fxinspect/internal/effect"
	"fxinspect/internal/fxfmt"
	"fxinspect/internal/output"
)

// shaderEffect has one pixel shader parameter whose bytecode is object 1.
func shaderEffect() []byte {
	var b []byte
	for _, w := range []uint32{
		effect.Magic, 28,
		// heap: type info at 4, value at 24
		0, uint32(effect.TypePixelShader), uint32(effect.ClassObject), 0, 0, 0, 1,
		// params, techniques, reserved, objects
		1, 0, 0, 2,
		4, 24, 0, 0,
		// small and large object counts, then object 1
		2, 0,
		1, 4, 0xFFFF0200,
	} {
		b = binary.LittleEndian.AppendUint32(b, w)
	}
	return b
}

func writeSample(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ps.fxc")
	if err := os.WriteFile(p, shaderEffect(), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDump(t *testing.T) {
	in := writeSample(t)
	out := filepath.Join(t.TempDir(), "dump")
	if err := cmdDump([]string{"--in", in, "--out", out}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	for _, name := range []string{"effect.json", "objects.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	blob, err := os.ReadFile(filepath.Join(out, output.BlobName(1)))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(blob, []byte{0x00, 0x02, 0xff, 0xff}) {
		t.Errorf("blob = %x", blob)
	}
}

func TestDumpRequiresFlags(t *testing.T) {
	if err := cmdDump(nil); err == nil {
		t.Error("expected error without --in and --out")
	}
}

func TestGraph(t *testing.T) {
	in := writeSample(t)
	for _, view := range []string{"refs", "techniques"} {
		out := filepath.Join(t.TempDir(), view+".dot")
		if err := cmdGraph([]string{"--in", in, "--out", out, "--view", view}); err != nil {
			t.Fatalf("graph %s: %v", view, err)
		}
		if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
			t.Errorf("%s: %v", out, err)
		}
	}
	if err := cmdGraph([]string{"--in", in, "--out", filepath.Join(t.TempDir(), "x.dot"), "--view", "bogus"}); err == nil {
		t.Error("expected error for unknown view")
	}
}

func TestScanFile(t *testing.T) {
	rec := scanFile(writeSample(t), fxfmt.Options{})
	if rec.Error != "" {
		t.Fatalf("scan: %s", rec.Error)
	}
	if rec.Kind != "fxc" || rec.Parameters != 1 || rec.Objects != 2 || rec.Filled != 1 {
		t.Errorf("record = %+v", rec)
	}

	var buf bytes.Buffer
	printScanRecord(&buf, rec)
	if !strings.Contains(buf.String(), "1/2 objects filled") {
		t.Errorf("text = %q", buf.String())
	}

	bad := scanFile(filepath.Join(t.TempDir(), "missing.fxc"), fxfmt.Options{})
	if bad.Error == "" {
		t.Error("expected error for missing file")
	}
	buf.Reset()
	printScanRecord(&buf, bad)
	if !strings.Contains(buf.String(), "FAIL") {
		t.Errorf("text = %q", buf.String())
	}
}

func TestPrintObjects(t *testing.T) {
	s := "tex.png"
	var buf bytes.Buffer
	printObjects(&buf, []output.ObjectEntry{
		{Index: 1, Type: effect.TypeTexture, Origin: effect.OriginLarge, Size: 7, String: &s},
		{Index: 2, Type: effect.TypePixelShader, Origin: effect.OriginSmall, LargeKind: 2, Size: 4},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], `"tex.png"`) || !strings.Contains(lines[1], "kind=2") || !strings.Contains(lines[1], "4 bytes bytecode") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintEffect(t *testing.T) {
	name := func(s string) *string { return &s }
	fx := &effect.Effect{
		Parameters: []*effect.Parameter{
			{Value: &effect.Value{
				Name:     name("World"),
				Semantic: name("WORLD"),
				Type:     effect.TypeInfo{Type: effect.TypeFloat, Class: effect.ClassMatrixRows, Columns: 4, Rows: 4},
			}},
			{Value: &effect.Value{
				Name: name("Lights"),
				Type: effect.TypeInfo{Type: effect.TypeFloat, Class: effect.ClassVector, Columns: 3, Elements: 8},
			}},
		},
		Techniques: []*effect.Technique{{
			Name: name("Basic"),
			Passes: []*effect.Pass{{
				Name:   name("P0"),
				States: []*effect.State{{Type: effect.StateVertexShader}, {Type: effect.StatePixelShader}},
			}},
		}},
	}
	var buf bytes.Buffer
	printEffect(&buf, fx)
	want := `// 2 parameters
float4x4 World : WORLD;
float3 Lights[8];

// 1 techniques
technique Basic
{
	pass P0
	{
		VertexShader;
		PixelShader;
	}
}
`
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestListRequiresInput(t *testing.T) {
	if err := cmdList(nil); err == nil {
		t.Error("expected error without --in")
	}
}
