// Package output writes decoded effects to files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fxinspect/internal/effect"
)

// WriteEffectJSON writes the decode result to effect.json.
func WriteEffectJSON(dir string, res *effect.Result) error {
	return writeJSON(filepath.Join(dir, "effect.json"), res)
}

// ObjectEntry describes one slot of the object table.
type ObjectEntry struct {
	Index     int               `json:"index"`
	Type      effect.ObjectType `json:"type"`
	Origin    effect.BlobOrigin `json:"origin"`
	LargeKind uint32            `json:"largeKind,omitempty"`
	Size      int               `json:"size"`
	String    *string           `json:"string,omitempty"`
	File      string            `json:"file,omitempty"`
}

// ObjectEntries lists the referenced object slots in index order.
func ObjectEntries(fx *effect.Effect) []ObjectEntry {
	var out []ObjectEntry
	for i, obj := range fx.Objects {
		if obj == nil {
			continue
		}
		e := ObjectEntry{
			Index:     i,
			Type:      obj.Type,
			Origin:    obj.Origin,
			LargeKind: obj.LargeKind,
			Size:      obj.Size(),
		}
		if s, ok := obj.Text(); ok {
			e.String = &s
		}
		if _, ok := obj.Blob(); ok {
			e.File = BlobName(i)
		}
		out = append(out, e)
	}
	return out
}

// BlobName is the path of an object's payload relative to the dump directory.
func BlobName(index int) string {
	return filepath.Join("objects", fmt.Sprintf("%d.bin", index))
}

// WriteObjects writes objects.json and the payload of every blob object to
// objects/<index>.bin.
func WriteObjects(dir string, fx *effect.Effect) ([]ObjectEntry, error) {
	entries := ObjectEntries(fx)
	for _, e := range entries {
		if e.File == "" {
			continue
		}
		blob, _ := fx.Objects[e.Index].Blob()
		if err := WriteBin(dir, e.File, blob); err != nil {
			return nil, err
		}
	}
	if err := writeJSON(filepath.Join(dir, "objects.json"), entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteBin writes data to dir/name, creating parent directories.
func WriteBin(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteDOT writes a rendered graph to path.
func WriteDOT(path, dot string) error {
	if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
