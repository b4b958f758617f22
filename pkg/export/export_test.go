package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/chebytools/cheby/pkg/layout"
	"github.com/chebytools/cheby/pkg/tree"
)

func intp(v int) *int { return &v }

func laidOut(t *testing.T) *tree.Root {
	t.Helper()
	lo, hi := 4, 7
	ctrl := &tree.Reg{
		Element: tree.Element{Name: "ctrl", Description: "control"},
		Width:   intp(32),
		Access:  tree.AccessRW,
		Fields: []*tree.Field{
			{Name: "mode", Lo: &lo, Hi: &hi},
		},
	}
	count := &tree.Reg{
		Element: tree.Element{Name: "count"},
		Width:   intp(16),
		Access:  tree.AccessRO,
	}
	repeat := uint64(2)
	arr := &tree.Array{
		Element: tree.Element{Name: "arr"},
		Group: tree.Group{Children: []tree.Node{&tree.Reg{
			Element: tree.Element{Name: "v"},
			Width:   intp(32),
			Access:  tree.AccessRW,
		}}},
		Repeat: &repeat,
	}
	size := uint64(0x100)
	ext := &tree.Submap{Element: tree.Element{Name: "ext"}, Size: &size, Interface: "sram"}
	r := &tree.Root{
		Element: tree.Element{Name: "top", Extensions: tree.Extensions{"x-driver": "topdrv"}},
		Group:   tree.Group{Children: []tree.Node{ctrl, count, arr, ext}},
	}
	if err := layout.New(nil).Layout(context.Background(), r); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return r
}

func TestBuild(t *testing.T) {
	doc := Build(laidOut(t))

	if doc.Name != "top" || doc.Bus != "wb-32-be" || doc.WordSize != 4 {
		t.Errorf("document = %+v", doc)
	}
	root := doc.Root
	if root.Kind != "memory-map" || root.Path != "/top" {
		t.Errorf("root = %s %s", root.Kind, root.Path)
	}
	if root.BlkBits == nil || root.SelBits == nil {
		t.Fatal("root split missing")
	}
	if len(root.Children) != 4 {
		t.Fatalf("children = %d", len(root.Children))
	}

	ctrl := root.Children[0]
	if ctrl.Reg == nil || ctrl.Reg.Width != 32 || len(ctrl.Reg.Fields) != 1 {
		t.Fatalf("ctrl = %+v", ctrl)
	}
	if f := ctrl.Reg.Fields[0]; f.Lo != 4 || f.Hi != 7 || f.RWidth != 4 || f.Implicit {
		t.Errorf("field = %+v", f)
	}

	count := root.Children[1]
	if count.AbsAddress != 4 || count.Reg.Type != tree.TypeUnsigned {
		t.Errorf("count = %+v", count)
	}
	if f := count.Reg.Fields[0]; !f.Implicit || f.Hi != 15 {
		t.Errorf("implicit field = %+v", f)
	}

	arr := root.Children[2]
	if arr.Kind != "array" || arr.Repeat != 2 || arr.Stride != 4 {
		t.Errorf("array = %+v", arr)
	}
	if v := arr.Children[0]; v.Path != "/top/arr/v" || v.AbsAddress != arr.AbsAddress {
		t.Errorf("template = %+v", v)
	}

	ext := root.Children[3]
	if ext.Submap == nil || ext.Submap.Interface != "sram" || ext.Submap.Map != nil {
		t.Errorf("submap = %+v", ext.Submap)
	}
	if ext.AbsAddress%ext.Align != 0 {
		t.Errorf("submap at 0x%x not aligned on 0x%x", ext.AbsAddress, ext.Align)
	}
}

func TestBuildNestedSubmapAddresses(t *testing.T) {
	reg := func(name string) *tree.Reg {
		return &tree.Reg{Element: tree.Element{Name: name}, Width: intp(32), Access: tree.AccessRW}
	}
	loader := layout.LoaderFunc(func(path string) (*tree.Root, error) {
		return &tree.Root{
			Element: tree.Element{Name: "sub"},
			Group:   tree.Group{Children: []tree.Node{reg("a"), reg("b")}},
		}, nil
	})
	top := &tree.Root{
		Element:  tree.Element{Name: "top"},
		Filename: "/maps/top.cheby",
		Group: tree.Group{Children: []tree.Node{
			reg("r0"),
			&tree.Submap{Element: tree.Element{Name: "s"}, Filename: "sub.cheby"},
		}},
	}
	if err := layout.New(loader).Layout(context.Background(), top); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	want := map[string]uint64{}
	_ = tree.Walk(top, func(path string, _ tree.Node, abs uint64) error {
		want[path] = abs
		return nil
	})

	s := Build(top).Root.Children[1]
	if s.AbsAddress != 8 || s.Submap == nil || s.Submap.Map == nil {
		t.Fatalf("submap = %+v", s)
	}
	nested := s.Submap.Map.Root
	if nested.Path != "/top/s" || nested.AbsAddress != 8 {
		t.Errorf("nested root = %s at 0x%x", nested.Path, nested.AbsAddress)
	}
	for _, c := range nested.Children {
		abs, ok := want[c.Path]
		if !ok {
			t.Errorf("unexpected path %s", c.Path)
			continue
		}
		if c.AbsAddress != abs {
			t.Errorf("%s abs_address = 0x%x, want 0x%x", c.Path, c.AbsAddress, abs)
		}
	}
	if b := nested.Children[1]; b.Path != "/top/s/b" || b.AbsAddress != 0xc || b.Address != 4 {
		t.Errorf("b = %s abs 0x%x rel 0x%x", b.Path, b.AbsAddress, b.Address)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, laidOut(t), FormatJSON); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !strings.HasPrefix(doc.Generator, "cheby ") {
		t.Errorf("generator = %q", doc.Generator)
	}
	if doc.Root.Extensions["x-driver"] != "topdrv" {
		t.Errorf("extensions = %v", doc.Root.Extensions)
	}
	if !strings.Contains(buf.String(), `"address_order"`) {
		t.Error("address order missing")
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, laidOut(t), FormatYAML); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var doc Document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if doc.Root == nil || len(doc.Root.Children) != 4 {
		t.Errorf("decoded root = %+v", doc.Root)
	}
}

func TestMarshalRejectsFormat(t *testing.T) {
	if _, err := Marshal(laidOut(t), "xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"yaml", false},
		{"JSON", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top.layout.json")
	if err := WriteFile(laidOut(t), path, FormatJSON); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"name": "top"`)) {
		t.Errorf("unexpected content: %s", data)
	}
}
