package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/tree"
)

const sample = `
memory-map:
  name: top
  bus: cern-be-vme-err-16
  description: Top level map
  size: 0x1_000
  x-driver: {name: topdrv}
  children:
    - reg:
        name: ctrl
        width: 32
        access: rw
        address: 0x10
        comment: Control register
        children:
          - field:
              name: enable
              range: 0
              preset: 1
          - field:
              name: mode
              range: 7-4
              preset: 0b1010
              x-hdl: {type: wire}
    - reg:
        name: count
        width: 64
        access: ro
        address: next
        type: signed
        x-gena:
          type: rmw
          gen: {srff: false, bus-out: true, resize: 32}
    - block:
        name: blk
        align: false
        children:
          - reg: {name: r, width: 16, access: wo}
    - array:
        name: chans
        repeat: 4
        children:
          - block:
              name: chan
              size: 12
    - submap:
        name: dma
        filename: dma.cheby
        interface: include
    - submap:
        name: ext
        size: 0o400
        interface: sram
`

func TestParseSample(t *testing.T) {
	r, err := ParseBytes([]byte(sample), "top.cheby")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	if r.Name != "top" || r.Bus != "cern-be-vme-err-16" || r.Filename != "top.cheby" {
		t.Errorf("root = %q %q %q", r.Name, r.Bus, r.Filename)
	}
	if r.Size == nil || *r.Size != 0x1000 {
		t.Errorf("size = %v, want 0x1000", r.Size)
	}
	if _, ok := r.Extensions["x-driver"]; !ok {
		t.Error("root extension not kept")
	}
	if len(r.Children) != 6 {
		t.Fatalf("children = %d, want 6", len(r.Children))
	}

	ctrl := r.Children[0].(*tree.Reg)
	if *ctrl.Width != 32 || ctrl.Access != tree.AccessRW || *ctrl.Address != 0x10 {
		t.Errorf("ctrl = %+v", ctrl)
	}
	if ctrl.Comment != "Control register" {
		t.Errorf("comment = %q", ctrl.Comment)
	}
	if len(ctrl.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(ctrl.Fields))
	}
	en, mode := ctrl.Fields[0], ctrl.Fields[1]
	if *en.Lo != 0 || en.Hi != nil || *en.Preset != 1 {
		t.Errorf("enable = lo %v hi %v", en.Lo, en.Hi)
	}
	if *mode.Lo != 4 || *mode.Hi != 7 || *mode.Preset != 0xa {
		t.Errorf("mode = lo %d hi %d preset %d", *mode.Lo, *mode.Hi, *mode.Preset)
	}
	if mode.Extensions["x-hdl"] == nil {
		t.Error("field extension not kept")
	}

	count := r.Children[1].(*tree.Reg)
	if count.Address != nil {
		t.Errorf("address next decoded as %d", *count.Address)
	}
	if count.Type != tree.TypeSigned || !count.IsRMW() {
		t.Errorf("count type %q rmw %v", count.Type, count.IsRMW())
	}
	gen := count.Gen()
	if gen.Srff || !gen.BusOut || gen.Resize == nil || *gen.Resize != 32 {
		t.Errorf("gen = %+v", gen)
	}
	if _, ok := count.Extensions["x-gena"]; !ok {
		t.Error("x-gena not kept as extension")
	}

	blk := r.Children[2].(*tree.Block)
	if blk.Align == nil || *blk.Align || len(blk.Children) != 1 {
		t.Errorf("block = %+v", blk)
	}

	arr := r.Children[3].(*tree.Array)
	if *arr.Repeat != 4 || arr.Template() == nil {
		t.Errorf("array = %+v", arr)
	}
	if chn := arr.Template().(*tree.Block); *chn.Size != 12 {
		t.Errorf("template size = %d", *chn.Size)
	}

	dma := r.Children[4].(*tree.Submap)
	if dma.Filename != "dma.cheby" || dma.Interface != tree.InterfaceInclude || dma.IsGeneric() {
		t.Errorf("dma = %+v", dma)
	}
	ext := r.Children[5].(*tree.Submap)
	if !ext.IsGeneric() || *ext.Size != 0o400 || ext.Interface != "sram" {
		t.Errorf("ext = %+v", ext)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty description"},
		{"bad yaml", "memory-map: [", "invalid YAML"},
		{"wrong top key", "map: {name: x}", "memory-map"},
		{"unknown key", "memory-map:\n  name: x\n  colour: red\n", "line 3: unknown key 'colour'"},
		{"unknown reg key", "memory-map:\n  children:\n    - reg: {name: r, widht: 8}\n", "unknown key 'widht' in reg"},
		{"unknown kind", "memory-map:\n  children:\n    - fifo: {name: f}\n", "unknown child kind 'fifo'"},
		{"two kinds", "memory-map:\n  children:\n    - {reg: {}, block: {}}\n", "exactly one kind"},
		{"field outside reg", "memory-map:\n  children:\n    - field: {name: f}\n", "unknown child kind 'field'"},
		{"block in reg", "memory-map:\n  children:\n    - reg:\n        children:\n          - block: {}\n", "must be fields"},
		{"bad number", "memory-map:\n  size: 12k\n", "not a valid integer"},
		{"negative size", "memory-map:\n  size: -4\n", "not a valid integer"},
		{"bad range", "memory-map:\n  children:\n    - reg:\n        children:\n          - field: {range: a-b}\n", "invalid range"},
		{"bad align", "memory-map:\n  children:\n    - block: {align: maybe}\n", "must be a boolean"},
		{"duplicate key", "memory-map:\n  name: a\n  name: b\n", "duplicate key 'name'"},
		{"root address", "memory-map:\n  address: 0\n", "unknown key 'address'"},
		{"children not a list", "memory-map:\n  children: {reg: {}}\n", "must be a sequence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.doc), "bad.cheby")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeParse) {
				t.Errorf("code = %s, want PARSE_ERROR", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
			if o := errors.Origin(err); o == nil || o.File != "bad.cheby" {
				t.Errorf("error does not name the file: %v", err)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "top.cheby")
	doc := "memory-map:\n  name: top\n  children:\n    - reg: {name: r, width: 32, access: rw}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if r.Filename != path {
		t.Errorf("filename = %q, want %q", r.Filename, path)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.cheby"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND, got %v", err)
	}
}

func TestParseReader(t *testing.T) {
	r, err := Parse(strings.NewReader("memory-map: {name: m}\n"), "m.cheby")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Name != "m" || len(r.Children) != 0 {
		t.Errorf("root = %+v", r)
	}
}
