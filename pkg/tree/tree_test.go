package tree

import (
	"testing"
)

func intp(v int) *int { return &v }

func TestJoinPath(t *testing.T) {
	tests := []struct {
		parent, name, want string
	}{
		{"", "top", "/top"},
		{"/top", "ctrl", "/top/ctrl"},
		{"/top", "", "/top/??"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.parent, tt.name); got != tt.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", tt.parent, tt.name, got, tt.want)
		}
	}
}

func TestAccessValid(t *testing.T) {
	for _, a := range []Access{AccessRO, AccessWO, AccessRW, AccessCst} {
		if !a.Valid() {
			t.Errorf("%q should be valid", a)
		}
	}
	for _, a := range []Access{"", "r", "RW"} {
		if a.Valid() {
			t.Errorf("%q should be invalid", a)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindReg.String() != "reg" || KindRoot.String() != "memory-map" {
		t.Errorf("unexpected kind names: %s, %s", KindReg, KindRoot)
	}
}

func TestEffectiveFields(t *testing.T) {
	r := &Reg{Element: Element{Name: "r"}, Width: intp(8)}
	if got := r.EffectiveFields(); got != nil {
		t.Fatalf("EffectiveFields() before layout = %v, want nil", got)
	}

	implicit := &Field{Lo: intp(0), Hi: intp(7), Bits: FieldBits{RWidth: 8}}
	r.Encoding.SetImplicit(implicit)
	got := r.EffectiveFields()
	if len(got) != 1 || got[0] != implicit {
		t.Fatalf("EffectiveFields() = %v, want synthesized field", got)
	}
	if !got[0].IsImplicit() {
		t.Error("synthesized field should be implicit")
	}
	if len(r.Fields) != 0 {
		t.Error("synthesized field must not be added to Fields")
	}

	explicit := &Field{Name: "f", Lo: intp(3)}
	r.Fields = []*Field{explicit}
	if got := r.EffectiveFields(); len(got) != 1 || got[0] != explicit {
		t.Errorf("EffectiveFields() = %v, want explicit field", got)
	}
}

func TestFieldRange(t *testing.T) {
	f := &Field{Lo: intp(4), Hi: intp(7), Bits: FieldBits{RWidth: 4}}
	lo, hi := f.Range()
	if lo != 4 || hi != 7 {
		t.Errorf("Range() = (%d, %d), want (4, 7)", lo, hi)
	}
}

func TestWalk(t *testing.T) {
	reg := &Reg{Element: Element{Name: "r", Layout: Placement{Address: 4, Size: 4}}}
	blk := &Block{
		Element: Element{Name: "b", Layout: Placement{Address: 16, Size: 8}},
		Group:   Group{Children: []Node{reg}},
	}
	sub := &Submap{
		Element:  Element{Name: "s", Layout: Placement{Address: 32}},
		Resolved: SubmapInfo{Map: &Root{Group: Group{Children: []Node{&Reg{Element: Element{Name: "x", Layout: Placement{Address: 8}}}}}}},
	}
	root := &Root{Element: Element{Name: "top"}, Group: Group{Children: []Node{blk, sub}}}

	got := map[string]uint64{}
	err := Walk(root, func(path string, n Node, abs uint64) error {
		got[path] = abs
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}

	want := map[string]uint64{
		"/top":     0,
		"/top/b":   16,
		"/top/b/r": 20,
		"/top/s":   32,
		"/top/s/x": 40,
	}
	if len(got) != len(want) {
		t.Fatalf("Walk visited %v, want %v", got, want)
	}
	for p, a := range want {
		if got[p] != a {
			t.Errorf("address of %s = %d, want %d", p, got[p], a)
		}
	}
}
