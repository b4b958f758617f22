package tree

// Access is the software access mode of a register.
type Access string

const (
	AccessRO  Access = "ro"
	AccessWO  Access = "wo"
	AccessRW  Access = "rw"
	AccessCst Access = "cst"
)

// Valid reports whether a is one of the four access modes.
func (a Access) Valid() bool {
	switch a {
	case AccessRO, AccessWO, AccessRW, AccessCst:
		return true
	}
	return false
}

// Register value types.
const (
	TypeUnsigned = "unsigned"
	TypeSigned   = "signed"
	TypeFloat    = "float"
)

// GenaTypeRMW marks a read-modify-write register: the upper half of the
// register is a write mask for the lower half.
const GenaTypeRMW = "rmw"

// Gena holds the register generator extension (x-gena).
type Gena struct {
	// Type is the register encoding, e.g. [GenaTypeRMW].
	Type string
	Gen  GenaGen
}

// GenaGen lists the generators requested for a register.
type GenaGen struct {
	Srff   bool // Set/reset flip-flop, read-only
	BusOut bool // Value is driven on the bus, read-only
	Resize *int // Externally visible I/O width
}

// Reg is a register.
type Reg struct {
	Element

	Width  *int
	Access Access
	Type   string
	Preset *uint64
	Gena   *Gena

	// Fields are the explicit fields, possibly empty. See EffectiveFields.
	Fields []*Field

	// Encoding is assigned by the layout engine.
	Encoding RegEncoding
}

// RegEncoding holds the resolved widths of a register.
type RegEncoding struct {
	// RWidth is the storage width: the declared width, or half of it for
	// read-modify-write registers.
	RWidth int
	// IOWidth is the width of the external data wires.
	IOWidth int
	// MWidth is the width occupied in the memory map.
	MWidth int
	// NWords is the number of bus words spanned by the register.
	NWords int
	// Type is the value type of a register without fields; empty otherwise.
	Type string

	// implicit is the synthesized full-width field of a register without
	// explicit fields.
	implicit *Field
}

// SetImplicit records the synthesized field of a register without fields.
func (e *RegEncoding) SetImplicit(f *Field) { e.implicit = f }

// IsRMW reports whether the register uses the read-modify-write encoding.
func (r *Reg) IsRMW() bool { return r.Gena != nil && r.Gena.Type == GenaTypeRMW }

// GenaType returns the generator type, or "" when none is declared.
func (r *Reg) GenaType() string {
	if r.Gena == nil {
		return ""
	}
	return r.Gena.Type
}

// Gen returns the requested generators; the zero value when none.
func (r *Reg) Gen() GenaGen {
	if r.Gena == nil {
		return GenaGen{}
	}
	return r.Gena.Gen
}

// EffectiveFields returns the explicit fields, or the single synthesized
// full-width field once the register has been laid out.
func (r *Reg) EffectiveFields() []*Field {
	if len(r.Fields) > 0 {
		return r.Fields
	}
	if r.Encoding.implicit != nil {
		return []*Field{r.Encoding.implicit}
	}
	return nil
}

// Field is a named bit range of a register.
type Field struct {
	Name        string
	Description string
	Comment     string

	Lo     *int
	Hi     *int // nil for a single-bit field
	Preset *uint64

	Extensions Extensions

	// Bits is assigned by the layout engine.
	Bits FieldBits
}

// FieldBits holds the resolved widths of a field.
type FieldBits struct {
	RWidth  int
	IOWidth int
}

// Range returns the resolved low and high bit of the field.
func (f *Field) Range() (lo, hi int) {
	if f.Lo == nil {
		return 0, 0
	}
	lo = *f.Lo
	return lo, lo + f.Bits.RWidth - 1
}

// IsImplicit reports whether the field was synthesized for a register
// without explicit fields.
func (f *Field) IsImplicit() bool { return f.Name == "" }
