package layout

import (
	"math/bits"

	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/tree"
)

// reg checks a register, resolves its encoding and lays out its fields.
func (w *walker) reg(n *tree.Reg, path string) error {
	if n.Width == nil {
		return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingWidth,
			"missing width for register %s", path)
	}
	width := *n.Width
	switch width {
	case 8, 16, 32, 64:
	default:
		return w.fail(path, errors.ErrCodeInvalidValue, errors.ReasonBadWidth,
			"incorrect width %d for register %s (must be 8, 16, 32 or 64)", width, path)
	}
	if err := w.named(&n.Element, path); err != nil {
		return err
	}
	if n.Access == "" {
		return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingAccess,
			"missing access for register %s", path)
	}
	if !n.Access.Valid() {
		return w.fail(path, errors.ErrCodeInvalidValue, errors.ReasonBadAccess,
			"incorrect access %q for register %s", n.Access, path)
	}

	wordBits := w.wordBits()
	n.Layout.Size = uint64(width / tree.ByteSize)
	n.Encoding = tree.RegEncoding{NWords: (width + wordBits - 1) / wordBits}
	enc := &n.Encoding

	gen := n.Gen()
	if gen.Srff {
		if n.Access != tree.AccessRO {
			return w.fail(path, errors.ErrCodeConflict, errors.ReasonIncompatibleGenerator,
				"'gen=srff' only for 'access=ro' in register %s", path)
		}
		if n.GenaType() != "" {
			return w.fail(path, errors.ErrCodeConflict, errors.ReasonIncompatibleGenerator,
				"'gen=srff' incompatible with 'type=' in register %s", path)
		}
		if width < wordBits {
			return w.fail(path, errors.ErrCodeConflict, errors.ReasonIncompatibleGenerator,
				"width cannot be smaller than word width for srff %s", path)
		}
	}
	if gen.BusOut && n.Access != tree.AccessRO {
		return w.fail(path, errors.ErrCodeConflict, errors.ReasonIncompatibleGenerator,
			"'gen=bus-out' only for 'access=ro' in register %s", path)
	}

	if n.IsRMW() {
		if gen.Resize != nil && *gen.Resize != width/2 {
			return w.fail(path, errors.ErrCodeConflict, errors.ReasonIncompatibleResize,
				"gen.resize incompatible with type=rmw for %s", path)
		}
		// The upper half masks the bits written to the lower half.
		enc.RWidth = width / 2
		enc.IOWidth = width / 2
		enc.MWidth = width
	} else {
		enc.RWidth = width
		enc.MWidth = width
		enc.IOWidth = width
		if gen.Resize != nil {
			enc.IOWidth = *gen.Resize
		}
	}

	if w.cfg.alignReg {
		// A register spans at most 8 bytes.
		n.Layout.Align, _ = alignUp(n.Layout.Size, w.cfg.wordSize)
	} else {
		n.Layout.Align = w.cfg.wordSize
	}

	if len(n.Fields) > 0 {
		if n.Type != "" {
			return w.fail(path, errors.ErrCodeConflict, errors.ReasonTypeAndFieldsConflict,
				"register %s with both a type and fields", path)
		}
		occupied := make([]string, width)
		names := make(map[string]bool, len(n.Fields))
		for _, f := range n.Fields {
			fpath := tree.JoinPath(path, f.Name)
			if names[f.Name] {
				return w.fail(fpath, errors.ErrCodeConflict, errors.ReasonDuplicateFieldName,
					"field '%s' reuse a name in reg %s", f.Name, path)
			}
			names[f.Name] = true
			if err := w.field(f, n, fpath, occupied); err != nil {
				return err
			}
		}
		return nil
	}

	return w.implicitField(n, path)
}

// implicitField synthesizes the full-width field of a register declared
// without fields and resolves the register value type.
func (w *walker) implicitField(n *tree.Reg, path string) error {
	enc := &n.Encoding
	lo, hi := 0, enc.RWidth-1
	f := &tree.Field{
		Description: n.Description,
		Preset:      n.Preset,
		Lo:          &lo,
		Hi:          &hi,
		Bits:        tree.FieldBits{RWidth: enc.RWidth, IOWidth: enc.IOWidth},
	}
	if f.Preset != nil && bits.Len64(*f.Preset) > enc.RWidth {
		return w.fail(path, errors.ErrCodeOverflow, errors.ReasonPresetOverflow,
			"incorrect preset value for register %s", path)
	}
	enc.SetImplicit(f)

	switch n.Type {
	case "":
		enc.Type = tree.TypeUnsigned
	case tree.TypeSigned, tree.TypeUnsigned:
		enc.Type = n.Type
	case tree.TypeFloat:
		if enc.RWidth != 32 && enc.RWidth != 64 {
			return w.fail(path, errors.ErrCodeInvalidValue, errors.ReasonBadFloatWidth,
				"incorrect width for float register %s", path)
		}
		enc.Type = n.Type
	default:
		return w.fail(path, errors.ErrCodeInvalidValue, errors.ReasonBadType,
			"incorrect type %q for register %s", n.Type, path)
	}
	return nil
}

// field checks the bit range of f within register r and claims its bits
// in occupied, which holds the path of the field owning each bit.
func (w *walker) field(f *tree.Field, r *tree.Reg, path string, occupied []string) error {
	if f.Name == "" {
		return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingName,
			"missing name for %s", path)
	}
	if f.Lo == nil {
		return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingRange,
			"missing range for field %s", path)
	}
	lo := *f.Lo
	if lo < 0 {
		return w.fail(path, errors.ErrCodeInvalidRange, errors.ReasonInvertedRange,
			"negative bit index for field %s", path)
	}
	hi := lo
	if f.Hi != nil {
		hi = *f.Hi
		switch {
		case hi < lo:
			return w.fail(path, errors.ErrCodeInvalidRange, errors.ReasonInvertedRange,
				"incorrect range for field %s", path)
		case hi == lo:
			return w.fail(path, errors.ErrCodeInvalidRange, errors.ReasonSingleBitRange,
				"one-bit range for field %s", path)
		}
	}
	f.Bits = tree.FieldBits{RWidth: hi - lo + 1, IOWidth: hi - lo + 1}

	if hi >= *r.Width {
		return w.fail(path, errors.ErrCodeOverflow, errors.ReasonWidthOverflow,
			"field %s width overflows its register size", path)
	}
	if hi >= r.Encoding.RWidth {
		return w.fail(path, errors.ErrCodeOverflow, errors.ReasonStorageOverflow,
			"field %s extends beyond register storage size", path)
	}
	for i := lo; i <= hi; i++ {
		if occupied[i] != "" {
			return w.fail(path, errors.ErrCodeOverlap, errors.ReasonFieldOverlap,
				"field %s overlaps field %s in bit %d", path, occupied[i], i)
		}
		occupied[i] = path
	}

	if f.Preset != nil && bits.Len64(*f.Preset) > f.Bits.RWidth {
		return w.fail(path, errors.ErrCodeOverflow, errors.ReasonPresetOverflow,
			"incorrect preset value for field %s", path)
	}
	return nil
}
