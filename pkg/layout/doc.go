// Package layout computes the memory layout of a description tree.
//
// Given a parsed [tree.Root], the [Engine] assigns every register, block,
// array and sub-map a byte address relative to its parent, a byte size and
// a required alignment. For every composite it also records the children
// sorted by address and the split of its address space into the bits that
// select a child and the bits decoded inside it. For every register it
// resolves the bit widths of its encoding and validates its fields.
//
// # Rules
//
// Layout is bottom-up: the children of a composite are laid out first, then
// placed in declaration order. A child without an explicit address goes at
// the next multiple of its alignment; an explicit address must already be a
// multiple of it. The composite is as large as the farthest child end, or
// its declared size if that is larger. Aligned blocks, arrays and sub-maps
// round their size up to a power of two and align on it.
//
// The bus of the description fixes the word size and whether registers
// align on their own size. Sub-map files are laid out with their own bus.
//
// # Errors
//
// The first violation aborts the layout of the file. The returned
// *errors.Error carries a code, a reason, the file and the node path,
// for example "/top/ctrl/mode". After an error the tree must be discarded.
//
// # Usage
//
//	eng := layout.New(layout.LoaderFunc(parser.ParseFile), layout.WithLogger(logger))
//	if err := eng.Layout(ctx, root); err != nil {
//	    return err
//	}
package layout
