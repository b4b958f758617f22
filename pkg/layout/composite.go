package layout

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/tree"
)

// cursor is the running byte offset of one composite's direct children.
type cursor struct {
	address uint64
}

// place assigns the address of n: the next multiple of its alignment, or
// its explicit address, which must already be aligned. Explicit addresses
// may move the cursor backwards; overlaps are caught afterwards.
func (w *walker) place(cur *cursor, n tree.Node, path string) error {
	e := n.Elem()
	align := max(e.Layout.Align, 1)
	if e.Address == nil {
		next, ok := alignUp(cur.address, align)
		if !ok {
			return w.tooLarge(path)
		}
		cur.address = next
	} else {
		if *e.Address%align != 0 {
			return w.fail(path, errors.ErrCodeMisaligned, errors.ReasonUnalignedAddress,
				"unaligned address 0x%x for %s (alignment is 0x%x)", *e.Address, path, align)
		}
		cur.address = *e.Address
	}
	e.Layout.Address = cur.address
	end, ok := add(cur.address, e.Layout.Size)
	if !ok {
		return w.tooLarge(path)
	}
	cur.address = end
	return nil
}

// composite lays out the children of n, places them and computes the size,
// alignment and address decoding of n. size is the declared size, if any.
func (w *walker) composite(n tree.Composite, path string, size *uint64) error {
	e := n.Elem()
	if err := w.named(e, path); err != nil {
		return err
	}
	g := n.Members()

	names := make(map[string]bool, len(g.Children))
	for _, c := range g.Children {
		name := c.Elem().Name
		if names[name] {
			cpath := tree.JoinPath(path, name)
			return w.fail(cpath, errors.ErrCodeConflict, errors.ReasonDuplicateChildName,
				"child %s reuse name '%s'", cpath, name)
		}
		names[name] = true
	}

	// Size and alignment of every child.
	var maxAlign uint64
	hasAligned := false
	for _, c := range g.Children {
		if err := w.visit(c, tree.JoinPath(path, c.Elem().Name)); err != nil {
			return err
		}
		maxAlign = max(maxAlign, c.Elem().Layout.Align)
		if selfAligned(c) {
			hasAligned = true
		}
	}

	// Placement in declaration order.
	var cur cursor
	var natural uint64
	for _, c := range g.Children {
		if err := w.place(&cur, c, tree.JoinPath(path, c.Elem().Name)); err != nil {
			return err
		}
		l := c.Elem().Layout
		natural = max(natural, l.Address+l.Size)
	}
	e.Layout.Size = natural
	e.Layout.Align = max(maxAlign, 1)

	if size != nil {
		if *size < natural {
			return w.fail(path, errors.ErrCodeSizeTooSmall, errors.Reason(""),
				"size of %s is too small (need %d, get %d)", path, natural, *size).
				WithDetails(addressMap(g.Children)...)
		}
		e.Layout.Size = *size
	}

	if hasAligned {
		g.BlkBits = ilog2(e.Layout.Align)
		g.SelBits = max(ilog2(e.Layout.Size)-g.BlkBits, 0)
	} else {
		g.BlkBits = ilog2(e.Layout.Size)
		g.SelBits = 0
	}

	g.Sorted = slices.Clone(g.Children)
	slices.SortStableFunc(g.Sorted, func(a, b tree.Node) int {
		return cmp.Compare(a.Elem().Layout.Address, b.Elem().Layout.Address)
	})

	var last uint64
	var prev tree.Node
	for _, c := range g.Sorted {
		l := c.Elem().Layout
		if prev != nil && l.Address < last {
			cpath := tree.JoinPath(path, c.Elem().Name)
			return w.fail(cpath, errors.ErrCodeOverlap, errors.ReasonAddressOverlap,
				"element %s overlap %s", cpath, tree.JoinPath(path, prev.Elem().Name))
		}
		last = l.Address + l.Size
		prev = c
	}
	return nil
}

// selfAligned reports whether c rounds itself to a power of two.
func selfAligned(c tree.Node) bool {
	switch c := c.(type) {
	case *tree.Block:
		return aligned(c.Align)
	case *tree.Array:
		return aligned(c.Align)
	case *tree.Submap:
		return aligned(c.Align)
	}
	return false
}

func aligned(flag *bool) bool { return flag == nil || *flag }

func addressMap(children []tree.Node) []string {
	lines := make([]string, 0, len(children))
	for _, c := range children {
		l := c.Elem().Layout
		lines = append(lines, fmt.Sprintf("0x%08x - 0x%08x: %s", l.Address, l.Address+l.Size, c.Elem().Name))
	}
	return lines
}

// root lays out the top of a description; its address is always 0.
func (w *walker) root(n *tree.Root) error {
	path := tree.RootPath(n)
	if len(n.Children) == 0 {
		return w.fail(path, errors.ErrCodeEmptyDescription, errors.Reason(""),
			"empty description '%s'", n.Name)
	}
	n.Layout.Address = 0
	return w.composite(n, path, n.Size)
}

// block lays out a block, either as a composite or as a sized leaf region.
func (w *walker) block(n *tree.Block, path string) error {
	switch {
	case len(n.Children) > 0:
		if err := w.composite(n, path, n.Size); err != nil {
			return err
		}
	case n.Size == nil:
		return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingSize,
			"no size in block '%s'", path)
	case *n.Size == 0:
		return w.fail(path, errors.ErrCodeInvalidValue, errors.ReasonBadSize,
			"size of block '%s' must be positive", path)
	default:
		if err := w.named(&n.Element, path); err != nil {
			return err
		}
		n.Layout.Size = *n.Size
		n.Layout.Align = w.leafAlign(n.Align)
		n.Sorted = nil
		n.BlkBits = ilog2(n.Layout.Size)
		n.SelBits = 0
	}
	n.Width = w.wordBits()
	return w.alignBlock(&n.Element, n.Align, path)
}

// leafAlign is the alignment of a region without children before
// alignBlock: a packed region is aligned on one word.
func (w *walker) leafAlign(flag *bool) uint64 {
	if aligned(flag) {
		return 1
	}
	return w.cfg.wordSize
}

// alignBlock rounds the size of a self-aligned region up to a power of two
// and aligns it on its own size, never below the alignment its content
// already requires.
func (w *walker) alignBlock(e *tree.Element, flag *bool, path string) error {
	if !aligned(flag) {
		return nil
	}
	size, ok := roundPow2(e.Layout.Size)
	if !ok {
		return w.tooLarge(path)
	}
	e.Layout.Size = size
	e.Layout.Align = max(size, e.Layout.Align)
	return nil
}
