package layout

import (
	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/tree"
)

// array lays out the template child of n and replicates it.
func (w *walker) array(n *tree.Array, path string) error {
	if n.Template() == nil {
		return w.fail(path, errors.ErrCodeInvalidValue, errors.ReasonArityError,
			"array '%s' must have one element (has %d)", path, len(n.Children))
	}
	if n.Repeat == nil {
		return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingRepeat,
			"missing repeat count for %s", path)
	}
	repeat := *n.Repeat
	if repeat == 0 {
		return w.fail(path, errors.ErrCodeInvalidValue, errors.ReasonBadRepeat,
			"repeat count of %s must be positive", path)
	}
	if err := w.composite(n, path, n.Size); err != nil {
		return err
	}

	l := &n.Layout
	stride, ok := alignUp(l.Size, l.Align)
	if ok && aligned(n.Align) {
		stride, ok = roundPow2(stride)
	}
	if !ok {
		return w.tooLarge(path)
	}
	n.Stride = stride
	if l.Size, ok = mul(stride, repeat); !ok {
		return w.tooLarge(path)
	}
	if aligned(n.Align) {
		slots, ok := roundPow2(repeat)
		if ok {
			l.Align, ok = mul(stride, slots)
		}
		if !ok {
			return w.tooLarge(path)
		}
	} else {
		l.Align = max(stride, 1)
	}
	n.BlkBits = ilog2(n.Stride)
	n.SelBits = max(ilog2(l.Size)-n.BlkBits, 0)
	return nil
}
