package layout

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/observability"
	"github.com/chebytools/cheby/pkg/tree"
)

// submap resolves a generic placeholder or loads, lays out and adopts an
// included description.
func (w *walker) submap(n *tree.Submap, path string) error {
	if err := w.named(&n.Element, path); err != nil {
		return err
	}
	n.Resolved = tree.SubmapInfo{}

	if n.IsGeneric() {
		if n.Size == nil {
			return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingSize,
				"no size in submap '%s'", path)
		}
		if *n.Size == 0 {
			return w.fail(path, errors.ErrCodeInvalidValue, errors.ReasonBadSize,
				"size of submap '%s' must be positive", path)
		}
		if n.Interface == "" {
			return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingInterface,
				"no interface for generic submap '%s'", path)
		}
		n.Layout.Size = *n.Size
		n.Layout.Align = w.leafAlign(n.Align)
		n.Resolved.Interface = n.Interface
	} else {
		if n.Size != nil {
			return w.fail(path, errors.ErrCodeConflict, errors.ReasonConflictingSize,
				"size given for submap '%s'", path)
		}
		m, err := w.load(n, path)
		if err != nil {
			return err
		}
		n.Resolved.Map = m
		n.Layout.Size = m.Layout.Size
		n.Layout.Align = max(m.Layout.Align, w.leafAlign(n.Align))
		switch n.Interface {
		case "":
			n.Resolved.Interface = m.BusInfo.Name
		case tree.InterfaceInclude:
		default:
			return w.fail(path, errors.ErrCodeConflict, errors.ReasonInterfaceOverride,
				"interface override is not allowed for submap '%s'", path)
		}
	}

	n.Resolved.Width = w.wordBits()
	return w.alignBlock(&n.Element, n.Align, path)
}

// load reads the description referenced by n, relative to the directory
// of the file being laid out, and lays it out with its own bus.
func (w *walker) load(n *tree.Submap, path string) (*tree.Root, error) {
	filename := n.Filename
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(filepath.Dir(w.file), filename)
	}
	n.Resolved.Path = filename

	key := fileKey(filename)
	if slices.Contains(w.chain, key) {
		cycle := append(slices.Clone(w.chain), key)
		return nil, w.fail(path, errors.ErrCodeConflict, errors.ReasonSubmapCycle,
			"submap '%s' includes itself: %s", path, strings.Join(cycle, " -> "))
	}

	if w.e.loader == nil {
		return nil, w.fail(path, errors.ErrCodeInternal, "",
			"no loader to read submap '%s' from %s", path, filename)
	}
	w.e.logger.Debug("loading submap", "file", filename, "node", path)
	observability.Layout().OnSubmapLoad(w.ctx, filename, path)

	m, err := w.e.loader.Load(filename)
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeParse
		}
		return nil, errors.Wrap(code, err, "cannot load submap '%s' from %s", path, filename).At(w.file, path)
	}
	if m.Filename == "" {
		m.Filename = filename
	}

	chain := append(slices.Clone(w.chain), key)
	if err := w.e.layoutFile(w.ctx, m, chain); err != nil {
		return nil, err
	}
	return m, nil
}
