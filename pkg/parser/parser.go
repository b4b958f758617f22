package parser

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/tree"
)

// TopKey is the only key allowed at the top of a description document.
const TopKey = "memory-map"

// AddressNext is the address value that asks for the next free slot.
const AddressNext = "next"

// extPrefix starts the keys that are kept verbatim as extensions.
const extPrefix = "x-"

// Parse decodes a description from r. filename is recorded on the root and
// in parse errors; it is also the base for relative sub-map paths.
//
// Parse does not close r.
func Parse(r io.Reader, filename string) (*tree.Root, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read %s", filename).At(filename, "")
	}
	return ParseBytes(data, filename)
}

// ParseFile reads and decodes the description file at path.
func ParseFile(path string) (*tree.Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no such description %s", path).At(path, "")
		}
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read %s", path).At(path, "")
	}
	return ParseBytes(data, path)
}

// ParseBytes decodes a description held in memory.
func ParseBytes(data []byte, filename string) (*tree.Root, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "invalid YAML").At(filename, "")
	}
	d := &decoder{file: filename}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New(errors.ErrCodeParse, "empty description").At(filename, "")
	}
	top, err := d.entries(doc.Content[0], "document")
	if err != nil {
		return nil, err
	}
	if len(top) != 1 || top[0].key != TopKey {
		return nil, d.errorf(doc.Content[0], "expected a single '%s' key", TopKey)
	}
	root, err := d.root(top[0].val)
	if err != nil {
		return nil, err
	}
	root.Filename = filename
	return root, nil
}

type entry struct {
	key  string
	node *yaml.Node
	val  *yaml.Node
}

// decoder walks the YAML node tree of one file.
type decoder struct {
	file string
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) *errors.Error {
	msg := fmt.Sprintf(format, args...)
	return errors.New(errors.ErrCodeParse, "line %d: %s", n.Line, msg).At(d.file, "")
}

// entries returns the key/value pairs of a mapping, rejecting duplicates.
func (d *decoder) entries(n *yaml.Node, what string) ([]entry, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "%s must be a mapping", what)
	}
	out := make([]entry, 0, len(n.Content)/2)
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, d.errorf(k, "non-scalar key in %s", what)
		}
		if seen[k.Value] {
			return nil, d.errorf(k, "duplicate key '%s' in %s", k.Value, what)
		}
		seen[k.Value] = true
		out = append(out, entry{key: k.Value, node: k, val: v})
	}
	return out, nil
}

func (d *decoder) str(e entry) (string, error) {
	if e.val.Kind != yaml.ScalarNode {
		return "", d.errorf(e.val, "'%s' must be a scalar", e.key)
	}
	return e.val.Value, nil
}

// number parses a non-negative integer written in decimal, 0x, 0o or 0b
// notation, with optional '_' separators.
func (d *decoder) number(e entry) (uint64, error) {
	s, err := d.str(e)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseUint(s, 0, 64)
	if perr != nil {
		return 0, d.errorf(e.val, "'%s' is not a valid integer: %q", e.key, s)
	}
	return v, nil
}

func (d *decoder) integer(e entry) (int, error) {
	s, err := d.str(e)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseInt(s, 0, 0)
	if perr != nil {
		return 0, d.errorf(e.val, "'%s' is not a valid integer: %q", e.key, s)
	}
	return int(v), nil
}

func (d *decoder) flag(e entry) (bool, error) {
	var b bool
	if err := e.val.Decode(&b); err != nil {
		return false, d.errorf(e.val, "'%s' must be a boolean", e.key)
	}
	return b, nil
}

func (d *decoder) address(e entry) (*uint64, error) {
	if e.val.Kind == yaml.ScalarNode && e.val.Value == AddressNext {
		return nil, nil
	}
	v, err := d.number(e)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// extension stores an x- key verbatim.
func (d *decoder) extension(el *tree.Element, e entry) error {
	var v any
	if err := e.val.Decode(&v); err != nil {
		return d.errorf(e.val, "invalid extension '%s': %v", e.key, err)
	}
	if el.Extensions == nil {
		el.Extensions = tree.Extensions{}
	}
	el.Extensions[e.key] = v
	return nil
}

// common decodes the keys every element accepts. It reports false for a
// key it does not know.
func (d *decoder) common(el *tree.Element, e entry) (bool, error) {
	var err error
	switch e.key {
	case "name":
		el.Name, err = d.str(e)
	case "description":
		el.Description, err = d.str(e)
	case "comment":
		el.Comment, err = d.str(e)
	case "address":
		el.Address, err = d.address(e)
	default:
		if strings.HasPrefix(e.key, extPrefix) {
			return true, d.extension(el, e)
		}
		return false, nil
	}
	return true, err
}

func (d *decoder) unknown(e entry, what string) error {
	return d.errorf(e.node, "unknown key '%s' in %s", e.key, what)
}

func (d *decoder) root(n *yaml.Node) (*tree.Root, error) {
	entries, err := d.entries(n, TopKey)
	if err != nil {
		return nil, err
	}
	r := &tree.Root{}
	for _, e := range entries {
		switch e.key {
		case "address":
			return nil, d.unknown(e, TopKey)
		case "bus":
			r.Bus, err = d.str(e)
		case "size":
			r.Size, err = d.optNumber(e)
		case "children":
			r.Children, err = d.children(e)
		default:
			var ok bool
			if ok, err = d.common(&r.Element, e); err == nil && !ok {
				err = d.unknown(e, TopKey)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (d *decoder) optNumber(e entry) (*uint64, error) {
	v, err := d.number(e)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *decoder) align(e entry) (*bool, error) {
	v, err := d.flag(e)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// children decodes a sequence of single-key mappings naming the kind of
// each child.
func (d *decoder) children(e entry) ([]tree.Node, error) {
	if e.val.Kind != yaml.SequenceNode {
		return nil, d.errorf(e.val, "'children' must be a sequence")
	}
	nodes := make([]tree.Node, 0, len(e.val.Content))
	for _, item := range e.val.Content {
		kv, err := d.entries(item, "child")
		if err != nil {
			return nil, err
		}
		if len(kv) != 1 {
			return nil, d.errorf(item, "a child must have exactly one kind key")
		}
		var n tree.Node
		switch kv[0].key {
		case "reg":
			n, err = d.reg(kv[0].val)
		case "block":
			n, err = d.block(kv[0].val)
		case "array":
			n, err = d.array(kv[0].val)
		case "submap":
			n, err = d.submap(kv[0].val)
		default:
			err = d.errorf(kv[0].node, "unknown child kind '%s'", kv[0].key)
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (d *decoder) reg(n *yaml.Node) (*tree.Reg, error) {
	entries, err := d.entries(n, "reg")
	if err != nil {
		return nil, err
	}
	r := &tree.Reg{}
	for _, e := range entries {
		switch e.key {
		case "width":
			var w int
			if w, err = d.integer(e); err == nil {
				r.Width = &w
			}
		case "access":
			var s string
			s, err = d.str(e)
			r.Access = tree.Access(s)
		case "type":
			r.Type, err = d.str(e)
		case "preset":
			r.Preset, err = d.optNumber(e)
		case "x-gena":
			r.Gena, err = d.gena(e)
			if err == nil {
				err = d.extension(&r.Element, e)
			}
		case "children":
			r.Fields, err = d.fields(e)
		default:
			var ok bool
			if ok, err = d.common(&r.Element, e); err == nil && !ok {
				err = d.unknown(e, "reg")
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// gena decodes the generator settings of a register.
func (d *decoder) gena(e entry) (*tree.Gena, error) {
	entries, err := d.entries(e.val, e.key)
	if err != nil {
		return nil, err
	}
	g := &tree.Gena{}
	for _, ge := range entries {
		switch ge.key {
		case "type":
			g.Type, err = d.str(ge)
		case "gen":
			g.Gen, err = d.gen(ge)
		}
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (d *decoder) gen(e entry) (tree.GenaGen, error) {
	var g tree.GenaGen
	entries, err := d.entries(e.val, "gen")
	if err != nil {
		return g, err
	}
	for _, ge := range entries {
		switch ge.key {
		case "srff":
			g.Srff, err = d.flag(ge)
		case "bus-out":
			g.BusOut, err = d.flag(ge)
		case "resize":
			var v int
			if v, err = d.integer(ge); err == nil {
				g.Resize = &v
			}
		}
		if err != nil {
			return g, err
		}
	}
	return g, nil
}

func (d *decoder) fields(e entry) ([]*tree.Field, error) {
	if e.val.Kind != yaml.SequenceNode {
		return nil, d.errorf(e.val, "'children' must be a sequence")
	}
	fields := make([]*tree.Field, 0, len(e.val.Content))
	for _, item := range e.val.Content {
		kv, err := d.entries(item, "child")
		if err != nil {
			return nil, err
		}
		if len(kv) != 1 || kv[0].key != "field" {
			return nil, d.errorf(item, "register children must be fields")
		}
		f, err := d.field(kv[0].val)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (d *decoder) field(n *yaml.Node) (*tree.Field, error) {
	entries, err := d.entries(n, "field")
	if err != nil {
		return nil, err
	}
	f := &tree.Field{}
	for _, e := range entries {
		switch e.key {
		case "name":
			f.Name, err = d.str(e)
		case "description":
			f.Description, err = d.str(e)
		case "comment":
			f.Comment, err = d.str(e)
		case "range":
			f.Lo, f.Hi, err = d.bitRange(e)
		case "preset":
			f.Preset, err = d.optNumber(e)
		default:
			if !strings.HasPrefix(e.key, extPrefix) {
				return nil, d.unknown(e, "field")
			}
			var v any
			if err = e.val.Decode(&v); err == nil {
				if f.Extensions == nil {
					f.Extensions = tree.Extensions{}
				}
				f.Extensions[e.key] = v
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// bitRange decodes "hi-lo" or a single bit index.
func (d *decoder) bitRange(e entry) (lo, hi *int, err error) {
	s, err := d.str(e)
	if err != nil {
		return nil, nil, err
	}
	hs, ls, ranged := strings.Cut(s, "-")
	if !ranged {
		v, perr := strconv.Atoi(strings.TrimSpace(s))
		if perr != nil {
			return nil, nil, d.errorf(e.val, "invalid range %q", s)
		}
		return &v, nil, nil
	}
	h, herr := strconv.Atoi(strings.TrimSpace(hs))
	l, lerr := strconv.Atoi(strings.TrimSpace(ls))
	if herr != nil || lerr != nil {
		return nil, nil, d.errorf(e.val, "invalid range %q", s)
	}
	return &l, &h, nil
}

func (d *decoder) block(n *yaml.Node) (*tree.Block, error) {
	entries, err := d.entries(n, "block")
	if err != nil {
		return nil, err
	}
	b := &tree.Block{}
	for _, e := range entries {
		switch e.key {
		case "size":
			b.Size, err = d.optNumber(e)
		case "align":
			b.Align, err = d.align(e)
		case "children":
			b.Children, err = d.children(e)
		default:
			var ok bool
			if ok, err = d.common(&b.Element, e); err == nil && !ok {
				err = d.unknown(e, "block")
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (d *decoder) array(n *yaml.Node) (*tree.Array, error) {
	entries, err := d.entries(n, "array")
	if err != nil {
		return nil, err
	}
	a := &tree.Array{}
	for _, e := range entries {
		switch e.key {
		case "size":
			a.Size, err = d.optNumber(e)
		case "align":
			a.Align, err = d.align(e)
		case "repeat":
			a.Repeat, err = d.optNumber(e)
		case "children":
			a.Children, err = d.children(e)
		default:
			var ok bool
			if ok, err = d.common(&a.Element, e); err == nil && !ok {
				err = d.unknown(e, "array")
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (d *decoder) submap(n *yaml.Node) (*tree.Submap, error) {
	entries, err := d.entries(n, "submap")
	if err != nil {
		return nil, err
	}
	s := &tree.Submap{}
	for _, e := range entries {
		switch e.key {
		case "size":
			s.Size, err = d.optNumber(e)
		case "align":
			s.Align, err = d.align(e)
		case "filename":
			s.Filename, err = d.str(e)
		case "interface":
			s.Interface, err = d.str(e)
		default:
			var ok bool
			if ok, err = d.common(&s.Element, e); err == nil && !ok {
				err = d.unknown(e, "submap")
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
