package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/chebytools/cheby/pkg/buildinfo"
	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/tree"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatYAML}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %s (must be one of: %v)", format, Formats)
	}
	return nil
}

// Document is the serialized form of one laid-out description.
type Document struct {
	Generator string `json:"generator,omitempty" yaml:"generator,omitempty"`
	Name      string `json:"name" yaml:"name"`
	File      string `json:"file,omitempty" yaml:"file,omitempty"`
	Bus       string `json:"bus" yaml:"bus"`
	WordSize  uint64 `json:"word_size" yaml:"word_size"`
	Root      *Node  `json:"root" yaml:"root"`
}

// Node is one element with its resolved placement.
type Node struct {
	Kind        string          `json:"kind" yaml:"kind"`
	Name        string          `json:"name" yaml:"name"`
	Path        string          `json:"path" yaml:"path"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Comment     string          `json:"comment,omitempty" yaml:"comment,omitempty"`
	Address     uint64          `json:"address" yaml:"address"`
	AbsAddress  uint64          `json:"abs_address" yaml:"abs_address"`
	Size        uint64          `json:"size" yaml:"size"`
	Align       uint64          `json:"align" yaml:"align"`
	BlkBits     *int            `json:"blk_bits,omitempty" yaml:"blk_bits,omitempty"`
	SelBits     *int            `json:"sel_bits,omitempty" yaml:"sel_bits,omitempty"`
	Width       int             `json:"width,omitempty" yaml:"width,omitempty"`
	Repeat      uint64          `json:"repeat,omitempty" yaml:"repeat,omitempty"`
	Stride      uint64          `json:"stride,omitempty" yaml:"stride,omitempty"`
	Order       []string        `json:"address_order,omitempty" yaml:"address_order,omitempty"`
	Children    []*Node         `json:"children,omitempty" yaml:"children,omitempty"`
	Reg         *Reg            `json:"reg,omitempty" yaml:"reg,omitempty"`
	Submap      *Submap         `json:"submap,omitempty" yaml:"submap,omitempty"`
	Extensions  tree.Extensions `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// Reg holds the resolved encoding of a register.
type Reg struct {
	Width   int     `json:"width" yaml:"width"`
	Access  string  `json:"access" yaml:"access"`
	Type    string  `json:"type,omitempty" yaml:"type,omitempty"`
	Preset  *uint64 `json:"preset,omitempty" yaml:"preset,omitempty"`
	RWidth  int     `json:"rwidth" yaml:"rwidth"`
	IOWidth int     `json:"iowidth" yaml:"iowidth"`
	MWidth  int     `json:"mwidth" yaml:"mwidth"`
	NWords  int     `json:"nwords" yaml:"nwords"`
	Fields  []Field `json:"fields" yaml:"fields"`
}

// Field is one effective field of a register.
type Field struct {
	Name        string          `json:"name,omitempty" yaml:"name,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Lo          int             `json:"lo" yaml:"lo"`
	Hi          int             `json:"hi" yaml:"hi"`
	RWidth      int             `json:"rwidth" yaml:"rwidth"`
	IOWidth     int             `json:"iowidth" yaml:"iowidth"`
	Preset      *uint64         `json:"preset,omitempty" yaml:"preset,omitempty"`
	Implicit    bool            `json:"implicit,omitempty" yaml:"implicit,omitempty"`
	Extensions  tree.Extensions `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// Submap describes what a submap element resolved to.
type Submap struct {
	Interface string    `json:"interface,omitempty" yaml:"interface,omitempty"`
	Filename  string    `json:"filename,omitempty" yaml:"filename,omitempty"`
	Map       *Document `json:"map,omitempty" yaml:"map,omitempty"`
}

// Build converts a laid-out tree into its serialized form. root must have
// been laid out successfully.
func Build(root *tree.Root) *Document {
	return buildDoc(root, tree.RootPath(root), 0)
}

// buildDoc serializes a description whose root sits at path and absolute
// address base. Documents of included sub-maps use the path and address of
// the submap node, so every node reports its address in the top-level map.
func buildDoc(root *tree.Root, path string, base uint64) *Document {
	return &Document{
		Name:     root.Name,
		File:     root.Filename,
		Bus:      root.BusInfo.Name,
		WordSize: root.BusInfo.WordSize,
		Root:     build(path, root, base),
	}
}

// stamp records the generator version on a top-level document.
func stamp(doc *Document) *Document {
	doc.Generator = buildinfo.Short()
	return doc
}

func build(path string, n tree.Node, base uint64) *Node {
	e := n.Elem()
	abs := base + e.Layout.Address
	out := &Node{
		Kind:        n.Kind().String(),
		Name:        e.Name,
		Path:        path,
		Description: e.Description,
		Comment:     e.Comment,
		Address:     e.Layout.Address,
		AbsAddress:  abs,
		Size:        e.Layout.Size,
		Align:       e.Layout.Align,
		Extensions:  e.Extensions,
	}

	if c, ok := n.(tree.Composite); ok {
		g := c.Members()
		blk, sel := g.BlkBits, g.SelBits
		out.BlkBits, out.SelBits = &blk, &sel
		for _, s := range g.Sorted {
			out.Order = append(out.Order, s.Elem().Name)
		}
		for _, child := range g.Children {
			out.Children = append(out.Children, build(tree.JoinPath(path, child.Elem().Name), child, abs))
		}
	}

	switch n := n.(type) {
	case *tree.Block:
		out.Width = n.Width
	case *tree.Array:
		if n.Repeat != nil {
			out.Repeat = *n.Repeat
		}
		out.Stride = n.Stride
	case *tree.Submap:
		out.Width = n.Resolved.Width
		out.Submap = &Submap{Interface: n.Resolved.Interface, Filename: n.Filename}
		if m := n.Resolved.Map; m != nil {
			out.Submap.Map = buildDoc(m, path, abs)
		}
	case *tree.Reg:
		out.Reg = buildReg(n)
	}
	return out
}

func buildReg(r *tree.Reg) *Reg {
	enc := r.Encoding
	out := &Reg{
		Access:  string(r.Access),
		Type:    enc.Type,
		Preset:  r.Preset,
		RWidth:  enc.RWidth,
		IOWidth: enc.IOWidth,
		MWidth:  enc.MWidth,
		NWords:  enc.NWords,
	}
	if r.Width != nil {
		out.Width = *r.Width
	}
	for _, f := range r.EffectiveFields() {
		lo, hi := f.Range()
		out.Fields = append(out.Fields, Field{
			Name:        f.Name,
			Description: f.Description,
			Lo:          lo,
			Hi:          hi,
			RWidth:      f.Bits.RWidth,
			IOWidth:     f.Bits.IOWidth,
			Preset:      f.Preset,
			Implicit:    f.IsImplicit(),
			Extensions:  f.Extensions,
		})
	}
	return out
}

// Marshal encodes a laid-out tree in format.
func Marshal(root *tree.Root, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encode(&buf, stamp(Build(root)), format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a laid-out tree in format and writes it to w.
func Write(w io.Writer, root *tree.Root, format string) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}
	return encode(w, stamp(Build(root)), format)
}

// WriteFile writes a laid-out tree to a file at path.
// This is a convenience wrapper around [Write] for file-based output.
func WriteFile(root *tree.Root, path, format string) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, root, format)
}

func encode(w io.Writer, doc *Document, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
}
