package tree

import (
	"github.com/chebytools/cheby/pkg/bus"
)

// ByteSize is the number of bits in a byte.
const ByteSize = 8

// Kind identifies the concrete variant of a [Node].
type Kind int

const (
	KindRoot Kind = iota
	KindBlock
	KindArray
	KindSubmap
	KindReg
)

// String returns the lowercase name used in descriptions.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "memory-map"
	case KindBlock:
		return "block"
	case KindArray:
		return "array"
	case KindSubmap:
		return "submap"
	case KindReg:
		return "reg"
	}
	return "unknown"
}

// Node is any element that can be placed in a composite. The set of
// implementations is closed: [Root], [Block], [Array], [Submap] and [Reg].
type Node interface {
	// Elem returns the attributes shared by every variant.
	Elem() *Element
	// Kind returns the concrete variant.
	Kind() Kind

	sealed()
}

// Composite is implemented by nodes owning an ordered list of named
// children: [Root], [Block] and [Array].
type Composite interface {
	Node
	Members() *Group
}

// Extensions holds the x-* attributes of a node, verbatim.
type Extensions map[string]any

// Element carries the attributes common to all nodes.
type Element struct {
	Name        string
	Description string
	Comment     string

	// Address is the declared address relative to the parent.
	// Nil means "next": the engine picks the next aligned offset.
	Address *uint64

	Extensions Extensions

	// Layout is assigned by the layout engine.
	Layout Placement
}

// Placement holds the resolved position of a node.
type Placement struct {
	Address uint64 // Byte address relative to the parent composite
	Size    uint64 // Byte size
	Align   uint64 // Required alignment in bytes
}

// Group is the children list of a composite together with its resolved
// address decoding.
type Group struct {
	// Children in declaration order.
	Children []Node

	// Sorted holds the children ordered by resolved address.
	Sorted []Node
	// BlkBits is the number of address bits decoded inside one child.
	BlkBits int
	// SelBits is the number of address bits selecting a child.
	SelBits int
}

// Root is the top of one description file.
type Root struct {
	Element
	Group

	// Bus is the declared bus identifier; empty selects the default bus.
	Bus string
	// Size is the declared total size in bytes.
	Size *uint64
	// Filename is the file the description was read from. Sub-map
	// filenames are resolved relative to its directory.
	Filename string

	// BusInfo is assigned by the layout engine.
	BusInfo bus.Info
}

// Block is a named region, either with children or with a declared size.
type Block struct {
	Element
	Group

	Size  *uint64
	Align *bool // nil means aligned

	// Width is the data width in bits, assigned by the layout engine.
	Width int
}

// Array replicates its single template child Repeat times.
type Array struct {
	Element
	Group

	Size   *uint64
	Align  *bool // nil means aligned
	Repeat *uint64

	// Stride is the resolved byte distance between two elements.
	Stride uint64
}

// Template returns the single replicated child, or nil when the array
// does not have exactly one child.
func (a *Array) Template() Node {
	if len(a.Children) != 1 {
		return nil
	}
	return a.Children[0]
}

// Interface names understood by sub-maps.
const (
	// InterfaceInclude splices the sub-map verbatim into the parent bus.
	InterfaceInclude = "include"
)

// Submap is either a generic placeholder region or a reference to another
// description file.
type Submap struct {
	Element

	Size      *uint64
	Align     *bool // nil means aligned
	Filename  string
	Interface string

	// Resolved by the layout engine.
	Resolved SubmapInfo
}

// SubmapInfo holds the resolved attributes of a sub-map.
type SubmapInfo struct {
	// Interface is the bus interface of the region; empty when the sub-map
	// is included verbatim.
	Interface string
	// Map is the laid-out included description (file form only).
	Map *Root
	// Path is the absolute or working-directory relative file location.
	Path string
	// Width is the data width in bits.
	Width int
}

// IsGeneric reports whether the sub-map is a placeholder without a file.
func (s *Submap) IsGeneric() bool { return s.Filename == "" }

func (*Root) sealed()   {}
func (*Block) sealed()  {}
func (*Array) sealed()  {}
func (*Submap) sealed() {}
func (*Reg) sealed()    {}

func (n *Root) Elem() *Element   { return &n.Element }
func (n *Block) Elem() *Element  { return &n.Element }
func (n *Array) Elem() *Element  { return &n.Element }
func (n *Submap) Elem() *Element { return &n.Element }
func (n *Reg) Elem() *Element    { return &n.Element }

func (*Root) Kind() Kind   { return KindRoot }
func (*Block) Kind() Kind  { return KindBlock }
func (*Array) Kind() Kind  { return KindArray }
func (*Submap) Kind() Kind { return KindSubmap }
func (*Reg) Kind() Kind    { return KindReg }

func (n *Root) Members() *Group  { return &n.Group }
func (n *Block) Members() *Group { return &n.Group }
func (n *Array) Members() *Group { return &n.Group }
