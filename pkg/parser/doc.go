// Package parser reads memory-map descriptions written in YAML into an
// unlaid-out [tree.Root].
//
// # Format
//
// A description has a single top-level "memory-map" key:
//
//	memory-map:
//	  name: top
//	  bus: wb-32-be
//	  children:
//	    - reg:
//	        name: ctrl
//	        width: 32
//	        access: rw
//	        children:
//	          - field: {name: enable, range: 0}
//	          - field: {name: mode, range: 7-4, preset: 0x3}
//	    - submap:
//	        name: dma
//	        filename: dma.cheby
//
// Children are single-key mappings naming their kind: reg, block, array or
// submap. Registers hold field children. Integers accept decimal, 0x, 0o and
// 0b notations with optional '_' separators, and "address: next" leaves the
// address to the layout engine.
//
// Keys starting with "x-" are extensions: they are kept verbatim on the
// node. The "x-gena" extension of a register is also decoded into
// [tree.Gena]. Any other unknown key is an error.
//
// # Errors
//
// Every failure is an *errors.Error with code PARSE_ERROR (or
// FILE_NOT_FOUND from [ParseFile]) naming the file and, when known, the
// line of the offending YAML node.
//
// # Layout
//
// The parser does not lay out the tree. [ParseFile] has the signature of a
// sub-map loader:
//
//	eng := layout.New(layout.LoaderFunc(parser.ParseFile))
package parser
