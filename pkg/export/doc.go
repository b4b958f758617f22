// Package export serializes a laid-out description tree for downstream
// generators.
//
// The output is a [Document] holding the bus of the description and its
// root [Node]. Every node carries both its address relative to its parent
// and its absolute address, its size and alignment, and, for composites,
// the address decoding split and the names of its children in address
// order. Registers list their effective fields, including the implicit
// field of a register declared without fields. Sub-maps loaded from a file
// embed the document of that file; its nodes keep their paths and absolute
// addresses in the including map.
//
// Two formats are supported, [FormatJSON] and [FormatYAML]:
//
//	if err := export.Write(os.Stdout, root, export.FormatYAML); err != nil {
//	    return err
//	}
//
// Only trees that were laid out without error may be exported.
package export
