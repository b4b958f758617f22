// Package tree defines the nodes of a memory-map description.
//
// A description is a tree rooted at a [Root]. Composites ([Root], [Block],
// [Array]) own an ordered list of uniquely named children; leaves are
// registers ([Reg]), leaf blocks and sub-maps ([Submap]). Registers own
// their [Field] list directly.
//
// # Declared and resolved attributes
//
// Every node carries two kinds of attributes:
//
//   - Declared attributes come from the description (Name, Width, Address,
//     Size, ...). Optional ones are pointers; nil means "not given". The
//     parser fills them and nothing modifies them afterwards.
//   - Resolved attributes are written by the layout engine
//     (Element.Layout, Group.Sorted, Reg.Encoding, Field.Bits, ...). They
//     are meaningless until the engine has completed successfully.
//
// Nodes hold no reference to their parent. Paths are computed while
// walking down the tree, see [Walk] and [JoinPath].
//
// # Fields of registers without fields
//
// A register declared with only a width has no explicit fields. The layout
// engine synthesizes a single full-width field for it, reachable through
// [Reg.EffectiveFields]; [Reg.Fields] keeps exactly what was parsed.
package tree
