// Package pkg holds the cheby libraries.
//
// A description file goes through these packages in order:
//
//	description file (YAML)
//	         ↓
//	    [parser] package (declared tree)
//	         ↓
//	    [layout] package (bus, addresses, sizes, field bits)
//	         ↓
//	    [export] package (JSON/YAML document)
//
// [tree] defines the node variants shared by all of them and [bus] the bus
// identifiers. [pipeline] runs the whole chain on batches of files and is
// what the CLI uses. [config], [errors], [observability] and [buildinfo]
// are the supporting packages.
//
// # Quick Start
//
//	root, err := parser.ParseFile("top.cheby")
//	if err != nil {
//	    return err
//	}
//	eng := layout.New(layout.LoaderFunc(parser.ParseFile))
//	if err := eng.Layout(ctx, root); err != nil {
//	    return err
//	}
//	return export.Write(os.Stdout, root, export.FormatJSON)
package pkg
