// Package pipeline runs the cheby layout pipeline on description files.
//
// For every file the pipeline parses the description, resolves its bus,
// lays out the tree (loading every sub-map it references) and, unless only
// checking, exports the resolved tree. The CLI and tests share this code so
// that every entry point behaves the same way.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger, pipeline.Options{
//	    Format:    export.FormatYAML,
//	    OutputDir: "build/layout",
//	})
//	results, err := runner.Batch(ctx, files)
//	if err != nil {
//	    return err // interrupted
//	}
//	if n := pipeline.Failed(results); n > 0 {
//	    return fmt.Errorf("%d file(s) failed", n)
//	}
//
// A failure in one file never stops the batch: the error is recorded in the
// [FileResult] of that file and the next file is processed.
package pipeline

import (
	"io"
	"time"

	"github.com/chebytools/cheby/pkg/bus"
	"github.com/chebytools/cheby/pkg/export"
	"github.com/chebytools/cheby/pkg/tree"
)

// OutputSuffix is inserted between the input name and the format
// extension of written files: top.cheby becomes top.layout.json.
const OutputSuffix = ".layout"

// Options configures a [Runner].
type Options struct {
	// DefaultBus is used by descriptions that do not declare a bus.
	DefaultBus string

	// Format is the export format. Empty means [export.FormatJSON].
	Format string

	// OutputDir receives the exported files. Empty means next to the input.
	OutputDir string

	// Stdout, when set, receives the exported documents instead of files.
	Stdout io.Writer

	// CheckOnly lays out files without exporting them.
	CheckOnly bool
}

// ValidateAndSetDefaults fills in defaults and checks the options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Format == "" {
		o.Format = export.FormatJSON
	}
	if err := export.ValidateFormat(o.Format); err != nil {
		return err
	}
	return bus.Validate(o.DefaultBus)
}

// Result is a successfully laid-out description.
type Result struct {
	// Root is the laid-out tree. Sub-maps loaded from files hang off it.
	Root *tree.Root

	Stats Stats
}

// Stats counts the elements of a laid-out tree, sub-maps included.
type Stats struct {
	Registers int
	Fields    int
	Blocks    int
	Arrays    int
	Submaps   int
	Elapsed   time.Duration
}

// FileResult is the outcome of one file of a batch.
type FileResult struct {
	Input string

	// Output is the written file, "-" for standard output, or empty when
	// nothing was written.
	Output string

	Result *Result
	Err    error
}

// Failed returns the number of files of a batch that failed.
func Failed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func count(root *tree.Root) Stats {
	var s Stats
	_ = tree.Walk(root, func(_ string, n tree.Node, _ uint64) error {
		switch n := n.(type) {
		case *tree.Reg:
			s.Registers++
			s.Fields += len(n.EffectiveFields())
		case *tree.Block:
			s.Blocks++
		case *tree.Array:
			s.Arrays++
		case *tree.Submap:
			s.Submaps++
		}
		return nil
	})
	return s
}
