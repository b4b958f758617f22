package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chebytools/cheby/pkg/export"
	"github.com/chebytools/cheby/pkg/layout"
	"github.com/chebytools/cheby/pkg/observability"
	"github.com/chebytools/cheby/pkg/parser"
)

// Runner lays out and exports description files.
//
// The Runner holds no per-file state: every file gets a fresh tree, so
// nothing leaks from one file of a batch into the next.
type Runner struct {
	Logger  *log.Logger
	Options Options

	engine *layout.Engine
}

// NewRunner creates a runner. Options are expected to be validated with
// [Options.ValidateAndSetDefaults]; an empty Format still falls back to
// JSON. A nil logger uses log.Default().
func NewRunner(logger *log.Logger, opts Options) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Format == "" {
		opts.Format = export.FormatJSON
	}
	return &Runner{
		Logger:  logger,
		Options: opts,
		engine: layout.New(
			layout.LoaderFunc(parser.ParseFile),
			layout.WithLogger(logger),
			layout.WithDefaultBus(opts.DefaultBus),
		),
	}
}

// LayoutFile parses and lays out the description at path.
func (r *Runner) LayoutFile(ctx context.Context, path string) (res *Result, err error) {
	hooks := observability.Layout()
	hooks.OnFileStart(ctx, path)
	start := time.Now()
	defer func() {
		hooks.OnFileComplete(ctx, path, time.Since(start), err)
	}()

	root, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := r.engine.Layout(ctx, root); err != nil {
		return nil, err
	}

	stats := count(root)
	stats.Elapsed = time.Since(start)
	r.Logger.Info("laid out",
		"file", path,
		"registers", stats.Registers,
		"fields", stats.Fields,
		"submaps", stats.Submaps,
		"duration", stats.Elapsed)
	return &Result{Root: root, Stats: stats}, nil
}

// Export writes the document of res for the input file. It returns the
// written path, or "-" when writing to Options.Stdout.
func (r *Runner) Export(ctx context.Context, input string, res *Result) (out string, err error) {
	format := r.Options.Format
	data, err := export.Marshal(res.Root, format)
	defer func() {
		observability.Export().OnExport(ctx, format, len(data), err)
	}()
	if err != nil {
		return "", err
	}

	if r.Options.Stdout != nil {
		if _, err := r.Options.Stdout.Write(data); err != nil {
			return "", fmt.Errorf("write output: %w", err)
		}
		return "-", nil
	}

	out = r.OutputPath(input)
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	r.Logger.Debug("wrote output", "file", out, "bytes", len(data))
	return out, nil
}

// OutputPath returns where the document of input is written.
func (r *Runner) OutputPath(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	dir := r.Options.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base+OutputSuffix+"."+r.Options.Format)
}

// Process lays out one file and exports it unless Options.CheckOnly is set.
func (r *Runner) Process(ctx context.Context, input string) FileResult {
	fr := FileResult{Input: input}
	fr.Result, fr.Err = r.LayoutFile(ctx, input)
	if fr.Err != nil || r.Options.CheckOnly {
		return fr
	}
	fr.Output, fr.Err = r.Export(ctx, input, fr.Result)
	return fr
}

// Batch processes every input in order. A failed file does not stop the
// batch; only cancellation of ctx does, in which case the results so far
// are returned along with ctx.Err().
func (r *Runner) Batch(ctx context.Context, inputs []string) ([]FileResult, error) {
	results := make([]FileResult, 0, len(inputs))
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		fr := r.Process(ctx, input)
		if fr.Err != nil {
			r.Logger.Debug("file failed", "file", input, "error", fr.Err)
		}
		results = append(results, fr)
	}
	return results, nil
}
