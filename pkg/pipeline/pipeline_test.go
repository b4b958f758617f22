package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/export"
	"github.com/chebytools/cheby/pkg/observability"
)

const topFile = `
memory-map:
  name: top
  children:
    - reg:
        name: ctrl
        width: 32
        access: rw
        children:
          - field: {name: mode, range: 3-0}
    - submap:
        name: sub
        filename: sub.cheby
`

const subFile = `
memory-map:
  name: sub
  bus: wb-32-be
  children:
    - reg: {name: a, width: 32, access: ro}
    - reg: {name: b, width: 32, access: rw}
`

const badFile = `
memory-map:
  name: bad
  children:
    - reg: {name: nowidth, access: rw}
`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"zero", Options{}, false},
		{"yaml", Options{Format: "yaml"}, false},
		{"vme bus", Options{DefaultBus: "cern-be-vme-32"}, false},
		{"bad format", Options{Format: "svg"}, true},
		{"bad bus", Options{DefaultBus: "pcie"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && opts.Format == "" {
				t.Error("format not defaulted")
			}
		})
	}
}

func TestLayoutFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"top.cheby": topFile, "sub.cheby": subFile})
	r := NewRunner(quietLogger(), Options{})

	res, err := r.LayoutFile(context.Background(), filepath.Join(dir, "top.cheby"))
	if err != nil {
		t.Fatalf("LayoutFile: %v", err)
	}
	if res.Root.Layout.Size != 16 {
		t.Errorf("root size = %d, want 16", res.Root.Layout.Size)
	}
	want := Stats{Registers: 3, Fields: 3, Submaps: 1}
	got := res.Stats
	got.Elapsed = 0
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestLayoutFileErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.cheby": badFile, "top.cheby": topFile})
	r := NewRunner(quietLogger(), Options{})

	tests := []struct {
		name string
		file string
		code errors.Code
	}{
		{"missing input", "none.cheby", errors.ErrCodeFileNotFound},
		{"layout error", "bad.cheby", errors.ErrCodeMissingAttribute},
		{"missing submap", "top.cheby", errors.ErrCodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.LayoutFile(context.Background(), filepath.Join(dir, tt.file))
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		opts  Options
		input string
		want  string
	}{
		{Options{Format: "json"}, "maps/top.cheby", "maps/top.layout.json"},
		{Options{Format: "yaml"}, "top.yaml", "top.layout.yaml"},
		{Options{Format: "json", OutputDir: "out"}, "maps/top.cheby", "out/top.layout.json"},
		{Options{}, "noext", "noext.layout.json"},
	}

	for _, tt := range tests {
		r := NewRunner(quietLogger(), tt.opts)
		if got := r.OutputPath(tt.input); got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"top.cheby": topFile,
		"sub.cheby": subFile,
		"bad.cheby": badFile,
	})
	out := filepath.Join(t.TempDir(), "gen")
	r := NewRunner(quietLogger(), Options{OutputDir: out})

	inputs := []string{
		filepath.Join(dir, "bad.cheby"),
		filepath.Join(dir, "top.cheby"),
	}
	results, err := r.Batch(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(results) != 2 || Failed(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Err == nil || results[0].Output != "" {
		t.Errorf("bad file = %+v", results[0])
	}

	good := results[1]
	if good.Err != nil {
		t.Fatalf("top failed: %v", good.Err)
	}
	if good.Output != filepath.Join(out, "top.layout.json") {
		t.Errorf("output = %q", good.Output)
	}
	data, err := os.ReadFile(good.Output)
	if err != nil {
		t.Fatal(err)
	}
	var doc export.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if doc.Name != "top" || len(doc.Root.Children) != 2 {
		t.Errorf("document = %+v", doc)
	}
}

func TestBatchCheckOnly(t *testing.T) {
	dir := writeFiles(t, map[string]string{"sub.cheby": subFile})
	r := NewRunner(quietLogger(), Options{CheckOnly: true})

	results, err := r.Batch(context.Background(), []string{filepath.Join(dir, "sub.cheby")})
	if err != nil || Failed(results) != 0 {
		t.Fatalf("Batch = %+v, %v", results, err)
	}
	if results[0].Output != "" {
		t.Errorf("check wrote %q", results[0].Output)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub.layout.json")); !os.IsNotExist(err) {
		t.Errorf("output file exists: %v", err)
	}
}

func TestBatchStdout(t *testing.T) {
	dir := writeFiles(t, map[string]string{"sub.cheby": subFile})
	var buf bytes.Buffer
	r := NewRunner(quietLogger(), Options{Format: export.FormatYAML, Stdout: &buf})

	results, err := r.Batch(context.Background(), []string{filepath.Join(dir, "sub.cheby")})
	if err != nil || Failed(results) != 0 {
		t.Fatalf("Batch = %+v, %v", results, err)
	}
	if results[0].Output != "-" {
		t.Errorf("output = %q, want -", results[0].Output)
	}
	if !strings.Contains(buf.String(), "name: sub") {
		t.Errorf("stdout = %s", buf.String())
	}
}

func TestBatchCanceled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"sub.cheby": subFile})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(quietLogger(), Options{CheckOnly: true})
	results, err := r.Batch(ctx, []string{filepath.Join(dir, "sub.cheby")})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v", results)
	}
}

type recorder struct {
	observability.NoopLayoutHooks
	started   []string
	completed map[string]error
	exports   []string
}

func (r *recorder) OnFileStart(_ context.Context, file string) {
	r.started = append(r.started, filepath.Base(file))
}

func (r *recorder) OnFileComplete(_ context.Context, file string, _ time.Duration, err error) {
	r.completed[filepath.Base(file)] = err
}

func (r *recorder) OnExport(_ context.Context, format string, size int, err error) {
	if err == nil && size > 0 {
		r.exports = append(r.exports, format)
	}
}

func TestHooks(t *testing.T) {
	rec := &recorder{completed: map[string]error{}}
	observability.SetLayoutHooks(rec)
	observability.SetExportHooks(rec)
	t.Cleanup(observability.Reset)

	dir := writeFiles(t, map[string]string{"sub.cheby": subFile, "bad.cheby": badFile})
	r := NewRunner(quietLogger(), Options{Stdout: io.Discard})
	_, err := r.Batch(context.Background(), []string{
		filepath.Join(dir, "sub.cheby"),
		filepath.Join(dir, "bad.cheby"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(rec.started, ",") != "sub.cheby,bad.cheby" {
		t.Errorf("started = %v", rec.started)
	}
	if rec.completed["sub.cheby"] != nil || rec.completed["bad.cheby"] == nil {
		t.Errorf("completed = %v", rec.completed)
	}
	if len(rec.exports) != 1 || rec.exports[0] != "json" {
		t.Errorf("exports = %v", rec.exports)
	}
}
