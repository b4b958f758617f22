// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about description parsing, layout and export.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the layout engine
// never imports an observability backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnFileStart(ctx, file)
//	// ... lay out ...
//	observability.Layout().OnFileComplete(ctx, file, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout of description files.
type LayoutHooks interface {
	// OnFileStart records the start of the layout of a top-level file.
	OnFileStart(ctx context.Context, file string)

	// OnFileComplete records the outcome of a top-level file.
	OnFileComplete(ctx context.Context, file string, duration time.Duration, err error)

	// OnSubmapLoad records that a sub-map file is about to be read.
	// node is the path of the submap element that references it.
	OnSubmapLoad(ctx context.Context, file, node string)
}

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events from writing laid-out trees.
type ExportHooks interface {
	// OnExport records a written layout document.
	OnExport(ctx context.Context, format string, size int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnFileStart(context.Context, string)                          {}
func (NoopLayoutHooks) OnFileComplete(context.Context, string, time.Duration, error) {}
func (NoopLayoutHooks) OnSubmapLoad(context.Context, string, string)                 {}

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExport(context.Context, string, int, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	exportHooks ExportHooks = NoopExportHooks{}
	hooksMu     sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetExportHooks registers custom export hooks.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	exportHooks = NoopExportHooks{}
}
