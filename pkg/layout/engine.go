package layout

import (
	"context"
	stderrors "errors"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/chebytools/cheby/pkg/bus"
	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/tree"
)

// Loader reads and parses the description file at path into a fresh,
// unlaid-out tree. It is called by the engine for every file sub-map.
type Loader interface {
	Load(path string) (*tree.Root, error)
}

// LoaderFunc adapts a function to the [Loader] interface.
type LoaderFunc func(path string) (*tree.Root, error)

// Load calls f(path).
func (f LoaderFunc) Load(path string) (*tree.Root, error) { return f(path) }

// Engine lays out description trees. It holds no per-run state, so one
// Engine can lay out any number of trees.
type Engine struct {
	loader     Loader
	logger     *log.Logger
	defaultBus string
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger used to report sub-map loads.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDefaultBus sets the bus used by descriptions that do not declare
// one. The empty string keeps [bus.Default].
func WithDefaultBus(name string) Option {
	return func(e *Engine) { e.defaultBus = name }
}

// New creates an engine that loads sub-map files through loader. A nil
// loader makes every file sub-map fail.
func New(loader Loader, opts ...Option) *Engine {
	e := &Engine{
		loader: loader,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layout resolves the bus of root and lays out the whole tree, including
// every sub-map file it references. On error the tree must be discarded:
// resolved attributes may be partially assigned.
func (e *Engine) Layout(ctx context.Context, root *tree.Root) error {
	var chain []string
	if root.Filename != "" {
		chain = append(chain, fileKey(root.Filename))
	}
	return e.layoutFile(ctx, root, chain)
}

// layoutFile runs bus resolution and root layout on one description.
// chain lists the files currently being laid out, outermost first.
func (e *Engine) layoutFile(ctx context.Context, root *tree.Root, chain []string) error {
	name := root.Bus
	if name == "" {
		name = e.defaultBus
	}
	info, err := bus.Resolve(name)
	if err != nil {
		var be *errors.Error
		if stderrors.As(err, &be) {
			return be.At(root.Filename, tree.RootPath(root))
		}
		return err
	}
	root.BusInfo = info

	w := &walker{
		e:     e,
		ctx:   ctx,
		cfg:   config{wordSize: info.WordSize, wordBits: info.WordBits(), alignReg: info.AlignRegs},
		file:  root.Filename,
		chain: chain,
	}
	return w.root(root)
}

// config is fixed for one description once its bus is known.
type config struct {
	wordSize uint64
	wordBits int
	alignReg bool
}

// walker lays out the nodes of a single description file.
type walker struct {
	e     *Engine
	ctx   context.Context
	cfg   config
	file  string
	chain []string
}

func (w *walker) wordBits() int { return w.cfg.wordBits }

// tooLarge reports an element whose size or end address does not fit in
// 64 bits.
func (w *walker) tooLarge(path string) *errors.Error {
	return w.fail(path, errors.ErrCodeOverflow, errors.ReasonAddressOverflow,
		"%s does not fit in a 64-bit address space", path)
}

func (w *walker) fail(path string, code errors.Code, reason errors.Reason, format string, args ...any) *errors.Error {
	return errors.New(code, format, args...).WithReason(reason).At(w.file, path)
}

// visit dispatches n to the rule of its variant.
func (w *walker) visit(n tree.Node, path string) error {
	switch n := n.(type) {
	case *tree.Reg:
		return w.reg(n, path)
	case *tree.Block:
		return w.block(n, path)
	case *tree.Array:
		return w.array(n, path)
	case *tree.Submap:
		return w.submap(n, path)
	case *tree.Root:
		return w.fail(path, errors.ErrCodeInternal, "", "description root %s nested in another node", path)
	}
	return w.fail(path, errors.ErrCodeInternal, "", "unexpected node %T at %s", n, path)
}

func (w *walker) named(e *tree.Element, path string) error {
	if e.Name == "" {
		return w.fail(path, errors.ErrCodeMissingAttribute, errors.ReasonMissingName, "missing name for %s", path)
	}
	return nil
}

func fileKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
