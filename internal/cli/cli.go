// Package cli implements the cheby command-line interface.
//
// The CLI lays out memory-map descriptions and exports the resolved trees.
// It is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - layout: lay out description files and write their resolved trees
//   - check: lay out description files without writing anything
//   - memmap: print the address table of a description
//   - version: print build information
//
// # Configuration
//
// Settings are read from --config, ./cheby.toml or the user configuration
// directory (see package config). Flags override the file.
//
// # Exit status
//
// 0 on success, 2 when at least one file failed to lay out (the other files
// are still processed), 1 for usage and configuration errors and 130 when
// interrupted.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chebytools/cheby/pkg/buildinfo"
	"github.com/chebytools/cheby/pkg/config"
	"github.com/chebytools/cheby/pkg/pipeline"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Exit codes returned through [ExitError].
const (
	ExitFailure    = 1
	ExitFileFailed = 2
)

// ExitError carries the process exit status of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cheby",
		Short: "Cheby lays out hardware memory maps",
		Long: `Cheby computes the address map of hardware register descriptions: it places
registers, blocks, arrays and sub-maps, checks alignment and overlaps, and
writes the resolved tree for code and documentation generators.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./"+config.FileName+")")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.memmapCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// loadConfig resolves the configuration file and applies its log level.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, path, err := config.Resolve(c.configPath)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	c.Config = cfg
	c.SetLogLevel(level)
	if path != "" {
		c.Logger.Debug("loaded config", "file", path)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// outputFlags are shared by the commands that lay out files.
type outputFlags struct {
	bus       string
	format    string
	outputDir string
	stdout    bool
}

func (f *outputFlags) register(cmd *cobra.Command, export bool) {
	cmd.Flags().StringVar(&f.bus, "bus", "", "bus for descriptions that declare none (default from config)")
	if !export {
		return
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: json, yaml (default from config)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "output directory (default: next to each input)")
	cmd.Flags().BoolVar(&f.stdout, "stdout", false, "write documents to standard output")
}

// options merges the flags over the loaded configuration.
func (c *CLI) options(f outputFlags, out io.Writer) (pipeline.Options, error) {
	opts := pipeline.Options{
		DefaultBus: c.Config.Layout.DefaultBus,
		Format:     c.Config.Output.Format,
		OutputDir:  c.Config.Output.Dir,
	}
	if f.bus != "" {
		opts.DefaultBus = f.bus
	}
	if f.format != "" {
		opts.Format = f.format
	}
	if f.outputDir != "" {
		opts.OutputDir = f.outputDir
	}
	if f.stdout {
		opts.Stdout = out
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(opts pipeline.Options) *pipeline.Runner {
	return pipeline.NewRunner(c.Logger, opts)
}
