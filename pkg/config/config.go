// Package config loads the cheby configuration file.
//
// The file is TOML:
//
//	log_level = "info"
//
//	[layout]
//	default_bus = "wb-32-be"
//
//	[output]
//	format = "json"
//	dir = "build/layout"
//
// [Find] looks for the file in the working directory, then in the user
// configuration directory. A missing file is not an error: [Default] is
// used instead.
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/chebytools/cheby/pkg/bus"
	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/export"
)

const (
	// FileName is the name of the configuration file in the working directory.
	FileName = "cheby.toml"

	appName = "cheby"
)

// Log levels accepted by log_level.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config is the decoded configuration file.
type Config struct {
	LogLevel string `toml:"log_level"`
	Layout   Layout `toml:"layout"`
	Output   Output `toml:"output"`
}

// Layout configures the layout engine.
type Layout struct {
	// DefaultBus is used by descriptions that do not declare a bus.
	DefaultBus string `toml:"default_bus"`
}

// Output configures where and how laid-out trees are written.
type Output struct {
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel: "info",
		Layout:   Layout{DefaultBus: bus.Default},
		Output:   Output{Format: export.FormatJSON},
	}
}

// Load decodes the file at path over [Default] and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidInput, "unknown key %q in config %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks the values of c.
func (c Config) Validate() error {
	if !slices.Contains(LogLevels, c.LogLevel) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid log_level: %s (must be one of: %v)", c.LogLevel, LogLevels)
	}
	if err := bus.Validate(c.Layout.DefaultBus); err != nil {
		return err
	}
	return export.ValidateFormat(c.Output.Format)
}

// Find returns the configuration file to use. An explicit path always
// wins; otherwise the first existing file of [SearchPaths] is returned.
// The empty string means no file was found.
func Find(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range SearchPaths() {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// SearchPaths lists the candidate configuration files in lookup order.
func SearchPaths() []string {
	paths := []string{FileName}
	if dir, err := userConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName, "config.toml"))
	}
	return paths
}

// userConfigDir follows the XDG convention (~/.config).
func userConfigDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

// Resolve finds and loads the configuration. With no file, it returns
// [Default].
func Resolve(explicit string) (Config, string, error) {
	path := Find(explicit)
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}
