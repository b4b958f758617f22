// Package bus resolves a description's bus identifier into the word size
// and register alignment policy used by the layout engine.
//
// Two families are recognized:
//
//	wb-32-be                           32-bit big-endian word bus (the default)
//	cern-be-vme-[err-][split-]<8|16|32> VME bus with optional bus-error and
//	                                   split-access flags
//
// The default family aligns every register to its own size rounded up to a
// word. The VME family packs registers on a single word boundary whatever
// their size.
package bus

import (
	"strings"

	"github.com/chebytools/cheby/pkg/errors"
)

const (
	// Default is the bus used when a description does not name one.
	Default = "wb-32-be"

	// vmePrefix starts every identifier of the parameterized family.
	vmePrefix = "cern-be-vme-"
)

// Info is the resolved bus configuration.
type Info struct {
	Name      string // Identifier as resolved (Default when none was given)
	WordSize  uint64 // Word size in bytes: 1, 2 or 4
	BusErr    bool   // Bus-error reporting
	Split     bool   // Split read/write access
	AlignRegs bool   // Align registers to their word-rounded size
}

// WordBits returns the word size in bits.
func (i Info) WordBits() int { return int(i.WordSize) * 8 }

// Resolve parses a bus identifier. An empty name selects [Default].
func Resolve(name string) (Info, error) {
	if name == "" || name == Default {
		return Info{Name: Default, WordSize: 4, AlignRegs: true}, nil
	}
	if !strings.HasPrefix(name, vmePrefix) {
		return Info{}, unknown("unknown bus %q", name)
	}

	info := Info{Name: name}
	params := strings.Split(strings.TrimPrefix(name, vmePrefix), "-")
	if params[0] == "err" {
		info.BusErr = true
		params = params[1:]
	}
	if len(params) > 0 && params[0] == "split" {
		info.Split = true
		params = params[1:]
	}
	if len(params) != 1 {
		return Info{}, unknown("unknown bus %q", name)
	}
	switch params[0] {
	case "32":
		info.WordSize = 4
	case "16":
		info.WordSize = 2
	case "8":
		info.WordSize = 1
	default:
		return Info{}, unknown("unknown bus size %q", name)
	}
	return info, nil
}

// Validate checks that name is a recognized bus identifier.
func Validate(name string) error {
	_, err := Resolve(name)
	return err
}

func unknown(format string, args ...any) error {
	return errors.New(errors.ErrCodeUnknownBus, format, args...)
}
