package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chebytools/cheby/pkg/errors"
	"github.com/chebytools/cheby/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleLocation    = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Layout Results
// =============================================================================

// statsLine formats the element counts of a laid-out file on one line.
func statsLine(s pipeline.Stats) string {
	var parts []string
	add := func(n int, what string) {
		if n == 0 {
			return
		}
		if n > 1 {
			what += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, what))
	}
	add(s.Registers, "register")
	add(s.Fields, "field")
	add(s.Blocks, "block")
	add(s.Arrays, "array")
	add(s.Submaps, "submap")
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, " · ")
}

// printResult prints the outcome of one file of a batch.
func printResult(w io.Writer, fr pipeline.FileResult) {
	if fr.Err != nil {
		printFailure(w, fr.Input, fr.Err)
		return
	}
	printSuccess(w, "%s", fr.Input)
	if fr.Output != "" && fr.Output != "-" {
		printFile(w, fr.Output)
	}
	printDetail(w, "%s", statsLine(fr.Result.Stats))
}

// printFailure prints a failed file with the location of the error. A
// failure inside a sub-map names the sub-map file.
func printFailure(w io.Writer, input string, err error) {
	printError(w, "%s", input)
	var details []string
	if o := errors.Origin(err); o != nil {
		loc := o.File
		if o.Path != "" {
			loc += ": " + o.Path
		}
		fmt.Fprintln(w, "  "+styleLocation.Render(loc))
		details = o.Details
	}
	fmt.Fprintln(w, "  "+errors.UserMessage(err))
	for _, d := range details {
		printDetail(w, "%s", d)
	}
}
