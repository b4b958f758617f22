package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/chebytools/cheby/pkg/pipeline"
	"github.com/chebytools/cheby/pkg/tree"
)

// memmapCommand creates the memmap command, which prints an address table.
func (c *CLI) memmapCommand() *cobra.Command {
	var (
		flags  outputFlags
		fields bool
	)

	cmd := &cobra.Command{
		Use:   "memmap FILE",
		Short: "Print the address table of a description",
		Long: `Print the address table of a description.

The file is laid out and every element is listed with its absolute address
range, size and kind, in declaration order. Sub-maps loaded from files are
expanded. With --fields the bit fields of each register are listed too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(flags, nil)
			if err != nil {
				return err
			}
			opts.CheckOnly = true
			return c.runMemmap(cmd.Context(), cmd.OutOrStdout(), opts, args[0], fields)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().BoolVar(&fields, "fields", false, "list register fields")
	return cmd
}

// runMemmap lays out input and prints its address table on w.
func (c *CLI) runMemmap(ctx context.Context, w io.Writer, opts pipeline.Options, input string, fields bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := c.newRunner(opts).LayoutFile(ctx, input)
	if err != nil {
		printFailure(w, input, err)
		return &ExitError{Code: ExitFileFailed, Err: fmt.Errorf("%s failed", input)}
	}

	root := res.Root
	fmt.Fprintln(w, StyleTitle.Render(root.Name)+" "+
		StyleDim.Render(fmt.Sprintf("%s · 0x%x bytes", root.BusInfo.Name, root.Layout.Size)))
	fmt.Fprintln(w, renderMemmap(memmapRows(root, fields), fields))
	return nil
}

// memmapRows lists every element of a laid-out tree in declaration order.
// Columns are start, end, size, kind and path, plus the bit range when
// fields are listed. The root itself is not listed.
func memmapRows(root *tree.Root, fields bool) [][]string {
	var rows [][]string
	_ = tree.Walk(root, func(path string, n tree.Node, abs uint64) error {
		if _, ok := n.(*tree.Root); ok {
			return nil
		}
		size := n.Elem().Layout.Size
		end := "-"
		if size > 0 {
			end = fmt.Sprintf("0x%08x", abs+size-1)
		}
		row := []string{fmt.Sprintf("0x%08x", abs), end, fmt.Sprintf("0x%x", size), n.Kind().String(), path}
		if fields {
			row = append(row, "")
		}
		rows = append(rows, row)

		r, ok := n.(*tree.Reg)
		if !fields || !ok {
			return nil
		}
		for _, f := range r.Fields {
			lo, hi := f.Range()
			bits := fmt.Sprint(lo)
			if hi != lo {
				bits = fmt.Sprintf("%d:%d", hi, lo)
			}
			rows = append(rows, []string{"", "", "", "field", tree.JoinPath(path, f.Name), bits})
		}
		return nil
	})
	return rows
}

func renderMemmap(rows [][]string, fields bool) string {
	headers := []string{"Start", "End", "Size", "Kind", "Path"}
	if fields {
		headers = append(headers, "Bits")
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			switch {
			case col <= 2:
				return cell.Foreground(colorCyan)
			case row >= 0 && row < len(rows) && rows[row][3] == "field":
				return cell.Foreground(colorDim)
			}
			return cell
		})
	return t.Render()
}
