package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chebytools/cheby/pkg/pipeline"
)

// layoutCommand creates the layout command for laying out and exporting files.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags outputFlags

	cmd := &cobra.Command{
		Use:   "layout FILE...",
		Short: "Lay out description files and write the resolved trees",
		Long: `Lay out description files and write the resolved trees.

Each file is parsed, its sub-maps are loaded and every element is placed.
The resolved tree is written to <name>.layout.json (or .yaml) next to the
input, or into --output-dir. With --stdout the documents are written to
standard output and status goes to standard error.

A file that fails does not stop the others; the exit status is 2 if any
file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			status := cmd.OutOrStdout()
			if flags.stdout {
				status = cmd.ErrOrStderr()
			}
			return c.runBatch(cmd.Context(), status, opts, args)
		},
	}

	flags.register(cmd, true)
	return cmd
}

// checkCommand creates the check command, which only validates files.
func (c *CLI) checkCommand() *cobra.Command {
	var flags outputFlags

	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Check description files without writing anything",
		Long: `Check description files without writing anything.

Every file is laid out exactly as by 'cheby layout' and the first error of
each file is reported. The exit status is 2 if any file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(flags, nil)
			if err != nil {
				return err
			}
			opts.CheckOnly = true
			return c.runBatch(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	flags.register(cmd, false)
	return cmd
}

// runBatch processes every input and reports each file on w.
func (c *CLI) runBatch(ctx context.Context, w io.Writer, opts pipeline.Options, inputs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	verb := "layout finished"
	if opts.CheckOnly {
		verb = "check finished"
	}
	batch := newBatchLog(loggerFromContext(ctx), len(inputs))
	results, err := c.newRunner(opts).Batch(ctx, inputs)
	for _, fr := range results {
		printResult(w, fr)
	}
	batch.done(verb, results)
	if err != nil {
		printWarning(w, "interrupted after %d of %d files", len(results), len(inputs))
		return err
	}

	failed := pipeline.Failed(results)

	if failed > 0 {
		return &ExitError{
			Code: ExitFileFailed,
			Err:  fmt.Errorf("%d of %d file(s) failed", failed, len(results)),
		}
	}
	return nil
}
