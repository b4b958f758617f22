package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chebytools/cheby/pkg/pipeline"
)

// newLogger creates the CLI logger. Timestamps look like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// batchLog reports the end of a batch of description files.
type batchLog struct {
	logger *log.Logger
	start  time.Time
	inputs int
}

func newBatchLog(l *log.Logger, inputs int) *batchLog {
	return &batchLog{logger: l, start: time.Now(), inputs: inputs}
}

// done logs one line with the file counts of results, e.g.
// "check finished files=3/3 failed=1 elapsed=12ms". A batch cut short by an
// interrupt shows fewer files than inputs.
func (b *batchLog) done(verb string, results []pipeline.FileResult) {
	b.logger.Info(verb,
		"files", fmt.Sprintf("%d/%d", len(results), b.inputs),
		"failed", pipeline.Failed(results),
		"elapsed", time.Since(b.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
