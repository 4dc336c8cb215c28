package export

import (
	"context"
	"io"

	"github.com/terminal-bench/paymentsengine/internal/csvio"
)

// CSVSink writes the account table to w
type CSVSink struct {
	w io.Writer
}

var _ Sink = (*CSVSink)(nil)

// NewCSVSink returns a sink writing to w
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

// Name implements Sink
func (s *CSVSink) Name() string { return "csv" }

// Export writes the header followed by one row per account
func (s *CSVSink) Export(ctx context.Context, run Run) error {
	w := csvio.NewWriter(s.w)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, acc := range run.Accounts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Write(acc); err != nil {
			return err
		}
	}
	return w.Flush()
}
