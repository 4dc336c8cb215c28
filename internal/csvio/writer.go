package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/terminal-bench/paymentsengine/internal/ledger"
)

var outputHeader = []string{"client", "available", "held", "total", "locked"}

// Writer encodes account snapshots as CSV rows
type Writer struct {
	csv *csv.Writer
	row []string
}

// NewWriter creates a Writer on w
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		csv: csv.NewWriter(w),
		row: make([]string, len(outputHeader)),
	}
}

// WriteHeader writes the column names
func (w *Writer) WriteHeader() error {
	if err := w.csv.Write(outputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Write writes one account row
func (w *Writer) Write(s ledger.AccountSnapshot) error {
	w.row[0] = strconv.FormatUint(uint64(s.Client), 10)
	w.row[1] = s.Available.String()
	w.row[2] = s.Held.String()
	w.row[3] = s.Total.String()
	w.row[4] = strconv.FormatBool(s.Locked)

	if err := w.csv.Write(w.row); err != nil {
		return fmt.Errorf("write client %d: %w", s.Client, err)
	}
	return nil
}

// Flush writes any buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
