package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/terminal-bench/paymentsengine/internal/ledger"
	"github.com/terminal-bench/paymentsengine/internal/processor"
	"github.com/terminal-bench/paymentsengine/pkg/decimal"
)

var (
	ErrInvalidHeader    = errors.New("invalid header")
	ErrUnknownType      = errors.New("unknown transaction type")
	ErrMissingField     = errors.New("missing field")
	ErrInvalidClient    = errors.New("invalid client id")
	ErrInvalidTx        = errors.New("invalid transaction id")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrMissingAmount    = errors.New("amount is required for this type")
	ErrUnexpectedAmount = errors.New("amount is not allowed for this type")
	ErrWrongArity       = errors.New("record has more fields than the header")
)

// RecordError reports a single malformed input record. The reader can keep
// going after one.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// Reader decodes transaction records from CSV with a header row
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
	width   int
}

// NewReader reads and validates the header row of r
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colType, colClient, colTx} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidHeader, required)
		}
	}

	return &Reader{csv: cr, columns: columns, width: len(header)}, nil
}

// Next returns the next transaction. It returns io.EOF at the end of input,
// a *RecordError for a malformed record, and any other error for I/O failures.
func (r *Reader) Next() (processor.Transaction, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return processor.Transaction{}, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return processor.Transaction{}, &RecordError{Line: parseErr.Line, Err: parseErr.Err}
		}
		return processor.Transaction{}, fmt.Errorf("read record: %w", err)
	}

	line, _ := r.csv.FieldPos(0)
	if len(record) > r.width {
		return processor.Transaction{}, &RecordError{
			Line: line,
			Err:  fmt.Errorf("%w: got %d, want at most %d", ErrWrongArity, len(record), r.width),
		}
	}
	tx, err := r.decode(record)
	if err != nil {
		return processor.Transaction{}, &RecordError{Line: line, Err: err}
	}
	return tx, nil
}

func (r *Reader) field(record []string, name string) (string, bool) {
	i, ok := r.columns[name]
	if !ok || i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}

func (r *Reader) decode(record []string) (processor.Transaction, error) {
	var tx processor.Transaction

	typ, ok := r.field(record, colType)
	if !ok || typ == "" {
		return tx, fmt.Errorf("%w: %s", ErrMissingField, colType)
	}
	kind, err := processor.ParseKind(typ)
	if err != nil {
		return tx, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	tx.Kind = kind

	client, ok := r.field(record, colClient)
	if !ok || client == "" {
		return tx, fmt.Errorf("%w: %s", ErrMissingField, colClient)
	}
	clientID, err := strconv.ParseUint(client, 10, 16)
	if err != nil {
		return tx, fmt.Errorf("%w: %q", ErrInvalidClient, client)
	}
	tx.Client = ledger.ClientID(clientID)

	txField, ok := r.field(record, colTx)
	if !ok || txField == "" {
		return tx, fmt.Errorf("%w: %s", ErrMissingField, colTx)
	}
	txID, err := strconv.ParseUint(txField, 10, 32)
	if err != nil {
		return tx, fmt.Errorf("%w: %q", ErrInvalidTx, txField)
	}
	tx.Tx = ledger.TxID(txID)

	amount, _ := r.field(record, colAmount)
	switch {
	case kind.CarriesAmount() && amount == "":
		return tx, fmt.Errorf("%w: %s", ErrMissingAmount, kind)
	case !kind.CarriesAmount() && amount != "":
		return tx, fmt.Errorf("%w: %s", ErrUnexpectedAmount, kind)
	case amount != "":
		a, err := decimal.Parse(amount)
		if err != nil {
			return tx, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
		}
		tx.Amount = a
		tx.HasAmount = true
	}

	return tx, nil
}
