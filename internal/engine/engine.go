package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/terminal-bench/paymentsengine/internal/csvio"
	"github.com/terminal-bench/paymentsengine/internal/ledger"
	"github.com/terminal-bench/paymentsengine/internal/processor"
)

// Source yields transactions in arrival order. Next returns io.EOF at the end
// of input and a *csvio.RecordError for a record that could not be decoded.
type Source interface {
	Next() (processor.Transaction, error)
}

// MalformedPolicy decides what happens to records the Source cannot decode
type MalformedPolicy int

const (
	// PolicySkip logs the record and continues with the next one.
	PolicySkip MalformedPolicy = iota
	// PolicyAbort stops the run on the first malformed record.
	PolicyAbort
)

// ParsePolicy maps "skip" or "abort" to a MalformedPolicy
func ParsePolicy(s string) (MalformedPolicy, error) {
	switch s {
	case "skip":
		return PolicySkip, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return 0, fmt.Errorf("unknown malformed record policy %q", s)
	}
}

// Options configures an Engine
type Options struct {
	// Shards is the number of workers. Values <= 1 select the serial engine.
	Shards int
	// Buffer is the queue capacity of each shard.
	Buffer    int
	Policy    MalformedPolicy
	Processor []processor.Option
	Logger    *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Stats summarises a run
type Stats struct {
	processor.Stats
	Malformed int
}

// Processed returns the number of decoded transactions handed to a processor
func (s Stats) Processed() int {
	return s.TotalApplied() + s.TotalRejected()
}

// Result is the outcome of a run
type Result struct {
	Accounts []ledger.AccountSnapshot
	Stats    Stats
}

// Engine consumes a Source to exhaustion
type Engine interface {
	Run(ctx context.Context, src Source) (*Result, error)
}

// New returns the serial engine for a single shard and the sharded engine otherwise
func New(opts Options) Engine {
	if opts.Shards <= 1 {
		return NewSerial(opts)
	}
	return NewSharded(opts)
}

// nextTransaction pulls the next decodable transaction, applying the
// malformed record policy. ok is false at the end of input.
func nextTransaction(src Source, opts Options, malformed *int) (tx processor.Transaction, ok bool, err error) {
	for {
		tx, err = src.Next()
		if err == nil {
			return tx, true, nil
		}
		if errors.Is(err, io.EOF) {
			return tx, false, nil
		}

		var recErr *csvio.RecordError
		if !errors.As(err, &recErr) {
			return tx, false, fmt.Errorf("read input: %w", err)
		}

		*malformed++
		if opts.Policy == PolicyAbort {
			return tx, false, fmt.Errorf("malformed record: %w", err)
		}
		opts.logger().Warn("skipping malformed record",
			zap.Int("line", recErr.Line),
			zap.Error(recErr.Err),
		)
	}
}

func apply(p *processor.Processor, tx processor.Transaction, logger *zap.Logger) {
	if err := p.Apply(tx); err != nil {
		logger.Warn("transaction rejected",
			zap.Stringer("kind", tx.Kind),
			zap.Uint16("client", uint16(tx.Client)),
			zap.Uint32("tx", uint32(tx.Tx)),
			zap.Error(err),
		)
	}
}
