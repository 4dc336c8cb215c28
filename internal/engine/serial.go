package engine

import (
	"context"
	"fmt"

	"github.com/terminal-bench/paymentsengine/internal/processor"
)

// Serial applies every transaction in arrival order on the calling goroutine
type Serial struct {
	opts Options
}

var _ Engine = (*Serial)(nil)

// NewSerial returns a serial engine configured by opts
func NewSerial(opts Options) *Serial {
	return &Serial{opts: opts}
}

// Run applies src to a fresh processor until the source is exhausted
func (e *Serial) Run(ctx context.Context, src Source) (*Result, error) {
	stores := processor.NewStores()
	proc := processor.New(stores, e.opts.Processor...)
	logger := e.opts.logger()

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tx, ok, err := nextTransaction(src, e.opts, &stats.Malformed)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		apply(proc, tx, logger)
	}

	accounts, err := stores.Accounts.Snapshots()
	if err != nil {
		return nil, fmt.Errorf("snapshot accounts: %w", err)
	}
	stats.Stats = proc.Stats()

	return &Result{Accounts: accounts, Stats: stats}, nil
}
