package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/terminal-bench/paymentsengine/internal/ledger"
	"github.com/terminal-bench/paymentsengine/internal/processor"
)

// Sharded partitions clients across workers by client id. Each worker owns a
// private processor, so no state is shared between goroutines. A single
// dispatcher reads the source, which keeps every client's events in order.
type Sharded struct {
	opts Options
}

var _ Engine = (*Sharded)(nil)

// NewSharded returns a sharded engine. Fewer than one shard means one.
func NewSharded(opts Options) *Sharded {
	if opts.Shards < 1 {
		opts.Shards = 1
	}
	return &Sharded{opts: opts}
}

type shard struct {
	stores processor.Stores
	proc   *processor.Processor
	queue  chan processor.Transaction
}

// Run dispatches src across the shards and merges their ledgers once every
// worker has drained its queue.
func (e *Sharded) Run(ctx context.Context, src Source) (*Result, error) {
	n := e.opts.Shards
	logger := e.opts.logger()

	shards := make([]*shard, n)
	for i := range shards {
		stores := processor.NewStores()
		shards[i] = &shard{
			stores: stores,
			proc:   processor.New(stores, e.opts.Processor...),
			queue:  make(chan processor.Transaction, e.opts.Buffer),
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, s := range shards {
		s := s
		shardLogger := logger.With(zap.Int("shard", i))
		g.Go(func() error {
			for tx := range s.queue {
				apply(s.proc, tx, shardLogger)
			}
			return nil
		})
	}

	var malformed int
	g.Go(func() error {
		defer func() {
			for _, s := range shards {
				close(s.queue)
			}
		}()

		for {
			if err := gctx.Err(); err != nil {
				return err
			}

			tx, ok, err := nextTransaction(src, e.opts, &malformed)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			select {
			case shards[int(tx.Client)%n].queue <- tx:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := ledger.New()
	stats := Stats{Malformed: malformed}
	for _, s := range shards {
		if err := merged.Merge(s.stores.Accounts); err != nil {
			return nil, fmt.Errorf("merge shards: %w", err)
		}
		stats.Add(s.proc.Stats())
	}

	accounts, err := merged.Snapshots()
	if err != nil {
		return nil, fmt.Errorf("snapshot accounts: %w", err)
	}

	return &Result{Accounts: accounts, Stats: stats}, nil
}
