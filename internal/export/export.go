// Package export delivers the final account state of a run to its consumers.
package export

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terminal-bench/paymentsengine/internal/engine"
	"github.com/terminal-bench/paymentsengine/internal/ledger"
)

// Run is what a sink receives once the engine has finished
type Run struct {
	ID       uuid.UUID
	Accounts []ledger.AccountSnapshot
	Stats    engine.Stats
}

// NewRun stamps a result with a fresh run id
func NewRun(res *engine.Result) Run {
	return Run{
		ID:       uuid.New(),
		Accounts: res.Accounts,
		Stats:    res.Stats,
	}
}

// Sink is a destination for final account state
type Sink interface {
	Name() string
	Export(ctx context.Context, run Run) error
}

// All exports run to every sink in order and stops at the first failure
func All(ctx context.Context, run Run, logger *zap.Logger, sinks ...Sink) error {
	for _, s := range sinks {
		if err := s.Export(ctx, run); err != nil {
			return fmt.Errorf("export to %s: %w", s.Name(), err)
		}
		logger.Debug("exported accounts",
			zap.String("sink", s.Name()),
			zap.Int("accounts", len(run.Accounts)),
		)
	}
	return nil
}
