package export

import (
	"context"
	"fmt"

	"github.com/terminal-bench/paymentsengine/internal/processor"
	"github.com/terminal-bench/paymentsengine/pkg/circuit"
	"github.com/terminal-bench/paymentsengine/pkg/messaging"
)

// Publisher is the part of messaging.Client the NATS sink needs
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Flush(ctx context.Context) error
}

var _ Publisher = (*messaging.Client)(nil)

// NATSSink publishes one snapshot event per account followed by a run summary
type NATSSink struct {
	pub     Publisher
	subject string
	breaker *circuit.Breaker
}

var _ Sink = (*NATSSink)(nil)

// NewNATSSink returns a sink publishing on subject. A nil breaker gets a
// default one that opens after three failures.
func NewNATSSink(pub Publisher, subject string, breaker *circuit.Breaker) *NATSSink {
	if breaker == nil {
		breaker = circuit.NewBreaker(circuit.Config{Name: "nats", MaxFailures: 3})
	}
	return &NATSSink{pub: pub, subject: subject, breaker: breaker}
}

// Name implements Sink
func (s *NATSSink) Name() string { return "nats" }

// CompletedSubject is where the run summary is published
func (s *NATSSink) CompletedSubject() string {
	return s.subject + ".completed"
}

// Export publishes every snapshot, then the run summary, then flushes
func (s *NATSSink) Export(ctx context.Context, run Run) error {
	for _, acc := range run.Accounts {
		event, err := messaging.NewEvent(messaging.EventTypeAccountSnapshot, run.ID, messaging.AccountSnapshotEvent{
			Client:    uint16(acc.Client),
			Available: acc.Available.String(),
			Held:      acc.Held.String(),
			Total:     acc.Total.String(),
			Locked:    acc.Locked,
		})
		if err != nil {
			return fmt.Errorf("build snapshot event: %w", err)
		}
		if err := s.publish(ctx, s.subject, event); err != nil {
			return fmt.Errorf("publish client %d: %w", acc.Client, err)
		}
	}

	event, err := messaging.NewEvent(messaging.EventTypeRunCompleted, run.ID, summarize(run))
	if err != nil {
		return fmt.Errorf("build run event: %w", err)
	}
	if err := s.publish(ctx, s.CompletedSubject(), event); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}

	return s.breaker.Execute(ctx, func() error {
		return s.pub.Flush(ctx)
	})
}

func (s *NATSSink) publish(ctx context.Context, subject string, event *messaging.Event) error {
	return s.breaker.Execute(ctx, func() error {
		return s.pub.Publish(ctx, subject, event)
	})
}

func summarize(run Run) messaging.RunCompletedEvent {
	summary := messaging.RunCompletedEvent{
		Accounts:  len(run.Accounts),
		Applied:   make(map[string]int),
		Rejected:  make(map[string]int),
		Malformed: run.Stats.Malformed,
	}
	for i := range run.Stats.Applied {
		kind := processor.Kind(i)
		summary.Applied[kind.String()] = run.Stats.Applied[i]
		summary.Rejected[kind.String()] = run.Stats.Rejected[i]
	}
	return summary
}
